package metric

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// Server serves the Prometheus scrape endpoint plus a trivial health
// check and an index page.
type Server struct {
	port     int
	path     string
	server   *http.Server
	registry *MetricsRegistry
	mu       sync.Mutex // protects server
}

// NewServer creates a metrics server for the given registry. Zero port
// defaults to 9090, empty path to /metrics.
func NewServer(port int, path string, registry *MetricsRegistry) *Server {
	if path == "" {
		path = "/metrics"
	}
	if port == 0 {
		port = 9090
	}

	return &Server{
		port:     port,
		path:     path,
		registry: registry,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle(s.path, promhttp.HandlerFor(
		s.registry.PrometheusRegistry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprintf(w, `<html>
<head><title>MoBI-Physio Metrics</title></head>
<body>
<h1>MoBI-Physio Metrics Server</h1>
<p><a href="%s">Metrics</a></p>
<p><a href="/health">Health</a></p>
</body>
</html>`, s.path)
	})

	return mux
}

// Start serves until Stop is called or the listener fails. The mutex is
// released before serving so Stop can run while Start blocks.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("server already running"),
			"Server", "Start", "duplicate start")
	}
	if s.registry == nil {
		s.mu.Unlock()
		return errors.WrapFatal(
			fmt.Errorf("nil registry"),
			"Server", "Start", "metrics registry not provided")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.routes(),
	}
	s.server = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start",
			fmt.Sprintf("failed to start server on port %d", s.port))
	}
	return nil
}

// Stop closes the server. The field resets so Start can run again.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.server = nil
	if err != nil {
		return errors.WrapTransient(err, "Server", "Stop",
			"failed to stop HTTP server")
	}
	return nil
}

// Address returns the local scrape URL.
func (s *Server) Address() string {
	return fmt.Sprintf("http://localhost:%d%s", s.port, s.path)
}
