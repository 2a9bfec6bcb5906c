package filesink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/errors"
	"github.com/kimit0310/MoBI-Physio-API/metric"
	"github.com/kimit0310/MoBI-Physio-API/pkg/timestamp"
)

// Config holds configuration for the NDJSON recorder sink
type Config struct {
	// Directory receives the recording files. Created if missing.
	Directory string `json:"directory" yaml:"directory"`

	// FilePrefix is prepended to the stream name to form the file name.
	FilePrefix string `json:"file_prefix" yaml:"file_prefix"`

	// Append reuses an existing file instead of truncating it. Each
	// session starts with its own header line, so appended files hold
	// multiple segments.
	Append bool `json:"append" yaml:"append"`

	// BufferSize is the number of buffered lines before a forced flush.
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`

	// FlushInterval is how often buffered lines are written to disk.
	// Zero disables the periodic flush; lines still flush on buffer
	// pressure and on Close.
	FlushInterval time.Duration `json:"flush_interval" yaml:"flush_interval"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Directory == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "directory is required")
	}
	if c.BufferSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"buffer_size cannot be negative")
	}
	if c.FlushInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"flush_interval cannot be negative")
	}
	return nil
}

// DefaultConfig returns default configuration for the recorder sink
func DefaultConfig() Config {
	return Config{
		Directory:     "recordings",
		FilePrefix:    "physio",
		Append:        true,
		BufferSize:    100,
		FlushInterval: 1 * time.Second,
	}
}

// Deps carries the dependencies for the recorder sink. Metrics is
// optional; when nil the sink keeps only its internal counters.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metric.MetricsRegistry
}

// headerRecord is the first line of every recording segment. Readers
// split multi-session files on lines carrying a header field.
type headerRecord struct {
	Header     device.StreamInfo `json:"header"`
	RecordedAt int64             `json:"recorded_at"`
}

// Sink records samples to a newline-delimited JSON file, one header
// line per session followed by one line per sample. Writes are
// buffered; disk failures are counted and logged rather than
// propagated, a recording hiccup should not fault the acquisition.
type Sink struct {
	cfg    Config
	logger *slog.Logger

	file   *os.File
	fileMu sync.Mutex
	path   string

	buffer   [][]byte
	bufferMu sync.Mutex

	opened atomic.Bool
	closed atomic.Bool

	shutdown  chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup

	samplesWritten atomic.Int64
	bytesWritten   atomic.Int64
	writeErrors    atomic.Int64

	metrics        *metric.MetricsRegistry
	bytesCounter   prometheus.Counter
	samplesCounter prometheus.Counter
}

var _ device.Sink = (*Sink)(nil)

// New creates a recorder sink from configuration. Zero-valued config
// fields fall back to defaults.
func New(cfg Config, deps Deps) (*Sink, error) {
	defaults := DefaultConfig()
	if cfg.Directory == "" {
		cfg.Directory = defaults.Directory
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = defaults.FilePrefix
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = defaults.BufferSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "filesink")
	}

	s := &Sink{
		cfg:      cfg,
		logger:   logger,
		buffer:   make([][]byte, 0, cfg.BufferSize),
		shutdown: make(chan struct{}),
		metrics:  deps.Metrics,
	}

	if deps.Metrics != nil {
		s.bytesCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobiphysio",
			Subsystem: "file",
			Name:      "bytes_written_total",
			Help:      "Bytes written to recording files",
		})
		if err := deps.Metrics.RegisterCounter("filesink", "bytes_written_total", s.bytesCounter); err != nil {
			return nil, errors.WrapInvalid(err, "Sink", "New", "register bytes metric")
		}
		s.samplesCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobiphysio",
			Subsystem: "file",
			Name:      "samples_written_total",
			Help:      "Samples written to recording files",
		})
		if err := deps.Metrics.RegisterCounter("filesink", "samples_written_total", s.samplesCounter); err != nil {
			deps.Metrics.Unregister("filesink", "bytes_written_total")
			return nil, errors.WrapInvalid(err, "Sink", "New", "register samples metric")
		}
	}

	return s, nil
}

// Open creates the recording file and writes the session header line.
func (s *Sink) Open(_ context.Context, info device.StreamInfo) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Open", "sink is closed")
	}
	if s.opened.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sink", "Open", "sink already open")
	}

	if err := os.MkdirAll(s.cfg.Directory, 0755); err != nil {
		return errors.WrapFatal(err, "Sink", "Open", "create recording directory")
	}

	filename := fmt.Sprintf("%s-%s.ndjson", s.cfg.FilePrefix, fileToken(info.Name))
	path := filepath.Join(s.cfg.Directory, filename)

	flags := os.O_CREATE | os.O_WRONLY
	if s.cfg.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return errors.WrapFatal(err, "Sink", "Open", "open recording file")
	}

	header := headerRecord{Header: info, RecordedAt: timestamp.Now()}
	line, err := json.Marshal(header)
	if err != nil {
		_ = file.Close()
		return errors.WrapInvalid(err, "Sink", "Open", "marshal header")
	}
	n, err := file.Write(append(line, '\n'))
	if err != nil {
		_ = file.Close()
		return errors.WrapFatal(err, "Sink", "Open", "write header line")
	}
	s.recordWrite(n, 0)

	s.fileMu.Lock()
	s.file = file
	s.path = path
	s.fileMu.Unlock()

	if s.cfg.FlushInterval > 0 {
		s.wg.Add(1)
		go s.flushLoop()
	}

	s.opened.Store(true)

	s.logger.Info("recording started",
		"path", path,
		"stream", info.Name,
		"channels", len(info.Channels),
		"sample_rate", info.SampleRate,
		"append", s.cfg.Append)

	return nil
}

// Push buffers one sample line. Disk errors surface at flush time and
// are counted, not returned.
func (s *Sink) Push(_ context.Context, sample device.Sample) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "Sink", "Push", "sink is closed")
	}
	if !s.opened.Load() {
		return errors.WrapInvalid(errors.ErrNotStarted, "Sink", "Push", "sink not open")
	}

	line, err := json.Marshal(sample)
	if err != nil {
		return errors.WrapInvalid(err, "Sink", "Push", "marshal sample")
	}

	s.bufferMu.Lock()
	s.buffer = append(s.buffer, line)
	shouldFlush := len(s.buffer) >= s.cfg.BufferSize
	s.bufferMu.Unlock()

	if shouldFlush {
		s.flush()
	}

	return nil
}

// Close flushes remaining lines, syncs and closes the file. Safe to
// call multiple times.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		wasOpen := s.opened.Load()

		if wasOpen {
			close(s.shutdown)
			s.wg.Wait()
			s.flush()

			s.fileMu.Lock()
			if s.file != nil {
				if err := s.file.Sync(); err != nil {
					s.closeErr = errors.WrapTransient(err, "Sink", "Close", "sync recording file")
				}
				if err := s.file.Close(); err != nil && s.closeErr == nil {
					s.closeErr = errors.WrapTransient(err, "Sink", "Close", "close recording file")
				}
				s.file = nil
			}
			s.fileMu.Unlock()

			s.logger.Info("recording closed",
				"path", s.path,
				"samples_written", s.samplesWritten.Load(),
				"bytes_written", s.bytesWritten.Load(),
				"write_errors", s.writeErrors.Load())
		}

		if s.metrics != nil {
			s.metrics.Unregister("filesink", "bytes_written_total")
			s.metrics.Unregister("filesink", "samples_written_total")
		}
	})
	return s.closeErr
}

// Path returns the recording file path. Empty before Open.
func (s *Sink) Path() string {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.path
}

// flushLoop periodically flushes the line buffer
func (s *Sink) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.flush()
		}
	}
}

// flush writes buffered lines to the file
func (s *Sink) flush() {
	s.bufferMu.Lock()
	if len(s.buffer) == 0 {
		s.bufferMu.Unlock()
		return
	}
	lines := s.buffer
	s.buffer = make([][]byte, 0, s.cfg.BufferSize)
	s.bufferMu.Unlock()

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if s.file == nil {
		s.writeErrors.Add(int64(len(lines)))
		s.logger.Error("file handle is nil during flush",
			"lines_lost", len(lines))
		return
	}

	for _, line := range lines {
		n, err := s.file.Write(append(line, '\n'))
		if err != nil {
			s.writeErrors.Add(1)
			s.logger.Error("failed to write sample line",
				"path", s.path,
				"error", err)
			continue
		}
		s.recordWrite(n, 1)
	}
}

// recordWrite updates internal counters and the optional metrics.
func (s *Sink) recordWrite(bytes int, samples int64) {
	s.bytesWritten.Add(int64(bytes))
	s.samplesWritten.Add(samples)
	if s.bytesCounter != nil {
		s.bytesCounter.Add(float64(bytes))
	}
	if s.samplesCounter != nil && samples > 0 {
		s.samplesCounter.Add(float64(samples))
	}
}

// fileToken strips characters that are awkward in file names.
func fileToken(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "stream"
	}
	return string(out)
}
