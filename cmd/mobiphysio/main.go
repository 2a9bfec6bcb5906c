// Package main implements the entry point for the mobiphysio bridge.
// The bridge drives one biosignal acquisition device (or the simulated
// hub) and streams labeled samples to the configured sinks: NATS
// JetStream, MQTT, NDJSON recordings, and WebSocket live views.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kimit0310/MoBI-Physio-API/bridge"
	"github.com/kimit0310/MoBI-Physio-API/component"
	"github.com/kimit0310/MoBI-Physio-API/config"
	"github.com/kimit0310/MoBI-Physio-API/device"
	"github.com/kimit0310/MoBI-Physio-API/health"
	"github.com/kimit0310/MoBI-Physio-API/metric"
	"github.com/kimit0310/MoBI-Physio-API/natsclient"
	"github.com/kimit0310/MoBI-Physio-API/plux"
	"github.com/kimit0310/MoBI-Physio-API/simdevice"
	"github.com/kimit0310/MoBI-Physio-API/sink/filesink"
	"github.com/kimit0310/MoBI-Physio-API/sink/mqttsink"
	"github.com/kimit0310/MoBI-Physio-API/sink/natssink"
	"github.com/kimit0310/MoBI-Physio-API/sink/wssink"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "mobiphysio"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	if cliCfg.Discover {
		return discoverDevices(logger)
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	metricsRegistry := metric.NewMetricsRegistry()

	sinks, ports, natsClient, err := buildSinks(ctx, cfg, metricsRegistry, logger)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() { _ = natsClient.Close(ctx) }()
	}

	dialer, err := buildDialer(cfg, logger)
	if err != nil {
		return err
	}

	b, err := bridge.New(bridge.Deps{
		Name:            "bridge",
		Config:          bridgeConfig(cfg),
		Dialer:          dialer,
		Sinks:           sinks,
		OutputPorts:     ports,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("create bridge: %w", err)
	}
	if err := b.Initialize(); err != nil {
		return fmt.Errorf("initialize bridge: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
	}

	return runWithSignalHandling(ctx, b, metricsServer, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting mobiphysio (biosignal acquisition bridge)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads the config file, applies CLI overrides
// and validates the result
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(true)

	var cfg *config.Config
	var err error
	if cliCfg.ConfigPath != "" {
		cfg, err = loader.LoadFile(cliCfg.ConfigPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// CLI flags win over file and environment.
	if cliCfg.DeviceAddr != "" {
		cfg.Device.Addr = cliCfg.DeviceAddr
	}
	if cliCfg.Simulate {
		cfg.Device.Simulate = true
	}
	if cfg.Device.Simulate && cfg.Device.Addr == "" {
		cfg.Device.Addr = "sim-" + uuid.NewString()[:8]
	}

	if len(cfg.Sinks) == 0 {
		// A bridge with nowhere to deliver is a misconfiguration,
		// except when trying the pipeline without hardware.
		if !cfg.Device.Simulate {
			return nil, fmt.Errorf("no sinks configured")
		}
		slog.Info("No sinks configured, recording to the default directory")
		cfg.Sinks = config.SinkConfigs{
			"recorder": {Type: config.SinkTypeFile, Enabled: true},
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("Configuration loaded",
		"device", cfg.Device.Addr,
		"simulate", cfg.Device.Simulate,
		"sinks", cfg.EnabledSinks())

	return cfg, nil
}

// discoverDevices scans for devices in range and prints their addresses
func discoverDevices(logger *slog.Logger) error {
	logger.Info("Scanning for devices")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	addrs, err := plux.Discover(ctx)
	if err != nil {
		return fmt.Errorf("device scan: %w", err)
	}
	if len(addrs) == 0 {
		fmt.Println("No devices found")
		return nil
	}
	for _, addr := range addrs {
		fmt.Println(addr)
	}
	return nil
}

// buildDialer picks the device link factory: the simulated hub or the
// vendor driver.
func buildDialer(cfg *config.Config, logger *slog.Logger) (device.Dialer, error) {
	if cfg.Device.Simulate {
		hub, err := simdevice.NewHub(simdevice.DefaultProfile(), logger.With("component", "simdevice"))
		if err != nil {
			return nil, fmt.Errorf("create simulated hub: %w", err)
		}
		return hub, nil
	}

	dialer, err := plux.NewDialer(logger.With("component", "plux"))
	if err != nil {
		return nil, fmt.Errorf("create device dialer: %w", err)
	}
	return dialer, nil
}

// bridgeConfig maps the device section onto the bridge component config
func bridgeConfig(cfg *config.Config) bridge.Config {
	bc := bridge.DefaultConfig()
	bc.DeviceAddr = cfg.Device.Addr
	if cfg.Device.SampleRate > 0 {
		bc.SampleRate = cfg.Device.SampleRate
	}
	if cfg.Device.ConnectTimeout > 0 {
		bc.ConnectTimeout = cfg.Device.ConnectTimeout
	}
	if cfg.Device.ConnectRetryInterval > 0 {
		bc.ConnectRetryInterval = cfg.Device.ConnectRetryInterval
	}
	if cfg.Device.MaxConsecutiveDrops > 0 {
		bc.MaxConsecutiveDrops = cfg.Device.MaxConsecutiveDrops
	}
	if cfg.Device.StreamName != "" {
		bc.StreamName = cfg.Device.StreamName
	}
	if cfg.Device.StreamType != "" {
		bc.StreamType = cfg.Device.StreamType
	}
	bc.SourceID = cfg.Device.SourceID
	bc.Channels = cfg.Device.Channels
	return bc
}

// buildSinks constructs one sink per enabled config entry, plus the
// matching output port descriptions for component discovery. The NATS
// client is created and connected only when a NATS sink is enabled.
func buildSinks(
	ctx context.Context,
	cfg *config.Config,
	metricsRegistry *metric.MetricsRegistry,
	logger *slog.Logger,
) ([]device.Sink, []component.Port, *natsclient.Client, error) {
	var (
		sinks      []device.Sink
		ports      []component.Port
		natsClient *natsclient.Client
	)

	for _, name := range cfg.EnabledSinks() {
		sc := cfg.Sinks[name]
		sinkLogger := logger.With("sink", name)

		switch sc.Type {
		case config.SinkTypeNATS:
			if natsClient == nil {
				client, err := connectNATS(ctx, cfg, logger)
				if err != nil {
					return nil, nil, nil, err
				}
				natsClient = client
			}
			nc := natssink.DefaultConfig()
			if err := decodeSinkConfig(sc.Config, &nc); err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			s, err := natssink.New(nc, natssink.Deps{Client: natsClient, Logger: sinkLogger})
			if err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			sinks = append(sinks, s)
			ports = append(ports, component.Port{
				Name:        name,
				Direction:   component.DirectionOutput,
				Required:    true,
				Description: "Sample stream on NATS JetStream",
				Config: component.NATSPort{
					Subject: nc.SubjectPrefix + ".>",
					Stream:  nc.Stream,
					Bucket:  nc.Bucket,
				},
			})

		case config.SinkTypeMQTT:
			mc := mqttsink.DefaultConfig()
			if err := decodeSinkConfig(sc.Config, &mc); err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			s, err := mqttsink.New(mc, mqttsink.Deps{Logger: sinkLogger})
			if err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			sinks = append(sinks, s)
			ports = append(ports, component.Port{
				Name:        name,
				Direction:   component.DirectionOutput,
				Description: "Sample stream on MQTT",
				Config: component.MQTTPort{
					Broker: mc.Broker,
					Topic:  mc.TopicPrefix + "/+/samples",
					QoS:    int(mc.QoS),
				},
			})

		case config.SinkTypeFile:
			fc := filesink.DefaultConfig()
			if err := decodeSinkConfig(sc.Config, &fc); err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			s, err := filesink.New(fc, filesink.Deps{Logger: sinkLogger, Metrics: metricsRegistry})
			if err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			sinks = append(sinks, s)
			ports = append(ports, component.Port{
				Name:        name,
				Direction:   component.DirectionOutput,
				Description: "NDJSON recording",
				Config:      component.FilePort{Path: fc.Directory},
			})

		case config.SinkTypeWebSocket:
			wc := wssink.DefaultConfig()
			if err := decodeSinkConfig(sc.Config, &wc); err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			s, err := wssink.New(wc, wssink.Deps{Logger: sinkLogger, Metrics: metricsRegistry})
			if err != nil {
				return nil, nil, natsClient, fmt.Errorf("sink %s: %w", name, err)
			}
			sinks = append(sinks, s)
			ports = append(ports, component.Port{
				Name:        name,
				Direction:   component.DirectionOutput,
				Description: "WebSocket live view",
				Config:      component.WebSocketPort{Addr: wc.Addr, Path: wc.Path},
			})

		default:
			return nil, nil, natsClient, fmt.Errorf("sink %s: unknown type %q", name, sc.Type)
		}
	}

	return sinks, ports, natsClient, nil
}

// decodeSinkConfig overlays the raw sink config onto v, which arrives
// prefilled with the sink's defaults.
func decodeSinkConfig(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return component.SafeUnmarshal(raw, v)
}

// connectNATS creates the managed NATS client and waits for the first
// connection.
func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	url := "nats://localhost:4222"
	if len(cfg.NATS.URLs) > 0 {
		url = cfg.NATS.URLs[0]
	}

	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger.With("component", "natsclient")),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	slog.Info("Connecting to NATS", "url", url)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, fmt.Errorf("NATS connection timeout: %w", err)
	}

	return client, nil
}

// runWithSignalHandling starts the bridge and supporting servers, then
// blocks until a signal arrives or the pipeline ends on its own.
func runWithSignalHandling(
	ctx context.Context,
	b *bridge.Bridge,
	metricsServer *metric.Server,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := b.Start(signalCtx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	slog.Info("Bridge started")

	monitor := health.NewMonitor()
	g, gctx := errgroup.WithContext(signalCtx)

	if metricsServer != nil {
		g.Go(func() error {
			err := metricsServer.Start()
			if gctx.Err() != nil {
				return nil // Shutdown closed the listener.
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			return metricsServer.Stop()
		})
	}

	// Pipeline watcher: ends the run group when acquisition finishes,
	// successfully or not.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-b.Done():
			if lastErr := b.Health().LastError; lastErr != "" {
				return fmt.Errorf("acquisition pipeline failed: %s", lastErr)
			}
			slog.Info("Acquisition pipeline finished")
			signalCancel()
			return nil
		}
	})

	// Health watcher: keeps the monitor current and logs transitions.
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		wasHealthy := true
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				status := health.FromComponentHealth("bridge", b.Health())
				monitor.Update("bridge", status)
				if status.Healthy != wasHealthy {
					if status.Healthy {
						slog.Info("Bridge recovered", "message", status.Message)
					} else {
						slog.Warn("Bridge unhealthy", "message", status.Message)
					}
					wasHealthy = status.Healthy
				}
			}
		}
	})

	<-signalCtx.Done()
	slog.Info("Shutting down", "timeout", shutdownTimeout)

	stopErr := b.Stop(shutdownTimeout)
	groupErr := g.Wait()

	if stopErr != nil {
		return fmt.Errorf("stop bridge: %w", stopErr)
	}
	if groupErr != nil {
		return groupErr
	}

	slog.Info("Shutdown complete")
	return nil
}

// printHelp prints help information
func printHelp() {
	printDetailedHelp()
}
