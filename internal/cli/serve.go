package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/Himanshujchavan/GROQPILOT/internal/config"
	internal_http "github.com/Himanshujchavan/GROQPILOT/internal/http"
	"github.com/Himanshujchavan/GROQPILOT/internal/log"
	"github.com/Himanshujchavan/GROQPILOT/internal/providers"
	internal_storage "github.com/Himanshujchavan/GROQPILOT/internal/storage"
	"github.com/Himanshujchavan/GROQPILOT/internal/telemetry"
	"github.com/Himanshujchavan/GROQPILOT/pkg/events"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the automation API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return Serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

// Serve runs the API server and the scheduler until ctx is done or one of
// them fails.
func Serve(ctx context.Context, cfg *config.Config) error {
	if err := log.Configure(cfg.Log); err != nil {
		return err
	}
	logger := log.GetLogger()

	store, err := internal_storage.InitStore(cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.Migrate)
	if err != nil {
		return errors.Wrap(err, "failed to initialize store")
	}
	defer store.Close()
	logger.Infof("Using %s task storage", cfg.Storage.Driver)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Errorf("Failed to flush traces: %v", err)
		}
	}()

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()
	bus.OnDrop(func(e events.Event) {
		logger.Debugf("Dropped %s event for task %s", e.Name, e.TaskID)
	})
	if cfg.Events.Stdout {
		defer bus.Attach(events.NewLineSink(os.Stdout, events.DefaultLinePrefix))()
	}
	if cfg.Events.Log {
		defer bus.Attach(events.NewLogSink(logger))()
	}

	registry := service.NewProviderRegistry()
	if _, err := providers.RegisterDefaults(registry, providers.Config{
		Latency:   cfg.Providers.Latency,
		FilesRoot: cfg.Providers.FilesRoot,
	}); err != nil {
		return err
	}

	svcOpts := service.Options{
		MaxConcurrent:     cfg.Engine.MaxConcurrent,
		StepTimeout:       cfg.Engine.StepTimeout,
		GateWorkflowSteps: cfg.Engine.GateWorkflowSteps,
	}
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		metrics := telemetry.NewMetrics(cfg.Telemetry.Metrics.Namespace)
		svcOpts.Metrics = metrics
		metricsHandler = metrics.Handler()
	}

	g, gctx := errgroup.WithContext(ctx)
	svc := service.NewAutomationService(gctx, store, registry, bus, logger, svcOpts)
	defer svc.Close()
	scheduler := service.NewScheduler(store, svc, logger, cfg.Scheduler.Interval)

	serverOpts := internal_http.Options{
		Scheduler:   scheduler,
		Bus:         bus,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if cfg.Telemetry.Tracing.Enabled {
		serverOpts.ServiceName = cfg.Telemetry.Tracing.ServiceName
	}
	server := internal_http.NewServer(svc, logger, serverOpts)

	g.Go(func() error {
		return server.Run(gctx, cfg.Addr())
	})
	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}
	logger.Infof("Available targets: %v", svc.Targets())
	return g.Wait()
}
