package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/effluent-watch/api/openapi"
	"github.com/donaldgifford/effluent-watch/internal/api/handlers"
	"github.com/donaldgifford/effluent-watch/internal/api/middleware"
	"github.com/donaldgifford/effluent-watch/internal/config"
	"github.com/donaldgifford/effluent-watch/internal/engine"
	"github.com/donaldgifford/effluent-watch/internal/store"
	"github.com/donaldgifford/effluent-watch/internal/stream"
	"github.com/donaldgifford/effluent-watch/internal/telemetry"
	"github.com/donaldgifford/effluent-watch/internal/thresholds"
	"github.com/donaldgifford/effluent-watch/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and poll scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, Version, log)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error("flushing traces", "error", err)
		}
	}()

	be, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			log.Error("closing backends", "error", err)
		}
	}()

	th, err := thresholds.New(ctx, be.thresholds,
		thresholds.WithLogger(logger.Component(log, "thresholds")))
	if err != nil {
		return fmt.Errorf("loading thresholds: %w", err)
	}

	notifier, closeNotifier, err := buildNotifier(cfg.Notifications, logger.Component(log, "notify"))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			log.Error("closing notifiers", "error", err)
		}
	}()

	hub := stream.NewHub(
		stream.WithLogger(logger.Component(log, "stream")),
		stream.WithClientBuffer(cfg.Stream.ClientBuffer),
		stream.WithAllowedOrigins(cfg.Stream.AllowedOrigins),
	)
	go hub.Run(ctx)

	provider := newProvider(cfg, th.Get(ctx).Effluent, logger.Component(log, "upstream"))

	monitorOpts := []engine.MonitorOption{
		engine.WithLogger(logger.Component(log, "monitor")),
		engine.WithNotifier(notifier),
		engine.WithPublisher(hub),
		engine.WithCapacity(engine.FixedCapacity(cfg.Alerts.FeedCapacity)),
		engine.WithFetchTimeout(cfg.Schedule.FetchTimeout),
	}
	if be.history != nil {
		monitorOpts = append(monitorOpts, engine.WithHistory(be.history))
	}
	monitor := engine.NewMonitor(provider, th, monitorOpts...)
	th.OnChange(monitor.OnThresholdsChanged)

	scheduler, err := engine.NewScheduler(monitor, cfg.Schedule.PollInterval, logger.Component(log, "scheduler"))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	e := newServer(cfg, log, monitor, th, be.history, hub)

	// Evaluate once right away instead of waiting for the first tick.
	go func() {
		if _, err := monitor.RunCycle(ctx); err != nil {
			log.Warn("initial cycle failed", "error", err)
		}
	}()
	scheduler.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "poll_interval", cfg.Schedule.PollInterval)

	srvErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	log.Info("shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo instance with middleware, the huma API, probes,
// metrics and the websocket stream.
func newServer(
	cfg *config.Config,
	log *slog.Logger,
	monitor *engine.Monitor,
	th *thresholds.Store,
	history store.AlertLog,
	hub *stream.Hub,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	httpLog := logger.Component(log, "http")
	e.Use(middleware.RequestLog(httpLog))
	e.Use(middleware.Metrics())
	e.Use(middleware.Recovery(httpLog))

	api := humaecho.New(e, huma.DefaultConfig("effluent-watch API", Version))

	handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(monitor))
	handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(monitor, history))
	handlers.RegisterThresholdRoutes(api, handlers.NewThresholdsHandler(th))
	handlers.RegisterHealthRoutes(e, handlers.NewHealthHandler(th, monitor))
	openapi.RegisterRoutes(e, api)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws/monitoring", echo.WrapHandler(hub))

	return e
}
