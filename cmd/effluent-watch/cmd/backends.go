package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/donaldgifford/effluent-watch/internal/config"
	"github.com/donaldgifford/effluent-watch/internal/engine"
	"github.com/donaldgifford/effluent-watch/internal/notify"
	"github.com/donaldgifford/effluent-watch/internal/store"
	"github.com/donaldgifford/effluent-watch/internal/upstream"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// backends holds the persistence chosen by the config. History is nil when
// disabled.
type backends struct {
	thresholds store.ThresholdRepository
	history    store.AlertLog
	closers    []func() error
}

func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openBackends connects each backend at most once; thresholds and history
// share a connection when they name the same backend.
func openBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{}

	var (
		pg  *store.PostgresStore
		rdb *store.RedisStore
	)

	if cfg.UsesPostgres() {
		var err error
		pg, err = store.NewPostgresStore(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		b.closers = append(b.closers, func() error { pg.Close(); return nil })

		applied, err := pg.Migrate(ctx)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		if len(applied) > 0 {
			log.Info("applied migrations", "versions", applied)
		}
	}

	if cfg.UsesRedis() {
		var err error
		rdb, err = store.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			store.WithKeyPrefix(cfg.Redis.KeyPrefix),
			store.WithHistoryMax(cfg.Alerts.HistoryCapacity),
		)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.closers = append(b.closers, rdb.Close)
	}

	switch cfg.Thresholds.Backend {
	case config.BackendPostgres:
		b.thresholds = pg
	case config.BackendRedis:
		b.thresholds = rdb
	default:
		b.thresholds = store.NewFileStore(cfg.Thresholds.Path)
	}

	switch cfg.Alerts.HistoryBackend {
	case config.BackendPostgres:
		b.history = pg
	case config.BackendRedis:
		b.history = rdb
	case config.BackendMemory:
		b.history = store.NewMemoryAlertLog(cfg.Alerts.HistoryCapacity)
	}

	log.Info("backends ready",
		"thresholds", cfg.Thresholds.Backend,
		"history", cfg.Alerts.HistoryBackend,
	)
	return b, nil
}

// newProvider returns the plant API client, or the simulator when configured.
func newProvider(cfg *config.Config, effluent domain.EffluentThresholds, log *slog.Logger) engine.SnapshotProvider {
	if cfg.Upstream.Simulate {
		opts := []upstream.SimulatorOption{
			upstream.WithZoneCount(cfg.Upstream.Zones),
			upstream.WithEffluentBounds(effluent),
			upstream.WithSimulatorHorizon(cfg.Alerts.Horizon),
		}
		if cfg.Upstream.Seed != 0 {
			opts = append(opts, upstream.WithSeed(cfg.Upstream.Seed))
		}
		log.Warn("using simulated plant data")
		return upstream.NewSimulator(opts...)
	}

	return upstream.NewClient(cfg.Upstream.BaseURL,
		upstream.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		upstream.WithRateLimit(cfg.Upstream.RateLimit.PerSecond, cfg.Upstream.RateLimit.Burst),
		upstream.WithDefaultHorizon(cfg.Alerts.Horizon),
		upstream.WithLogger(log),
	)
}

// buildNotifier fans out to every enabled sink. With none enabled, alerts are
// only logged.
func buildNotifier(cfg config.NotificationsConfig, log *slog.Logger) (notify.Notifier, func() error, error) {
	var (
		sinks   notify.Multi
		closers []func() error
	)

	if cfg.Discord.Enabled {
		sinks = append(sinks, notify.NewDiscordNotifier(cfg.Discord.WebhookURL))
		log.Info("discord notifications enabled")
	}

	if cfg.Kafka.Enabled {
		k, err := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, fmt.Errorf("creating kafka notifier: %w", err)
		}
		sinks = append(sinks, k)
		closers = append(closers, k.Close)
		log.Info("kafka notifications enabled", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	switch len(sinks) {
	case 0:
		return notify.NewNoOpNotifier(log), closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	default:
		return sinks, closeAll, nil
	}
}
