// Package thresholds holds the live threshold configuration. Every change is
// saved through a store.ThresholdRepository before the call returns and is
// announced to registered listeners so the monitor can re-evaluate.
package thresholds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
	"github.com/donaldgifford/effluent-watch/internal/store"
	"github.com/donaldgifford/effluent-watch/pkg/status"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// DefaultActor is recorded as UpdatedBy when the context names nobody.
const DefaultActor = "operator"

type actorKey struct{}

// WithActor records who is making a change.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}

// Store is the in-memory threshold configuration backed by a repository.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	current   domain.Thresholds
	repo      store.ThresholdRepository
	listeners []func(domain.Thresholds)
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New loads the persisted configuration from repo. When nothing has been
// persisted it seeds the regulatory defaults and saves them; a failed seed
// save is logged and the defaults stay in effect.
func New(ctx context.Context, repo store.ThresholdRepository, opts ...Option) (*Store, error) {
	s := &Store{
		repo: repo,
		log:  slog.Default(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := repo.LoadThresholds(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.current = domain.DefaultThresholds()
		s.current.UpdatedAt = s.now()
		if err := repo.SaveThresholds(ctx, &s.current); err != nil {
			metrics.ThresholdPersistFailuresTotal.Inc()
			s.log.Warn("seeding default thresholds failed", "error", err)
		} else {
			s.log.Info("seeded default thresholds")
		}
	case err != nil:
		return nil, fmt.Errorf("loading thresholds: %w", err)
	default:
		s.current = fillMissing(loaded)
		s.log.Info("loaded thresholds",
			"updated_at", s.current.UpdatedAt,
			"updated_by", s.current.UpdatedBy,
		)
	}

	s.logIncompleteAll(&s.current)
	return s, nil
}

// fillMissing makes sure every stage and the effluent map exist so updates
// never write into a nil map.
func fillMissing(th *domain.Thresholds) domain.Thresholds {
	out := th.Clone()
	if out.Process == nil {
		out.Process = domain.ProcessThresholds{}
	}
	for _, stage := range domain.Stages {
		if out.Process[stage] == nil {
			out.Process[stage] = map[domain.Sensor]domain.Threshold{}
		}
	}
	if out.Effluent == nil {
		out.Effluent = domain.EffluentThresholds{}
	}
	return out
}

// OnChange registers fn to run after every applied change, including changes
// that failed to persist. fn receives a private copy.
func (s *Store) OnChange(fn func(domain.Thresholds)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns a deep copy of the current configuration.
func (s *Store) Get(_ context.Context) domain.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// UpdateProcess replaces one bound of a process sensor threshold. A nil value
// clears the bound.
func (s *Store) UpdateProcess(
	ctx context.Context,
	stage domain.Stage,
	sensor domain.Sensor,
	bound domain.Bound,
	value *float64,
) error {
	if err := validateProcessKey(stage, sensor); err != nil {
		return err
	}
	if err := validateBound(bound); err != nil {
		return err
	}

	return s.apply(ctx, domain.CategoryProcess, func(th *domain.Thresholds) {
		sensors := th.Process[stage]
		t := sensors[sensor].With(bound, value)
		sensors[sensor] = t
		if status.IncompleteProcess(t) {
			s.log.Warn("process threshold incomplete, sensor will always read normal",
				"stage", stage, "sensor", sensor)
		}
	})
}

// UpdateEffluent replaces one bound of an effluent parameter threshold. A nil
// value clears the bound.
func (s *Store) UpdateEffluent(
	ctx context.Context,
	param domain.Parameter,
	bound domain.Bound,
	value *float64,
) error {
	if !param.Valid() {
		return &InvalidKeyError{Field: "parameter", Value: string(param), Hint: "want toc, ss, tn or tp"}
	}
	if err := validateBound(bound); err != nil {
		return err
	}

	return s.apply(ctx, domain.CategoryEffluent, func(th *domain.Thresholds) {
		t := th.Effluent[param].With(bound, value)
		th.Effluent[param] = t
		if status.IncompleteEffluent(t) {
			s.log.Warn("effluent threshold has no upper bound, parameter will always read normal",
				"parameter", param)
		}
	})
}

// Replace merges a category from th into the current configuration. Process
// thresholds are replaced per stage and effluent thresholds per parameter;
// stages and parameters absent from th keep their values. Every key is
// validated first; on any invalid key nothing changes.
func (s *Store) Replace(ctx context.Context, category domain.Category, th domain.Thresholds) error {
	switch category {
	case domain.CategoryProcess:
		for stage, sensors := range th.Process {
			if !stage.Valid() {
				return &InvalidKeyError{Field: "stage", Value: string(stage), Hint: "want anaerobic, anoxic or aerobic"}
			}
			for sensor := range sensors {
				if err := validateProcessKey(stage, sensor); err != nil {
					return err
				}
			}
		}
		process := th.Process.Clone()
		return s.apply(ctx, category, func(cur *domain.Thresholds) {
			for stage, sensors := range process {
				cur.Process[stage] = sensors
			}
			s.logIncompleteAll(cur)
		})

	case domain.CategoryEffluent:
		for param := range th.Effluent {
			if !param.Valid() {
				return &InvalidKeyError{Field: "parameter", Value: string(param)}
			}
		}
		effluent := th.Effluent.Clone()
		return s.apply(ctx, category, func(cur *domain.Thresholds) {
			for param, t := range effluent {
				cur.Effluent[param] = t
			}
			s.logIncompleteAll(cur)
		})

	default:
		return &InvalidKeyError{Field: "category", Value: string(category), Hint: "want process or effluent"}
	}
}

// Ping reports the health of the backing repository when it supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.repo.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// apply mutates the configuration, saves it and notifies listeners. The save
// happens under the write lock so concurrent updates persist in order.
func (s *Store) apply(ctx context.Context, category domain.Category, mutate func(*domain.Thresholds)) error {
	s.mu.Lock()
	mutate(&s.current)
	s.current.UpdatedAt = s.now()
	s.current.UpdatedBy = actorFrom(ctx)
	metrics.ThresholdUpdatesTotal.WithLabelValues(string(category)).Inc()

	var saveErr error
	if err := s.repo.SaveThresholds(ctx, &s.current); err != nil {
		metrics.ThresholdPersistFailuresTotal.Inc()
		s.log.Error("threshold change applied but not saved",
			"category", category, "error", err)
		saveErr = fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	snapshot := s.current.Clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.Clone())
	}
	return saveErr
}

func (s *Store) logIncompleteAll(th *domain.Thresholds) {
	for _, stage := range domain.Stages {
		for _, sensor := range stage.Sensors() {
			t, ok := th.Process.Lookup(stage, sensor)
			if !ok || status.IncompleteProcess(t) {
				s.log.Warn("process threshold incomplete, sensor will always read normal",
					"stage", stage, "sensor", sensor)
			}
		}
	}
	for _, p := range domain.Parameters {
		if status.IncompleteEffluent(th.Effluent[p]) {
			s.log.Warn("effluent threshold has no upper bound, parameter will always read normal",
				"parameter", p)
		}
	}
}

func validateProcessKey(stage domain.Stage, sensor domain.Sensor) error {
	if !stage.Valid() {
		return &InvalidKeyError{Field: "stage", Value: string(stage), Hint: "want anaerobic, anoxic or aerobic"}
	}
	if !stage.HasSensor(sensor) {
		return &InvalidKeyError{
			Field: "sensor",
			Value: string(sensor),
			Hint:  fmt.Sprintf("not installed in %s stage", stage),
		}
	}
	return nil
}

func validateBound(b domain.Bound) error {
	if !b.Valid() {
		return &InvalidKeyError{Field: "bound", Value: string(b), Hint: "want upper or lower"}
	}
	return nil
}
