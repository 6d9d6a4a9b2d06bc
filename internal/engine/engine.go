package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
	"github.com/donaldgifford/effluent-watch/internal/notify"
	"github.com/donaldgifford/effluent-watch/internal/store"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const (
	defaultFetchTimeout = 10 * time.Second
	defaultFeedCapacity = 50
	tracerName          = "github.com/donaldgifford/effluent-watch/internal/engine"
)

// ErrNoSnapshot is returned when re-evaluation is requested before any
// snapshot has been fetched.
var ErrNoSnapshot = errors.New("no snapshot available yet")

// Trigger names what started an evaluation cycle.
type Trigger string

// Trigger constants.
const (
	TriggerPoll      Trigger = "poll"
	TriggerThreshold Trigger = "threshold"
	TriggerManual    Trigger = "manual"
)

// SnapshotProvider supplies the plant readings for one cycle.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

// ThresholdSource supplies the current threshold configuration.
type ThresholdSource interface {
	Get(ctx context.Context) domain.Thresholds
}

// Publisher pushes cycle results to live consumers.
type Publisher interface {
	PublishStatus(report *domain.StatusReport)
	PublishAlerts(raised, feed []domain.AlertRecord)
}

// CycleResult is what one evaluation cycle produced.
type CycleResult struct {
	Trigger Trigger
	Report  *domain.StatusReport
	Raised  []domain.AlertRecord
	Trimmed int
}

// Monitor runs the fetch, evaluate, alert pipeline. Cycles are serialized so
// edge detection always sees reports in order; a poll tick and a threshold
// change never evaluate at the same time.
type Monitor struct {
	cycleMu sync.Mutex

	provider   SnapshotProvider
	thresholds ThresholdSource
	alerts     *AlertEngine
	feed       *Feed
	notifier   notify.Notifier
	history    store.AlertLog
	publisher  Publisher
	capacity   CapacityProbe
	log        *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	fetchTimeout time.Duration

	stateMu    sync.RWMutex
	lastSnap   *domain.Snapshot
	lastReport *domain.StatusReport
}

// MonitorOption configures the Monitor.
type MonitorOption func(*Monitor)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.log = l
	}
}

// WithClock overrides the time source stamped on reports and alerts.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.now = now
	}
}

// WithNotifier sets where raised alerts are delivered.
func WithNotifier(n notify.Notifier) MonitorOption {
	return func(m *Monitor) {
		m.notifier = n
	}
}

// WithHistory sets the alert history log.
func WithHistory(h store.AlertLog) MonitorOption {
	return func(m *Monitor) {
		m.history = h
	}
}

// WithPublisher sets the live push target.
func WithPublisher(p Publisher) MonitorOption {
	return func(m *Monitor) {
		m.publisher = p
	}
}

// WithCapacity sets the probe consulted after every feed update.
func WithCapacity(p CapacityProbe) MonitorOption {
	return func(m *Monitor) {
		m.capacity = p
	}
}

// WithFetchTimeout bounds each snapshot fetch.
func WithFetchTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// WithTracer sets the tracer used for cycle spans.
func WithTracer(t trace.Tracer) MonitorOption {
	return func(m *Monitor) {
		m.tracer = t
	}
}

// WithAlertEngine replaces the alert engine, e.g. to fix alert IDs in tests.
func WithAlertEngine(a *AlertEngine) MonitorOption {
	return func(m *Monitor) {
		m.alerts = a
		m.feed = a.Feed()
	}
}

// NewMonitor creates a Monitor with injected dependencies.
func NewMonitor(p SnapshotProvider, th ThresholdSource, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		provider:     p,
		thresholds:   th,
		log:          slog.Default(),
		now:          time.Now,
		capacity:     FixedCapacity(defaultFeedCapacity),
		fetchTimeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	if m.alerts == nil {
		m.feed = NewFeed()
		m.alerts = NewAlertEngine(m.feed, WithAlertLogger(m.log))
	}
	return m
}

// RunCycle fetches a fresh snapshot and evaluates it.
func (m *Monitor) RunCycle(ctx context.Context) (*CycleResult, error) {
	return m.fetchAndEvaluate(ctx, TriggerPoll)
}

// RunNow is RunCycle started by an operator rather than the scheduler.
func (m *Monitor) RunNow(ctx context.Context) (*CycleResult, error) {
	return m.fetchAndEvaluate(ctx, TriggerManual)
}

func (m *Monitor) fetchAndEvaluate(ctx context.Context, trigger Trigger) (*CycleResult, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	ctx, span := m.tracer.Start(ctx, "monitor.cycle",
		trace.WithAttributes(attribute.String("trigger", string(trigger))))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	snap, err := m.provider.Snapshot(fetchCtx)
	cancel()
	if err != nil {
		metrics.FetchErrorsTotal.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot fetch failed")
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}

	m.countMalformed(snap)

	m.stateMu.Lock()
	m.lastSnap = snap
	m.stateMu.Unlock()

	return m.evaluate(ctx, snap, trigger), nil
}

// Reevaluate runs the pipeline against the last fetched snapshot. It is
// called after a threshold change.
func (m *Monitor) Reevaluate(ctx context.Context) (*CycleResult, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	m.stateMu.RLock()
	snap := m.lastSnap
	m.stateMu.RUnlock()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	ctx, span := m.tracer.Start(ctx, "monitor.cycle",
		trace.WithAttributes(attribute.String("trigger", string(TriggerThreshold))))
	defer span.End()

	return m.evaluate(ctx, snap, TriggerThreshold), nil
}

// OnThresholdsChanged adapts Reevaluate to thresholds.Store.OnChange.
func (m *Monitor) OnThresholdsChanged(domain.Thresholds) {
	if _, err := m.Reevaluate(context.Background()); err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			m.log.Debug("threshold change before first snapshot, nothing to re-evaluate")
			return
		}
		m.log.Error("re-evaluation after threshold change failed", "error", err)
	}
}

// evaluate must be called with cycleMu held.
func (m *Monitor) evaluate(ctx context.Context, snap *domain.Snapshot, trigger Trigger) *CycleResult {
	now := m.now()
	th := m.thresholds.Get(ctx)

	report := Evaluate(snap, &th, now)
	raised := m.alerts.OnReport(report, &th, now)
	trimmed := m.feed.TrimTo(m.capacity)

	m.stateMu.Lock()
	m.lastReport = report
	m.stateMu.Unlock()

	m.record(report, raised, trigger)

	if m.publisher != nil {
		m.publisher.PublishStatus(report)
		if len(raised) > 0 {
			m.publisher.PublishAlerts(raised, m.feed.Items())
		}
	}

	if len(raised) > 0 {
		m.persist(ctx, raised)
		m.deliver(ctx, raised)
	}

	m.log.Debug("cycle complete",
		"trigger", trigger,
		"zones", len(report.Zones),
		"raised", len(raised),
		"trimmed", trimmed,
		"feed", m.feed.Len(),
	)

	return &CycleResult{
		Trigger: trigger,
		Report:  report,
		Raised:  raised,
		Trimmed: trimmed,
	}
}

func (m *Monitor) record(report *domain.StatusReport, raised []domain.AlertRecord, trigger Trigger) {
	metrics.CyclesTotal.WithLabelValues(string(trigger)).Inc()
	metrics.LastCycleTimestamp.Set(float64(report.EvaluatedAt.Unix()))
	for category, n := range report.AbnormalCount() {
		metrics.AbnormalGauge.WithLabelValues(string(category)).Set(float64(n))
	}
	for i := range raised {
		metrics.AlertsRaisedTotal.WithLabelValues(string(raised[i].Category)).Inc()
	}
	metrics.AlertFeedLength.Set(float64(m.feed.Len()))
}

func (m *Monitor) persist(ctx context.Context, raised []domain.AlertRecord) {
	if m.history == nil {
		return
	}
	if err := m.history.AppendAlerts(ctx, raised); err != nil {
		metrics.AlertHistoryFailuresTotal.Inc()
		m.log.Error("writing alert history failed", "count", len(raised), "error", err)
	}
}

func (m *Monitor) deliver(ctx context.Context, raised []domain.AlertRecord) {
	if m.notifier == nil {
		return
	}
	if err := SendAlerts(ctx, m.notifier, raised); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		m.log.Error("alert notification failed", "count", len(raised), "error", err)
	}
}

func (m *Monitor) countMalformed(snap *domain.Snapshot) {
	var n int
	for i := range snap.Zones {
		z := &snap.Zones[i]
		for _, stage := range domain.Stages {
			for _, sensor := range stage.Sensors() {
				if z.Reading(stage, sensor).Malformed() {
					n++
					m.log.Debug("malformed reading treated as no data",
						"zone", z.Zone, "stage", stage, "sensor", sensor)
				}
			}
		}
	}
	for _, p := range domain.Parameters {
		if snap.Effluent[p].Malformed() {
			n++
		}
		if snap.Prediction[p].Predicted.Malformed() {
			n++
		}
	}
	if n > 0 {
		metrics.MalformedReadingsTotal.Add(float64(n))
	}
}

// Latest returns the most recent report, if any cycle has completed.
func (m *Monitor) Latest() (*domain.StatusReport, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastReport, m.lastReport != nil
}

// LastSnapshot returns the most recently fetched snapshot.
func (m *Monitor) LastSnapshot() (*domain.Snapshot, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastSnap, m.lastSnap != nil
}

// Alerts returns the current feed, newest first.
func (m *Monitor) Alerts() []domain.AlertRecord {
	return m.feed.Items()
}

// TrimAlerts applies a consumer-supplied capacity and returns the feed. It
// waits for any in-flight cycle so a trim never races an update.
func (m *Monitor) TrimAlerts(slots int) []domain.AlertRecord {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	m.feed.Trim(slots)
	metrics.AlertFeedLength.Set(float64(m.feed.Len()))
	return m.feed.Items()
}

// Ready reports whether at least one snapshot has been evaluated.
func (m *Monitor) Ready() bool {
	_, ok := m.Latest()
	return ok
}
