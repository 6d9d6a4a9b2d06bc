package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
	"github.com/donaldgifford/effluent-watch/internal/store"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

type fakeProvider struct {
	mu    sync.Mutex
	snaps []*domain.Snapshot
	calls int
	err   error
}

func (f *fakeProvider) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("fetch context has no deadline")
	}
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	i := min(f.calls-1, len(f.snaps)-1)
	return f.snaps[i], nil
}

type fakeThresholds struct {
	mu sync.Mutex
	th domain.Thresholds
}

func (f *fakeThresholds) Get(context.Context) domain.Thresholds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.th.Clone()
}

func (f *fakeThresholds) set(th *domain.Thresholds) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.th = th.Clone()
}

type recordingNotifier struct {
	mu      sync.Mutex
	singles []domain.AlertRecord
	batches [][]domain.AlertRecord
	err     error
}

func (r *recordingNotifier) SendAlert(_ context.Context, a *domain.AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.singles = append(r.singles, *a)
	return r.err
}

func (r *recordingNotifier) SendBatchAlert(_ context.Context, as []domain.AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, as)
	return r.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	statuses int
	raised   [][]domain.AlertRecord
	feeds    [][]domain.AlertRecord
}

func (p *recordingPublisher) PublishStatus(*domain.StatusReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses++
}

func (p *recordingPublisher) PublishAlerts(raised, feed []domain.AlertRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raised = append(p.raised, raised)
	p.feeds = append(p.feeds, feed)
}

type failingLog struct{}

func (failingLog) AppendAlerts(context.Context, []domain.AlertRecord) error {
	return errors.New("history unavailable")
}

func (failingLog) ListAlerts(context.Context, *store.AlertQuery) ([]domain.AlertRecord, error) {
	return nil, nil
}

type testMonitor struct {
	*Monitor
	provider   *fakeProvider
	thresholds *fakeThresholds
	notifier   *recordingNotifier
	publisher  *recordingPublisher
	history    *store.MemoryAlertLog
}

func newTestMonitor(t *testing.T, snaps []*domain.Snapshot, opts ...MonitorOption) *testMonitor {
	t.Helper()

	tm := &testMonitor{
		provider:   &fakeProvider{snaps: snaps},
		thresholds: &fakeThresholds{th: *defaultThresholds()},
		notifier:   &recordingNotifier{},
		publisher:  &recordingPublisher{},
		history:    store.NewMemoryAlertLog(100),
	}
	base := []MonitorOption{
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return testNow }),
		WithNotifier(tm.notifier),
		WithPublisher(tm.publisher),
		WithHistory(tm.history),
		WithAlertEngine(NewAlertEngine(NewFeed(),
			WithIDGenerator(sequentialIDs()),
			WithAlertLogger(quietLogger()),
		)),
	}
	tm.Monitor = NewMonitor(tm.provider, tm.thresholds, append(base, opts...)...)
	return tm
}

func TestMonitor_RunCycle(t *testing.T) {
	t.Parallel()

	tm := newTestMonitor(t, []*domain.Snapshot{
		withMLSS(normalSnapshot(), 6687.3),
		withMLSS(normalSnapshot(), 6687.3),
		withMLSS(normalSnapshot(), 5500),
		withMLSS(normalSnapshot(), 6700),
	})
	tm.thresholds.set(customMLSSThresholds())
	ctx := context.Background()

	assert.False(t, tm.Ready())

	var raised []int
	for range 4 {
		res, err := tm.RunCycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, TriggerPoll, res.Trigger)
		raised = append(raised, len(res.Raised))
	}
	assert.Equal(t, []int{1, 0, 0, 1}, raised)

	assert.True(t, tm.Ready())
	report, ok := tm.Latest()
	require.True(t, ok)
	mlss, _ := report.Zones[0].Lookup(domain.StageAerobic, domain.SensorMLSS)
	assert.Equal(t, domain.StatusAbnormal, mlss.Status)

	assert.Len(t, tm.Alerts(), 2)
	assert.Len(t, tm.notifier.singles, 2)
	assert.Empty(t, tm.notifier.batches)
	assert.Equal(t, 4, tm.publisher.statuses)
	assert.Len(t, tm.publisher.raised, 2)

	history, err := tm.history.ListAlerts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestMonitor_FetchError(t *testing.T) {
	t.Parallel()

	tm := newTestMonitor(t, nil)
	tm.provider.err = errors.New("upstream 502")

	before := ptestutil.ToFloat64(metrics.FetchErrorsTotal)
	_, err := tm.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching snapshot")
	assert.Greater(t, ptestutil.ToFloat64(metrics.FetchErrorsTotal), before)
	assert.False(t, tm.Ready())
}

func TestMonitor_ReevaluateUsesLastSnapshot(t *testing.T) {
	t.Parallel()

	tm := newTestMonitor(t, []*domain.Snapshot{withMLSS(normalSnapshot(), 7500)})
	ctx := context.Background()

	_, err := tm.Reevaluate(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	res, err := tm.RunCycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Raised, "7500 is inside the default MLSS band")

	// Tighten MLSS so 7500 is now out of range.
	tm.thresholds.set(customMLSSThresholds())
	res, err = tm.Reevaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, TriggerThreshold, res.Trigger)
	require.Len(t, res.Raised, 5, "every zone reads 7500")
	assert.Equal(t, 1, tm.provider.calls, "re-evaluation must not refetch")
}

func TestMonitor_OnThresholdsChanged(t *testing.T) {
	t.Parallel()

	tm := newTestMonitor(t, []*domain.Snapshot{normalSnapshot()})

	// Before any snapshot this is a quiet no-op.
	tm.OnThresholdsChanged(domain.Thresholds{})
	assert.False(t, tm.Ready())

	_, err := tm.RunCycle(context.Background())
	require.NoError(t, err)

	th := defaultThresholds()
	th.Effluent[domain.ParameterTOC] = domain.NewThreshold(10, 0)
	tm.thresholds.set(th)
	tm.OnThresholdsChanged(*th)

	feed := tm.Alerts()
	require.Len(t, feed, 2, "measured and predicted TOC both exceed 10")
	assert.Equal(t, domain.EffluentKey(domain.ParameterTOC), feed[0].Key)
	assert.Equal(t, domain.PredictionKey(domain.ParameterTOC), feed[1].Key)
}

func TestMonitor_CapacityTrim(t *testing.T) {
	t.Parallel()

	// Each cycle toggles every zone's MLSS so 5 new alerts rise every other cycle.
	var snaps []*domain.Snapshot
	for i := range 6 {
		if i%2 == 0 {
			s := normalSnapshot()
			for z := range s.Zones {
				s.Zones[z].Aerobic[domain.SensorMLSS] = domain.Value(9999)
			}
			snaps = append(snaps, s)
		} else {
			snaps = append(snaps, normalSnapshot())
		}
	}

	tm := newTestMonitor(t, snaps, WithCapacity(FixedCapacity(8)))
	for range 6 {
		_, err := tm.RunCycle(context.Background())
		require.NoError(t, err)
	}

	feed := tm.Alerts()
	require.Len(t, feed, 8)
	assert.Equal(t, []string{
		"id-11", "id-12", "id-13", "id-14", "id-15",
		"id-6", "id-7", "id-8",
	}, ids(feed), "newest block first, oldest dropped")
	assert.Len(t, tm.notifier.batches, 3, "five alerts per cycle go as a batch")
}

func TestMonitor_TrimAlerts(t *testing.T) {
	t.Parallel()

	s := normalSnapshot()
	for _, p := range domain.Parameters {
		s.Effluent[p] = domain.Value(100)
	}
	tm := newTestMonitor(t, []*domain.Snapshot{s})
	_, err := tm.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, tm.Alerts(), 4)

	feed := tm.TrimAlerts(2)
	require.Len(t, feed, 2)
	assert.Equal(t, domain.EffluentKey(domain.ParameterTOC), feed[0].Key)
	assert.Equal(t, domain.EffluentKey(domain.ParameterSS), feed[1].Key)
}

func TestMonitor_SideEffectFailuresDoNotFailCycle(t *testing.T) {
	t.Parallel()

	tm := newTestMonitor(t, []*domain.Snapshot{withMLSS(normalSnapshot(), 6687.3)},
		WithHistory(failingLog{}))
	tm.thresholds.set(customMLSSThresholds())
	tm.notifier.err = errors.New("webhook down")

	before := ptestutil.ToFloat64(metrics.NotificationFailuresTotal)
	res, err := tm.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Raised, 1)
	assert.Greater(t, ptestutil.ToFloat64(metrics.NotificationFailuresTotal), before)
}

func TestMonitor_SerializesCycles(t *testing.T) {
	t.Parallel()

	tm := newTestMonitor(t, []*domain.Snapshot{withMLSS(normalSnapshot(), 6687.3)})
	tm.thresholds.set(customMLSSThresholds())
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if res, err := tm.RunCycle(ctx); err == nil {
				mu.Lock()
				total += len(res.Raised)
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			if res, err := tm.Reevaluate(ctx); err == nil {
				mu.Lock()
				total += len(res.Raised)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total, "a sustained abnormal key alerts exactly once")
	assert.Len(t, tm.Alerts(), 1)
}

func TestMonitor_MalformedReadingsCounted(t *testing.T) {
	t.Parallel()

	s := normalSnapshot()
	s.Zones[1].Aerobic[domain.SensorDO] = domain.RawReading("sensor fault")
	tm := newTestMonitor(t, []*domain.Snapshot{s})

	before := ptestutil.ToFloat64(metrics.MalformedReadingsTotal)
	res, err := tm.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Raised)
	assert.GreaterOrEqual(t, ptestutil.ToFloat64(metrics.MalformedReadingsTotal), before+1)
}
