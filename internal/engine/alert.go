package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/donaldgifford/effluent-watch/pkg/numfmt"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// AlertEngine turns status reports into edge-triggered alert records. A key
// raises an alert only on the cycle it moves from normal (or unseen) to
// abnormal; it must return to normal before it can raise again.
//
// AlertEngine is not safe for concurrent use. Monitor serializes access.
type AlertEngine struct {
	previous map[domain.AlertKey]struct{}
	feed     *Feed
	newID    func() string
	log      *slog.Logger
}

// AlertOption configures an AlertEngine.
type AlertOption func(*AlertEngine)

// WithIDGenerator overrides how alert IDs are minted.
func WithIDGenerator(fn func() string) AlertOption {
	return func(a *AlertEngine) {
		a.newID = fn
	}
}

// WithAlertLogger sets the logger used by the alert engine.
func WithAlertLogger(l *slog.Logger) AlertOption {
	return func(a *AlertEngine) {
		a.log = l
	}
}

// NewAlertEngine returns an engine writing into feed.
func NewAlertEngine(feed *Feed, opts ...AlertOption) *AlertEngine {
	a := &AlertEngine{
		previous: make(map[domain.AlertKey]struct{}),
		feed:     feed,
		newID:    uuid.NewString,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed returns the feed the engine writes to.
func (a *AlertEngine) Feed() *Feed {
	return a.feed
}

// Active reports whether key was abnormal in the last processed report.
func (a *AlertEngine) Active(key domain.AlertKey) bool {
	_, ok := a.previous[key]
	return ok
}

// ActiveCount returns how many keys were abnormal in the last report.
func (a *AlertEngine) ActiveCount() int {
	return len(a.previous)
}

// OnReport diffs report against the previous cycle, prepends an alert for
// every rising edge to the feed and returns the new records in discovery
// order. Capacity trimming is a separate step (see Feed.TrimTo).
//
// Messages read the threshold snapshot carried by each status entry, not th;
// th only labels the debug log and may be nil.
func (a *AlertEngine) OnReport(
	report *domain.StatusReport,
	th *domain.Thresholds,
	now time.Time,
) []domain.AlertRecord {
	current := make(map[domain.AlertKey]struct{})
	var raised []domain.AlertRecord

	for i := range report.Zones {
		zone := &report.Zones[i]
		for _, s := range zone.Sensors {
			if s.Status != domain.StatusAbnormal {
				continue
			}
			key := domain.ProcessKey(zone.Zone, s.Stage, s.Sensor)
			current[key] = struct{}{}
			if a.Active(key) {
				continue
			}
			raised = append(raised, a.record(key, now, processMessage(zone.Zone, &s)))
		}
	}

	for i := range report.Effluent {
		p := &report.Effluent[i]
		if p.Status != domain.StatusAbnormal {
			continue
		}
		key := domain.EffluentKey(p.Parameter)
		current[key] = struct{}{}
		if a.Active(key) {
			continue
		}
		raised = append(raised, a.record(key, now, effluentMessage(p)))
	}

	horizon := report.Horizon
	if horizon <= 0 {
		horizon = domain.DefaultHorizon
	}
	for i := range report.Prediction {
		p := &report.Prediction[i]
		if p.Status != domain.StatusAbnormal {
			continue
		}
		key := domain.PredictionKey(p.Parameter)
		current[key] = struct{}{}
		if a.Active(key) {
			continue
		}
		raised = append(raised, a.record(key, now, predictionMessage(p, horizon)))
	}

	a.previous = current
	a.feed.Prepend(raised...)

	if len(raised) > 0 {
		updatedBy := ""
		if th != nil {
			updatedBy = th.UpdatedBy
		}
		a.log.Debug("alerts raised",
			"count", len(raised),
			"active", len(current),
			"updated_by", updatedBy,
		)
	}
	return raised
}

// Reset forgets every active key so that abnormal quantities raise again on
// the next report.
func (a *AlertEngine) Reset() {
	a.previous = make(map[domain.AlertKey]struct{})
}

func (a *AlertEngine) record(key domain.AlertKey, now time.Time, msg string) domain.AlertRecord {
	return domain.AlertRecord{
		ID:        a.newID(),
		Timestamp: now,
		Severity:  domain.SeverityAbnormal,
		Category:  key.Kind,
		Key:       key,
		Message:   msg,
	}
}

func processMessage(zone string, s *domain.SensorStatus) string {
	return fmt.Sprintf("[비정상] %s %s %s %s (범위: %s~%s)",
		zone,
		s.Stage.DisplayName(),
		s.Sensor.DisplayName(),
		numfmt.Reading(s.Value, numfmt.Sensor),
		numfmt.Bound(s.Threshold.Lower, numfmt.Sensor),
		numfmt.Bound(s.Threshold.Upper, numfmt.Sensor),
	)
}

func effluentMessage(p *domain.ParameterStatus) string {
	return fmt.Sprintf("[비정상] 방류 %s %s %s (상한 %s 초과)",
		p.Parameter.DisplayName(),
		numfmt.Reading(p.Value, numfmt.OneDecimal),
		domain.EffluentUnit,
		numfmt.Bound(p.Threshold.Upper, numfmt.OneDecimal),
	)
}

func predictionMessage(p *domain.ParameterStatus, horizon time.Duration) string {
	return fmt.Sprintf("[비정상] %s 예측값 %s %s (상한 %s 초과 예상, %s 후)",
		p.Parameter.DisplayName(),
		numfmt.Reading(p.Value, numfmt.OneDecimal),
		domain.EffluentUnit,
		numfmt.Bound(p.Threshold.Upper, numfmt.OneDecimal),
		FormatHorizon(horizon),
	)
}

// FormatHorizon renders a forecast horizon the way operators read it: whole
// hours as "3시간", anything else in minutes ("90분").
func FormatHorizon(d time.Duration) string {
	if d <= 0 {
		d = domain.DefaultHorizon
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d시간", int(d/time.Hour))
	}
	return fmt.Sprintf("%d분", int(d.Round(time.Minute)/time.Minute))
}
