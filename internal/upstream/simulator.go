package upstream

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const (
	defaultZoneCount = 5

	effluentExcursionRate   = 0.10
	predictionExcursionRate = 0.15
)

type valueRange struct{ lo, hi float64 }

// Sensor ranges of a healthy plant.
var (
	anaerobicORPRange = valueRange{-320, -290}
	anaerobicPHRange  = valueRange{6.8, 7.2}
	anoxicORPRange    = valueRange{-330, -300}
	anoxicPHRange     = valueRange{6.5, 7.0}
	aerobicPHRange    = valueRange{6.3, 6.8}
	aerobicDORange    = valueRange{4.0, 6.0}
	mlssRange         = valueRange{5500, 7500}
)

// Daily flow rate and accumulated volume per metering point, in ㎥.
var flowRanges = map[domain.FlowPoint][2]valueRange{
	domain.FlowInflow:           {{12000, 15000}, {8_000_000, 10_000_000}},
	domain.FlowBioreactorInflow: {{9000, 11000}, {15_000_000, 18_000_000}},
	domain.FlowEffluent:         {{12000, 15000}, {6_000_000, 7_000_000}},
}

var tmsRanges = map[domain.Parameter]valueRange{
	domain.ParameterTOC: {14, 18},
	domain.ParameterSS:  {4, 7},
	domain.ParameterTN:  {16, 19},
	domain.ParameterTP:  {0.7, 1.2},
}

// forecastRanges holds the current-value range and the drift applied to get
// the predicted value.
var forecastRanges = map[domain.Parameter][2]valueRange{
	domain.ParameterTOC: {{15, 17}, {-1, 1.5}},
	domain.ParameterSS:  {{4.5, 6}, {-0.5, 1}},
	domain.ParameterTN:  {{17, 19}, {-0.5, 1.5}},
	domain.ParameterTP:  {{0.8, 1.1}, {-0.1, 0.3}},
}

// Simulator generates plausible plant data. Only zones 1 and 4 carry an
// anaerobic ORP probe and MLSS, and only zone 4 an anaerobic pH probe.
// Effluent and forecast values occasionally exceed their upper bound.
type Simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	zoneCount int
	effluent  domain.EffluentThresholds
	horizon   time.Duration
	now       func() time.Time
}

// SimulatorOption configures the Simulator.
type SimulatorOption func(*Simulator)

// WithSeed makes the generated sequence reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithZoneCount overrides the number of zones.
func WithZoneCount(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.zoneCount = n
		}
	}
}

// WithEffluentBounds sets the bounds excursions are generated against.
func WithEffluentBounds(th domain.EffluentThresholds) SimulatorOption {
	return func(s *Simulator) {
		s.effluent = th.Clone()
	}
}

// WithSimulatorHorizon sets the forecast horizon.
func WithSimulatorHorizon(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// WithSimulatorClock overrides the time source.
func WithSimulatorClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) {
		s.now = now
	}
}

// NewSimulator creates a Simulator seeded from the runtime unless WithSeed is
// given.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		zoneCount: defaultZoneCount,
		effluent:  domain.DefaultThresholds().Effluent,
		horizon:   domain.DefaultHorizon,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot implements engine.SnapshotProvider.
func (s *Simulator) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	zones := s.ZoneData(now)
	tms := s.TMS(now)
	forecast := s.Forecast(now)
	snap := BuildSnapshot(zones, tms, forecast, s.horizon, now)
	snap.Flows = s.ProcessStatus(now).Flows()
	return snap, nil
}

// ProcessStatus generates a process-status payload with whole-number flows.
func (s *Simulator) ProcessStatus(now time.Time) *ProcessStatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow := func(p domain.FlowPoint) FlowPayload {
		r := flowRanges[p]
		return FlowPayload{Total: s.sample(r[0], 0), Accumulated: s.sample(r[1], 0)}
	}
	return &ProcessStatusResponse{
		Timestamp:        now.Format(time.RFC3339),
		Inflow:           flow(domain.FlowInflow),
		BiologicalInflow: flow(domain.FlowBioreactorInflow),
		Effluent:         flow(domain.FlowEffluent),
	}
}

// ZoneData generates a zone-data payload.
func (s *Simulator) ZoneData(now time.Time) *ZoneDataResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &ZoneDataResponse{
		Timestamp: now.Format(time.RFC3339Nano),
		Zones:     make([]ZonePayload, 0, s.zoneCount),
	}
	for i := 1; i <= s.zoneCount; i++ {
		probed := i == 1 || i == 4
		z := ZonePayload{
			Zone: fmt.Sprintf("%d지", i),
			Anaerobic: StagePayload{
				ORP: s.maybe(probed, anaerobicORPRange, 1),
				PH:  s.maybe(i == 4, anaerobicPHRange, 2),
			},
			Anoxic: StagePayload{
				ORP: s.sample(anoxicORPRange, 1),
				PH:  s.sample(anoxicPHRange, 2),
			},
			Aerobic: StagePayload{
				PH:   s.sample(aerobicPHRange, 2),
				DO:   s.sample(aerobicDORange, 2),
				MLSS: s.maybe(probed, mlssRange, 1),
			},
		}
		resp.Zones = append(resp.Zones, z)
	}
	return resp
}

// TMS generates a measured effluent payload.
func (s *Simulator) TMS(now time.Time) *TMSResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &TMSResponse{
		Timestamp:  now.Format(time.RFC3339Nano),
		Parameters: make(map[string]TMSValue, len(domain.Parameters)),
	}
	for _, p := range domain.Parameters {
		v := round(s.uniform(tmsRanges[p]), 1)
		if s.rng.Float64() < effluentExcursionRate {
			v = s.excursion(p, v)
		}
		resp.Parameters[wireLabel(p)] = TMSValue{Value: domain.Value(v), Unit: domain.EffluentUnit}
	}
	return resp
}

// Forecast generates a forecast payload for the configured horizon.
func (s *Simulator) Forecast(now time.Time) *ForecastResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &ForecastResponse{
		Timestamp:    now.Format(time.RFC3339Nano),
		ForecastTime: now.Add(s.horizon).Format(time.RFC3339Nano),
		Predictions:  make([]ForecastEntry, 0, len(domain.Parameters)),
	}
	for _, p := range domain.Parameters {
		r := forecastRanges[p]
		current := round(s.uniform(r[0]), 1)
		predicted := round(current+s.uniform(r[1]), 1)
		if s.rng.Float64() < predictionExcursionRate {
			predicted = s.excursion(p, predicted)
		}
		resp.Predictions = append(resp.Predictions, ForecastEntry{
			Parameter: p.DisplayName(),
			Current:   domain.Value(current),
			Predicted: domain.Value(predicted),
			Unit:      domain.EffluentUnit,
		})
	}
	return resp
}

func (s *Simulator) excursion(p domain.Parameter, fallback float64) float64 {
	th, ok := s.effluent[p]
	if !ok || th.Upper == nil {
		return fallback
	}
	return round(*th.Upper+s.uniform(valueRange{0.5, 2}), 1)
}

func (s *Simulator) maybe(installed bool, r valueRange, decimals int) domain.Reading {
	if !installed {
		return domain.NoData()
	}
	return s.sample(r, decimals)
}

func (s *Simulator) sample(r valueRange, decimals int) domain.Reading {
	return domain.Value(round(s.uniform(r), decimals))
}

func (s *Simulator) uniform(r valueRange) float64 {
	return r.lo + s.rng.Float64()*(r.hi-r.lo)
}

// wireLabel is the TMS key, which drops the hyphen (TN, TP).
func wireLabel(p domain.Parameter) string {
	switch p {
	case domain.ParameterTN:
		return "TN"
	case domain.ParameterTP:
		return "TP"
	default:
		return p.DisplayName()
	}
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
