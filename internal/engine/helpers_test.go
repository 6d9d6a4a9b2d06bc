package engine

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

// sequentialIDs returns an ID generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var zoneNames = []string{"1지", "2지", "3지", "4지", "5지"}

// normalSnapshot returns five zones and effluent values that are all within
// the default thresholds. ORP readings are "-" because the default ORP bands
// have upper below lower.
func normalSnapshot() *domain.Snapshot {
	snap := &domain.Snapshot{
		Horizon:   3 * time.Hour,
		FetchedAt: testNow,
		Effluent: domain.EffluentSnapshot{
			domain.ParameterTOC: domain.Value(15.8),
			domain.ParameterSS:  domain.Value(4.2),
			domain.ParameterTN:  domain.Value(12.5),
			domain.ParameterTP:  domain.Value(0.8),
		},
		Prediction: domain.PredictionSnapshot{
			domain.ParameterTOC: {Current: domain.Value(15.8), Predicted: domain.Value(16.1)},
			domain.ParameterSS:  {Current: domain.Value(4.2), Predicted: domain.Value(4.0)},
			domain.ParameterTN:  {Current: domain.Value(12.5), Predicted: domain.Value(13.0)},
			domain.ParameterTP:  {Current: domain.Value(0.8), Predicted: domain.Value(0.9)},
		},
	}
	for _, name := range zoneNames {
		snap.Zones = append(snap.Zones, domain.ZoneSnapshot{
			Zone: name,
			Anaerobic: domain.StageReadings{
				domain.SensorORP: domain.RawReading("-"),
				domain.SensorPH:  domain.Value(6.8),
			},
			Anoxic: domain.StageReadings{
				domain.SensorORP: domain.RawReading("-"),
				domain.SensorPH:  domain.Value(6.9),
			},
			Aerobic: domain.StageReadings{
				domain.SensorDO:   domain.Value(4.1),
				domain.SensorPH:   domain.Value(6.7),
				domain.SensorMLSS: domain.Value(7500),
			},
		})
	}
	return snap
}

func defaultThresholds() *domain.Thresholds {
	th := domain.DefaultThresholds()
	return &th
}

// withMLSS returns a copy of snap with zone 1 aerobic MLSS set to v.
func withMLSS(snap *domain.Snapshot, v float64) *domain.Snapshot {
	out := *snap
	out.Zones = make([]domain.ZoneSnapshot, len(snap.Zones))
	copy(out.Zones, snap.Zones)
	aerobic := domain.StageReadings{}
	for k, r := range snap.Zones[0].Aerobic {
		aerobic[k] = r
	}
	aerobic[domain.SensorMLSS] = domain.Value(v)
	out.Zones[0].Aerobic = aerobic
	return &out
}
