package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func TestReading_Float(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{name: "number", raw: `6.7`, want: 6.7, wantOK: true},
		{name: "negative number", raw: `-303.4`, want: -303.4, wantOK: true},
		{name: "zero is data", raw: `0`, want: 0, wantOK: true},
		{name: "numeric string", raw: `"15.8"`, want: 15.8, wantOK: true},
		{name: "placeholder", raw: `"-"`, wantOK: false},
		{name: "null", raw: `null`, wantOK: false},
		{name: "empty string", raw: `""`, wantOK: false},
		{name: "text", raw: `"offline"`, wantOK: false},
		{name: "bool", raw: `true`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var r domain.Reading
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))

			got, ok := r.Float()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestReading_Malformed(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.NoData().Malformed())
	assert.False(t, domain.RawReading("-").Malformed())
	assert.False(t, domain.Value(1).Malformed())
	assert.True(t, domain.RawReading("offline").Malformed())
}

func TestReading_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(map[string]domain.Reading{
		"a": domain.Value(5.12),
		"b": domain.RawReading("-"),
		"c": domain.NoData(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":5.12,"b":null,"c":null}`, string(data))
}

func TestZoneSnapshot_Decode(t *testing.T) {
	t.Parallel()

	raw := `{"zone":"2지","anaerobic":{"orp":"-","ph":null},"anoxic":{"orp":-313.6,"ph":6.7},"aerobic":{"do":5.12,"ph":6.58}}`

	var z domain.ZoneSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &z))

	assert.Equal(t, "2지", z.Zone)
	assert.True(t, z.Reading(domain.StageAnaerobic, domain.SensorORP).IsNoData())
	assert.True(t, z.Reading(domain.StageAerobic, domain.SensorMLSS).IsNoData())

	v, ok := z.Reading(domain.StageAnoxic, domain.SensorORP).Float()
	require.True(t, ok)
	assert.InDelta(t, -313.6, v, 1e-9)
}

func TestStage_Sensors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []domain.Sensor{domain.SensorORP, domain.SensorPH}, domain.StageAnaerobic.Sensors())
	assert.Equal(t, []domain.Sensor{domain.SensorORP, domain.SensorPH}, domain.StageAnoxic.Sensors())
	assert.Equal(
		t,
		[]domain.Sensor{domain.SensorDO, domain.SensorPH, domain.SensorMLSS},
		domain.StageAerobic.Sensors(),
	)
	assert.False(t, domain.StageAnaerobic.HasSensor(domain.SensorMLSS))
	assert.True(t, domain.StageAerobic.HasSensor(domain.SensorDO))
	assert.False(t, domain.Stage("primary").Valid())
}

func TestParseParameter(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]domain.Parameter{
		"toc": domain.ParameterTOC,
		"SS":  domain.ParameterSS,
		"T-N": domain.ParameterTN,
		"TN":  domain.ParameterTN,
		"T-P": domain.ParameterTP,
	} {
		got, ok := domain.ParseParameter(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := domain.ParseParameter("bod")
	assert.False(t, ok)
}

func TestDefaultThresholds(t *testing.T) {
	t.Parallel()

	th := domain.DefaultThresholds()

	orp, ok := th.Process.Lookup(domain.StageAnaerobic, domain.SensorORP)
	require.True(t, ok)
	assert.InDelta(t, -350, *orp.Upper, 0)
	assert.InDelta(t, -250, *orp.Lower, 0)

	mlss, ok := th.Process.Lookup(domain.StageAerobic, domain.SensorMLSS)
	require.True(t, ok)
	assert.InDelta(t, 9000, *mlss.Upper, 0)

	for _, stage := range domain.Stages {
		assert.Len(t, th.Process[stage], len(stage.Sensors()), stage)
	}

	assert.InDelta(t, 2, *th.Effluent[domain.ParameterTP].Upper, 0)
	assert.InDelta(t, 0, *th.Effluent[domain.ParameterTP].Lower, 0)
}

func TestThresholds_CloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := domain.DefaultThresholds()
	orig.UpdatedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	c := orig.Clone()
	*c.Process[domain.StageAerobic][domain.SensorDO].Upper = 99
	*c.Effluent[domain.ParameterTOC].Upper = 99
	c.Process[domain.StageAnoxic][domain.SensorPH] = domain.Threshold{}

	assert.InDelta(t, 5.0, *orig.Process[domain.StageAerobic][domain.SensorDO].Upper, 0)
	assert.InDelta(t, 25.0, *orig.Effluent[domain.ParameterTOC].Upper, 0)
	assert.True(t, orig.Process[domain.StageAnoxic][domain.SensorPH].Complete())
	assert.Equal(t, orig.UpdatedAt, c.UpdatedAt)
}

func TestThreshold_With(t *testing.T) {
	t.Parallel()

	v := 8.0
	th := domain.NewThreshold(7, 6.5).With(domain.BoundUpper, &v)
	v = 100

	assert.InDelta(t, 8.0, *th.Get(domain.BoundUpper), 0)
	assert.InDelta(t, 6.5, *th.Get(domain.BoundLower), 0)

	cleared := th.With(domain.BoundLower, nil)
	assert.Nil(t, cleared.Lower)
	assert.False(t, cleared.Complete())
}

func TestAlertKey_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "process/1지/aerobic/mlss",
		domain.ProcessKey("1지", domain.StageAerobic, domain.SensorMLSS).String())
	assert.Equal(t, "effluent/toc", domain.EffluentKey(domain.ParameterTOC).String())
	assert.Equal(t, "prediction/toc", domain.PredictionKey(domain.ParameterTOC).String())
	assert.NotEqual(t, domain.EffluentKey(domain.ParameterTOC), domain.PredictionKey(domain.ParameterTOC))
}
