package numfmt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/donaldgifford/effluent-watch/pkg/numfmt"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

func TestNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "millions", in: 1234567, want: "1,234,567"},
		{name: "thousands with fraction", in: 1234.5, want: "1,234.5"},
		{name: "small", in: 42, want: "42"},
		{name: "zero", in: 0, want: "0"},
		{name: "negative", in: -9000, want: "-9,000"},
		{name: "rounds to three digits", in: 1.23456, want: "1.235"},
		{name: "exact hundreds", in: 100, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, numfmt.Number(tt.in))
		})
	}
}

func TestSensor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "integer gets separators", in: 9000, want: "9,000"},
		{name: "negative integer", in: -250, want: "-250"},
		{name: "fraction gets two decimals", in: 6687.3, want: "6687.30"},
		{name: "negative fraction", in: -303.4, want: "-303.40"},
		{name: "ph", in: 6.5, want: "6.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, numfmt.Sensor(tt.in))
		})
	}
}

func TestLargeAndAccumulated(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.5M", numfmt.Large(1_500_000))
	assert.Equal(t, "150,000", numfmt.Large(149_999.6))
	assert.Equal(t, "1,500", numfmt.Large(1500))
	assert.Equal(t, "12.3", numfmt.Large(12.34))

	assert.Equal(t, "9.46M", numfmt.Accumulated(9_463_680))
	assert.Equal(t, "13.7K", numfmt.Accumulated(13_693))
	assert.Equal(t, "512", numfmt.Accumulated(512))
}

func TestReadingAndBound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", numfmt.Reading(domain.NoData(), numfmt.Sensor))
	assert.Equal(t, "-", numfmt.Reading(domain.RawReading("-"), numfmt.Sensor))
	assert.Equal(t, "15.8", numfmt.Reading(domain.Value(15.8), numfmt.OneDecimal))

	upper := 25.0
	assert.Equal(t, "25.0", numfmt.Bound(&upper, numfmt.OneDecimal))
	assert.Equal(t, "-", numfmt.Bound(nil, numfmt.OneDecimal))
}
