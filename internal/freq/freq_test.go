package freq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.76MHz", 1.76e6},
		{"1.76Mhz", 1.76e6},
		{"500hz", 500},
		{"500", 500},
		{" 2 kHz ", 2000},
		{"1GHZ", 1e9},
		{"0.5khz", 500},
	}
	for _, test := range tests {
		got, err := Parse(test.in)
		require.NoError(t, err, test.in)
		assert.InDelta(t, test.want, got, 1e-6, test.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "fast", "MHz", "-5hz", "0", "1e400hz", "NaN"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, time.Second/500, Period(500))
	assert.Equal(t, time.Duration(568), Period(1.76e6))
	assert.Equal(t, time.Duration(1), Period(1e10))
}
