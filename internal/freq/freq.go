// Package freq parses CPU frequency strings such as "1.76MHz" or "500hz".
package freq

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every Parse error.
var ErrInvalid = errors.New("invalid frequency")

var units = []struct {
	suffix string
	scale  float64
}{
	{"ghz", 1e9},
	{"mhz", 1e6},
	{"khz", 1e3},
	{"hz", 1},
}

// Parse returns the frequency in hertz. Unit suffixes are matched case
// insensitively and a bare number is taken as hertz.
func Parse(s string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	scale := 1.0
	for _, u := range units {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			scale = u.scale
			break
		}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalid, s)
	}
	hz := n * scale
	if hz <= 0 || math.IsInf(hz, 0) || math.IsNaN(hz) {
		return 0, fmt.Errorf("%w %q: must be positive", ErrInvalid, s)
	}
	return hz, nil
}

// Period returns the duration of one cycle at hz, at least one nanosecond.
func Period(hz float64) time.Duration {
	d := time.Duration(float64(time.Second) / hz)
	if d < 1 {
		d = 1
	}
	return d
}
