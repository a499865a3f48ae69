// Package timestamp converts between floating-point seconds and the
// fixed-precision integer form (hundredths of a second) used for storage.
//
// Rounding is half-to-even on the exact decimal value of the float, so 0.125
// becomes 0.12 while 0.135 (stored as 0.13500000000000000888) becomes 0.14.
package timestamp

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Round rounds ts to two decimal places.
func Round(ts float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(ts, 'f', 2, 64), 64)
	if err != nil {
		return math.RoundToEven(ts*100) / 100
	}
	return r
}

// Encode converts ts to hundredths of a second. NaN encodes as zero and
// values outside the int64 range saturate.
func Encode(ts float64) int64 {
	switch {
	case math.IsNaN(ts):
		return 0
	case ts*100 >= math.MaxInt64:
		return math.MaxInt64
	case ts*100 <= math.MinInt64:
		return math.MinInt64
	}
	s := strconv.FormatFloat(ts, 'f', 2, 64)
	v, err := strconv.ParseInt(strings.Replace(s, ".", "", 1), 10, 64)
	if err != nil {
		return int64(math.RoundToEven(ts * 100))
	}
	return v
}

// Decode converts hundredths of a second back to seconds. A nil input means
// the value is absent and yields nil.
func Decode(v *int64) *float64 {
	if v == nil {
		return nil
	}
	ts := FromInt(*v)
	return &ts
}

// FromInt is Decode for a value known to be present.
func FromInt(v int64) float64 {
	return Round(float64(v) / 100)
}

// FromTime converts t to rounded seconds.
func FromTime(t time.Time) float64 {
	return Round(float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second))
}
