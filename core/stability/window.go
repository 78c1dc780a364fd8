package stability

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Windows converts the smoothing and scan durations into sample counts.
// Each count is the smallest index whose time is at least the duration past
// times[0]. Both are resolved in a single pass over the axis.
func Windows(times []float64, smoothingHours, scanHours float64) (windowLength, hourLength int, err error) {
	windowLength, hourLength = -1, -1
	for i, t := range times {
		elapsed := t - times[0]
		if windowLength < 0 && elapsed >= smoothingHours {
			windowLength = i
		}
		if hourLength < 0 && elapsed >= scanHours {
			hourLength = i
		}
		if windowLength >= 0 && hourLength >= 0 {
			break
		}
	}

	span := 0.0
	if len(times) > 0 {
		span = times[len(times)-1] - times[0]
	}
	if windowLength < 0 {
		return 0, 0, &WindowEstablishmentError{Window: "smoothing", Hours: smoothingHours, Duration: span}
	}
	if hourLength < 0 {
		return 0, 0, &WindowEstablishmentError{Window: "scan", Hours: scanHours, Duration: span}
	}
	return windowLength, hourLength, nil
}

// Smooth averages raw over a trailing window that excludes the current sample.
// Up to windowLength the window grows from the start of the series, so
// index j averages raw[0:j]; past it the window is raw[j-windowLength:j].
// Index 0 has nothing behind it and keeps raw[0].
func Smooth(raw []float64, windowLength int) []float64 {
	smoothed := make([]float64, len(raw))
	for j := range raw {
		switch {
		case j == 0:
			smoothed[j] = raw[0]
		case j <= windowLength:
			smoothed[j] = stat.Mean(raw[0:j], nil)
		default:
			smoothed[j] = stat.Mean(raw[j-windowLength:j], nil)
		}
	}
	return smoothed
}

// Derivatives returns the first and second forward differences of s, both divided by dx once.
func Derivatives(s []float64, dx float64) (first, second []float64) {
	if len(s) < 2 {
		return []float64{}, []float64{}
	}
	diff := make([]float64, len(s)-1)
	first = make([]float64, len(s)-1)
	for i := range diff {
		diff[i] = s[i+1] - s[i]
		first[i] = diff[i] / dx
	}
	second = make([]float64, max(len(diff)-1, 0))
	for i := range second {
		second[i] = (diff[i+1] - diff[i]) / dx
	}
	return first, second
}

// windowRange returns max, min and |max-min| of w, which must be non-empty.
func windowRange(w []float64) (hi, lo, spread float64) {
	hi = floats.Max(w)
	lo = floats.Min(w)
	return hi, lo, math.Abs(hi - lo)
}

// round3 rounds a time to three decimals for reporting.
func round3(t float64) float64 {
	return math.Round(t*1000) / 1000
}
