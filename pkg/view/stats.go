package view

import "math"

// Sum adds values. An empty list sums to 0.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Average returns the arithmetic mean of values, or 0 for an empty list.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return safe(Sum(values) / float64(len(values)))
}

// Min returns the smallest value, or 0 for an empty list.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Max returns the largest value, or 0 for an empty list.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}

// Percentage returns part / whole * 100, or 0 when whole is 0.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return safe(part / whole * 100)
}

// Delta returns current - baseline and the change relative to baseline in
// percent. The sign is preserved: a decrease is negative. A zero baseline
// yields a percent change of 0.
func Delta(current, baseline float64) (diff, percent float64) {
	diff = current - baseline
	if baseline == 0 {
		return diff, 0
	}
	return diff, safe(diff / math.Abs(baseline) * 100)
}

// Round rounds v half away from zero to places decimals. A negative places
// leaves v unrounded.
func Round(v float64, places int) float64 {
	if places < 0 {
		return safe(v)
	}
	p := math.Pow(10, float64(places))
	return safe(math.Round(v*p) / p)
}

// safe maps NaN and infinities to 0 so no statistic ever leaks them.
func safe(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
