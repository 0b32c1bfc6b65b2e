// Package stat aggregates weight observations: count, mean and the two
// standard deviation variants used by the inspection tables.
package stat

import "math"

// Summary is the aggregate of a set of observations.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Clean drops the entries that carry no measurement: non-finite values
// and the exact zero the tables use to mean "not entered".
func Clean(values []float64) []float64 {
	var xs []float64
	for _, v := range values {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, v)
	}
	return xs
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev is sqrt(E[x²]−mean²). Zero for empty input.
func PopulationStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	d := sumSq/float64(n) - mean*mean
	if d < 0 {
		// rounding on a constant series
		return 0
	}
	return math.Sqrt(d)
}

// SampleStdDev divides by n−1. Zero for fewer than two values.
//
// PopulationStdDev serves the per-column aggregation, SampleStdDev the
// per-row one. The two must not be unified: the tables produced with one
// would silently disagree with the tables produced with the other.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Aggregate cleans values and summarises them with the population
// standard deviation. Column aggregation call sites use this one.
func Aggregate(values []float64) Summary {
	xs := Clean(values)
	return Summary{Count: len(xs), Mean: Mean(xs), StdDev: PopulationStdDev(xs)}
}

// AggregateSample cleans values and summarises them with the sample
// standard deviation. Row aggregation call sites use this one.
func AggregateSample(values []float64) Summary {
	xs := Clean(values)
	return Summary{Count: len(xs), Mean: Mean(xs), StdDev: SampleStdDev(xs)}
}
