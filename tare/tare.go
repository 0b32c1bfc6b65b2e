// Package tare derives the weight thresholds for fill-quantity control
// from the nominal fill weight of a package.
package tare

import "math"

// Limits are the weight thresholds derived from one nominal weight.
// Tare1 is the tolerable-deficiency limit, Tare2 the doubled one.
// PackLimit1 and PackLimit2 bound a single package during filling.
type Limits struct {
	Tare1      float64 `json:"tare1" yaml:"tare1"`
	Tare2      float64 `json:"tare2" yaml:"tare2"`
	PackLimit1 float64 `json:"pack_limit1" yaml:"pack_limit1"`
	PackLimit2 float64 `json:"pack_limit2" yaml:"pack_limit2"`
}

type bracket struct {
	limit   float64 // nominal weights up to this value fall into the bracket
	rate    float64
	percent bool // rate is a fraction of the nominal, not grams
}

var brackets = []bracket{
	{50, 0.09, true},
	{100, 4.5, false},
	{200, 0.045, true},
	{300, 9, false},
	{500, 0.03, true},
	{1000, 15, false},
	{10000, 0.015, true},
	{15000, 150, false},
	{50000, 0.01, true},
	{math.Inf(1), 0.01, true},
}

// TD returns the tolerable deficiency for the given nominal weight: the
// first matching bracket of the fixed table, in ascending order.
// Nominal weights that are not positive finite numbers yield 0.
func TD(nominal float64) float64 {
	if !(nominal > 0) || math.IsInf(nominal, 1) {
		return 0
	}
	for _, b := range brackets {
		if nominal <= b.limit {
			if b.percent {
				return b.rate * nominal
			}
			return b.rate
		}
	}
	return 0
}

// ComputeLimits derives the tare and package limits from the nominal
// weight. A nominal weight that is not a positive finite number yields
// zero Limits: the caller reports "not configured", not an error.
// No rounding is applied here, display formatting is up to the caller.
func ComputeLimits(nominal float64) Limits {
	td := TD(nominal)
	if td == 0 {
		return Limits{}
	}
	return Limits{
		Tare1: nominal - td,
		Tare2: nominal - 2*td,
		// TODO: confirm PackLimit1 repeating Tare2 is intended
		PackLimit1: nominal - 2*td,
		PackLimit2: nominal + 2*td,
	}
}
