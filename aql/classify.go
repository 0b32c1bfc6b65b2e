package aql

import (
	"math"

	"github.com/fpawel/netmass/tare"
)

// Verdict is the outcome of one inspection tier.
type Verdict int

const (
	Accepted Verdict = iota
	Rejected
)

func (x Verdict) String() string {
	if x == Rejected {
		return "REJECTED"
	}
	return "ACCEPTED"
}

// Grade classifies one weighed unit against the tare limits.
type Grade int

const (
	GradeNone  Grade = iota // not measured
	Conforming              // at or above tare1
	Defective               // below tare1, counted against Re
	Critical                // below tare2, rejects the lot outright
)

func (x Grade) String() string {
	switch x {
	case Conforming:
		return "conforming"
	case Defective:
		return "defective"
	case Critical:
		return "critical"
	}
	return ""
}

// GradeOf grades a single net weight. Zero and non-finite values mean
// the unit was not weighed and carry no grade.
func GradeOf(v float64, lim tare.Limits) Grade {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return GradeNone
	}
	switch {
	case v < lim.Tare2:
		return Critical
	case v < lim.Tare1:
		return Defective
	}
	return Conforming
}

// Result is the two-tier decision over a weighed sample.
type Result struct {
	Tare1Verdict Verdict `json:"tare1_verdict"`
	Tare2Verdict Verdict `json:"tare2_verdict"`
	Criticals    int     `json:"criticals"`
	Defects      int     `json:"defects"`
	AcRe         AcRe    `json:"ac_re"`
	Bucket       int     `json:"bucket"`
}

// Classify grades every measured unit of the sample and applies the
// plan. The tare2 tier rejects on any critical unit. The tare1 tier
// rejects on any critical unit or on defects reaching Re. A sample with
// no measured units is accepted on both tiers.
func (p Plan) Classify(values []float64, lim tare.Limits, sampleSize int, level string) (Result, error) {
	b, err := p.Nearest(sampleSize)
	if err != nil {
		return Result{}, err
	}
	acRe, err := b.AcReFor(level)
	if err != nil {
		return Result{}, err
	}
	r := Result{
		Tare1Verdict: Accepted,
		Tare2Verdict: Accepted,
		AcRe:         acRe,
		Bucket:       b.Size,
	}
	for _, v := range values {
		switch GradeOf(v, lim) {
		case Critical:
			r.Criticals++
		case Defective:
			r.Defects++
		}
	}
	if r.Criticals > 0 {
		r.Tare1Verdict = Rejected
		r.Tare2Verdict = Rejected
	}
	if r.Defects >= acRe.Re {
		r.Tare1Verdict = Rejected
	}
	return r, nil
}
