// Package report assembles the sections of a weighing inspection
// report handed back to the host: tolerance limits, per-unit grades,
// net-mass statistics and the two-tier acceptance verdicts. Every
// value carries the arithmetic behind it as indented JSON in Detail.
package report

import (
	"github.com/ansel1/merry"
	"github.com/fpawel/netmass/aql"
	"github.com/fpawel/netmass/internal/pkg"
	"github.com/fpawel/netmass/internal/pkg/must"
	"github.com/fpawel/netmass/stat"
	"github.com/fpawel/netmass/tare"
)

type Sections []*Section

func (x *Sections) AddSection(name string) *Section {
	c := &Section{Name: name}
	*x = append(*x, c)
	return c
}

type Section struct {
	Name   string   `json:"name"`
	Params []*Param `json:"params"`
}

func (x *Section) AddParam(name string) *Param {
	v := &Param{Name: name}
	x.Params = append(x.Params, v)
	return v
}

type Param struct {
	Name   string   `json:"name"`
	Values []*Value `json:"values"`
}

func (x *Param) AddValue() *Value {
	v := new(Value)
	x.Values = append(x.Values, v)
	return v
}

// Value is one report cell. Validated stays false while the underlying
// measurement is missing. Valid tells whether a validated value passed
// its check.
type Value struct {
	Validated bool   `json:"validated"`
	Valid     bool   `json:"valid"`
	Detail    string `json:"detail"`
	Value     string `json:"value"`
}

// Sample is one inspected batch: the product, its nominal net weight,
// the AQL parameters and the weighed net masses in unit order. A zero
// mass means the unit was not weighed.
type Sample struct {
	Product      string    `json:"product" yaml:"product"`
	Nominal      float64   `json:"nominal" yaml:"nominal"`
	SampleSize   int       `json:"sample_size" yaml:"sample_size"`
	QualityLevel string    `json:"quality_level" yaml:"quality_level"`
	Values       []float64 `json:"values" yaml:"values"`
}

// Build assembles the report. It fails only on configuration defects:
// a non-positive nominal weight or a sampling plan that cannot serve
// the requested quality level.
func Build(smp Sample, plan aql.Plan) (Sections, error) {
	lim := tare.ComputeLimits(smp.Nominal)
	if lim == (tare.Limits{}) {
		return nil, merry.Errorf("nominal weight %v is not configured", smp.Nominal)
	}
	res, err := plan.Classify(smp.Values, lim, smp.SampleSize, smp.QualityLevel)
	if err != nil {
		return nil, err
	}

	var sections Sections
	addLimits(&sections, smp, lim)
	addUnits(&sections, smp, lim)
	addStats(&sections, smp)
	addVerdicts(&sections, smp, res)
	return sections, nil
}

func addLimits(x *Sections, smp Sample, lim tare.Limits) {
	td := tare.TD(smp.Nominal)
	sect := x.AddSection("Допуски массы нетто: " + smp.Product)
	for _, c := range []struct {
		name  string
		value float64
		calc  string
	}{
		{"тара 1", lim.Tare1, "номинал - ТД"},
		{"тара 2", lim.Tare2, "номинал - 2*ТД"},
		{"предел упаковки 1", lim.PackLimit1, "тара 2"},
		{"предел упаковки 2", lim.PackLimit2, "номинал + 2*ТД"},
	} {
		v := sect.AddParam(c.name).AddValue()
		v.Validated = true
		v.Valid = true
		v.Value = pkg.FormatFloat(c.value, 2)
		v.Detail = string(must.MarshalJsonIndent(map[string]interface{}{
			"номинал": smp.Nominal,
			"ТД":      td,
			"расчёт":  c.calc,
		}, "", "\t"))
	}
}

func addUnits(x *Sections, smp Sample, lim tare.Limits) {
	prm := x.AddSection("Взвешивание").AddParam("масса нетто")
	for i, val := range smp.Values {
		v := prm.AddValue()
		info := map[string]interface{}{
			"единица": i + 1,
			"тара 1":  lim.Tare1,
			"тара 2":  lim.Tare2,
		}
		if grade := aql.GradeOf(val, lim); grade == aql.GradeNone {
			info["значение"] = nil
		} else {
			info["значение"] = val
			info["градация"] = grade.String()
			v.Validated = true
			v.Valid = grade == aql.Conforming
			v.Value = pkg.FormatFloat(val, 2)
		}
		v.Detail = string(must.MarshalJsonIndent(info, "", "\t"))
	}
}

func addStats(x *Sections, smp Sample) {
	agg := stat.Aggregate(smp.Values)
	sect := x.AddSection("Статистика массы нетто")
	add := func(name string, value float64, info map[string]interface{}) {
		v := sect.AddParam(name).AddValue()
		if agg.Count > 0 {
			v.Validated = true
			v.Valid = true
			v.Value = pkg.FormatFloat(value, 2)
		}
		v.Detail = string(must.MarshalJsonIndent(info, "", "\t"))
	}
	counts := map[string]interface{}{
		"измерено": agg.Count,
		"всего":    len(smp.Values),
	}
	add("количество", float64(agg.Count), counts)
	add("среднее", agg.Mean, counts)
	add("СКО", agg.StdDev, map[string]interface{}{
		"формула": "sqrt(E[x²] - m²)",
	})
}

func addVerdicts(x *Sections, smp Sample, res aql.Result) {
	sect := x.AddSection("Приёмка")
	info := map[string]interface{}{
		"выборка":     res.Bucket,
		"уровень":     smp.QualityLevel,
		"Ac":          res.AcRe.Ac,
		"Re":          res.AcRe.Re,
		"дефектных":   res.Defects,
		"критических": res.Criticals,
	}
	for _, c := range []struct {
		name    string
		verdict aql.Verdict
	}{
		{"по таре 1", res.Tare1Verdict},
		{"по таре 2", res.Tare2Verdict},
	} {
		v := sect.AddParam(c.name).AddValue()
		v.Validated = true
		v.Valid = c.verdict == aql.Accepted
		v.Value = c.verdict.String()
		v.Detail = string(must.MarshalJsonIndent(info, "", "\t"))
	}
}
