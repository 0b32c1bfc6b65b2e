// Package calc is the computed-column engine: it evaluates the
// formulas and conditional-formatting rules of an inspection table
// against caller-owned rows. Evaluation never panics and never mutates
// the caller's rows. A cell whose computation fails degrades to nil
// for that cell only and leaves a diagnostic; the rest of the table
// stays usable.
package calc

import (
	"github.com/fpawel/netmass/formula"
	"github.com/fpawel/netmass/internal/pkg"
	"github.com/fpawel/netmass/schema"
	"github.com/powerman/structlog"
)

// Diag records one degraded cell: the column, the expression and the
// fault.
type Diag struct {
	Col  string
	Expr string
	Err  error
}

// Result of one row evaluation. Values holds every column of the
// schema, computed columns overwritten with their formula results.
// Slots holds the per-slot results of time-series formula columns.
// Formatting lists the conditional-rule classes that matched, in rule
// order.
type Result struct {
	Values     schema.Row
	Slots      map[string][]any
	Formatting map[string][]string
	Diags      []Diag
}

// programs holds the compiled formulas and rules of one table, indexed
// by column position, so a table evaluation compiles every expression
// once, not once per row.
type programs struct {
	formulas []*formula.Program
	rules    [][]*formula.Program
}

func compilePrograms(tbl schema.Table) programs {
	ps := programs{
		formulas: make([]*formula.Program, len(tbl.Columns)),
		rules:    make([][]*formula.Program, len(tbl.Columns)),
	}
	for i, c := range tbl.Columns {
		if c.Formula != "" {
			ps.formulas[i] = formula.Compile(c.Formula)
		}
		if len(c.Rules) == 0 {
			continue
		}
		rs := make([]*formula.Program, len(c.Rules))
		for j, rule := range c.Rules {
			rs[j] = formula.Compile(rule.When)
		}
		ps.rules[i] = rs
	}
	return ps
}

// EvalRow evaluates one row: snapshot the entered values, run the
// formula columns in declaration order against the growing snapshot,
// then apply each column's conditional rules to the final snapshot
// with the column's own result bound as value.
//
// Declaration order is the dependency order: a formula referencing a
// column declared after it sees that column's pre-formula value.
func EvalRow(log *structlog.Logger, tbl schema.Table, row schema.Row) Result {
	return evalRow(logOrDefault(log), compilePrograms(tbl), tbl, row)
}

// EvalTable evaluates every row with the table's expressions compiled
// once. Same guarantees as EvalRow.
func EvalTable(log *structlog.Logger, tbl schema.Table, rows []schema.Row) []Result {
	log = logOrDefault(log)
	ps := compilePrograms(tbl)
	results := make([]Result, len(rows))
	for i, row := range rows {
		results[i] = evalRow(pkg.LogPrependSuffixKeys(log, "row", i), ps, tbl, row)
	}
	return results
}

func evalRow(log *structlog.Logger, ps programs, tbl schema.Table, row schema.Row) Result {
	r := Result{
		Values:     make(schema.Row, len(tbl.Columns)),
		Formatting: make(map[string][]string),
	}

	for _, c := range tbl.Columns {
		v, err := schema.NormalizeValue(row[c.Key])
		if err != nil {
			r.diag(log, c.Key, "", err)
			v = nil
		}
		r.Values[c.Key] = v
	}

	for i, c := range tbl.Columns {
		prog := ps.formulas[i]
		if prog == nil {
			continue
		}
		if c.TimeSeries {
			r.evalSlots(log, prog, c, tbl.Slots)
			continue
		}
		v, err := prog.Eval(r.Values)
		if err != nil {
			r.diag(log, c.Key, prog.Src(), err)
			v = nil
		}
		r.Values[c.Key] = v
	}

	for i, c := range tbl.Columns {
		for j, rule := range c.Rules {
			prog := ps.rules[i][j]
			v, err := prog.EvalRule(r.Values, r.Values[c.Key])
			if err != nil {
				r.diag(log, c.Key, prog.Src(), err)
				continue
			}
			matched, _ := v.(bool)
			if !matched {
				continue
			}
			r.Formatting[c.Key] = append(r.Formatting[c.Key], rule.Class)
			if !rule.Continue {
				break
			}
		}
	}
	return r
}

// evalSlots runs a time-series formula once per slot. The scalar cell
// of a time-series column stays as entered; other formulas referencing
// it see that scalar, not the slot series.
func (r *Result) evalSlots(log *structlog.Logger, prog *formula.Program, c schema.Column, slots int) {
	if slots <= 0 {
		return
	}
	if r.Slots == nil {
		r.Slots = make(map[string][]any)
	}
	series := make([]any, slots)
	for t := 0; t < slots; t++ {
		v, err := prog.EvalSlot(r.Values, t)
		if err != nil {
			r.diag(log, c.Key, prog.Src(), err)
			v = nil
		}
		series[t] = v
	}
	r.Slots[c.Key] = series
}

func (r *Result) diag(log *structlog.Logger, col, expr string, err error) {
	r.Diags = append(r.Diags, Diag{Col: col, Expr: expr, Err: err})
	log.PrintErr(err, "column", col, "expr", expr)
}

func logOrDefault(log *structlog.Logger) *structlog.Logger {
	if log == nil {
		return structlog.New()
	}
	return log
}
