// Package formula compiles the short formula strings of computed
// columns into callables over a row's values. The grammar is a single
// JS-flavoured expression: number, string and boolean literals,
// cols.<key> row references (cols["key"] for keys that are not
// identifiers), the time-slot index t, the rule binding value,
// arithmetic, comparisons, logical operators, the ?: conditional and a
// fixed helper set: sum, avg, min, max, round, clamp. There are no
// loops, no assignment and
// no access to anything but the bound row, so a formula cannot execute
// arbitrary code.
//
// Compilation fails closed: a malformed source yields a Program that
// evaluates to the not-computable sentinel and remembers its compile
// error. Runtime faults (unknown column, type mismatch, division by
// zero, non-finite result) come back as errors per invocation and
// never panic across the boundary, so one broken formula cannot halt
// evaluation of the rest of the table.
package formula

import (
	"github.com/ansel1/merry"
	"github.com/fpawel/netmass/schema"
)

// Program is a compiled formula, immutable and safe for concurrent
// evaluation.
type Program struct {
	src  string
	root node
	err  error
}

// Compile never fails: a parse error is carried inside the returned
// Program, which then evaluates every call to (nil, Err()).
func Compile(src string) *Program {
	root, err := parse(src)
	if err != nil {
		return &Program{src: src, err: err}
	}
	return &Program{src: src, root: root}
}

// Err reports the compile error, if any.
func (p *Program) Err() error { return p.err }

// Src returns the source text the program was compiled from.
func (p *Program) Src() string { return p.src }

// Eval runs the program against a row snapshot. A nil result with a
// nil error means the expression was not computable from the given
// inputs, which is a normal state for a partly filled row.
func (p *Program) Eval(cols schema.Row) (any, error) {
	return p.run(env{cols: cols})
}

// EvalSlot runs the program once per time slot, binding t to the
// zero-based slot index.
func (p *Program) EvalSlot(cols schema.Row, t int) (any, error) {
	return p.run(env{cols: cols, t: float64(t), hasT: true})
}

// EvalRule runs the program as a conditional-formatting clause,
// binding the candidate column's own result as value.
func (p *Program) EvalRule(cols schema.Row, value any) (any, error) {
	return p.run(env{cols: cols, val: value, hasVal: true})
}

func (p *Program) run(e env) (v any, err error) {
	if p.err != nil {
		return nil, p.err
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, merry.Errorf("formula panic: %v", r)
		}
	}()
	return p.root.eval(&e)
}
