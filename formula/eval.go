package formula

import (
	"math"

	"github.com/ansel1/merry"
	"github.com/fpawel/netmass/schema"
)

type env struct {
	cols   schema.Row
	t      float64
	hasT   bool
	val    any
	hasVal bool
}

func (x numberLit) eval(*env) (any, error) { return float64(x), nil }

func (x stringLit) eval(*env) (any, error) { return string(x), nil }

func (x boolLit) eval(*env) (any, error) { return bool(x), nil }

func (x colRef) eval(e *env) (any, error) {
	v, f := e.cols[x.key]
	if !f {
		return nil, merry.Errorf("unknown column %q", x.key)
	}
	v, err := schema.NormalizeValue(v)
	return v, merry.Prependf(err, "column %q", x.key)
}

func (slotRef) eval(e *env) (any, error) {
	if !e.hasT {
		return nil, merry.New("t is bound only for time-series evaluation")
	}
	return e.t, nil
}

func (valueRef) eval(e *env) (any, error) {
	if !e.hasVal {
		return nil, merry.New("value is bound only for rule evaluation")
	}
	return e.val, nil
}

func (x unary) eval(e *env) (any, error) {
	v, err := x.x.eval(e)
	if err != nil || v == nil {
		return nil, err
	}
	switch x.op {
	case "-":
		n, ok := v.(float64)
		if !ok {
			return nil, merry.Errorf("unary - wants a number, got %T", v)
		}
		return finite(-n, "unary -")
	case "!":
		b, ok := v.(bool)
		if !ok {
			return nil, merry.Errorf("! wants a boolean, got %T", v)
		}
		return !b, nil
	}
	return nil, merry.Errorf("bad unary operator %q", x.op)
}

func (x binary) eval(e *env) (any, error) {
	if x.op == "&&" || x.op == "||" {
		return x.logical(e)
	}
	a, err := x.x.eval(e)
	if err != nil {
		return nil, err
	}
	b, err := x.y.eval(e)
	if err != nil {
		return nil, err
	}
	// a missing operand makes the whole expression not computable:
	// unfilled inputs are a normal state, not an error
	if a == nil || b == nil {
		return nil, nil
	}
	switch x.op {
	case "+", "-", "*", "/", "%":
		return x.arith(a, b)
	}
	return x.compare(a, b)
}

func (x binary) arith(a, b any) (any, error) {
	if x.op == "+" {
		s1, ok1 := a.(string)
		s2, ok2 := b.(string)
		if ok1 && ok2 {
			return s1 + s2, nil
		}
	}
	n1, ok1 := a.(float64)
	n2, ok2 := b.(float64)
	if !ok1 || !ok2 {
		return nil, merry.Errorf("%s wants numbers, got %T and %T", x.op, a, b)
	}
	var r float64
	switch x.op {
	case "+":
		r = n1 + n2
	case "-":
		r = n1 - n2
	case "*":
		r = n1 * n2
	case "/":
		if n2 == 0 {
			return nil, merry.New("division by zero")
		}
		r = n1 / n2
	case "%":
		if n2 == 0 {
			return nil, merry.New("division by zero")
		}
		r = math.Mod(n1, n2)
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, merry.Errorf("%v %s %v is not finite", n1, x.op, n2)
	}
	return r, nil
}

func (x binary) compare(a, b any) (any, error) {
	if n1, ok := a.(float64); ok {
		if n2, ok := b.(float64); ok {
			switch x.op {
			case "==":
				return n1 == n2, nil
			case "!=":
				return n1 != n2, nil
			case "<":
				return n1 < n2, nil
			case "<=":
				return n1 <= n2, nil
			case ">":
				return n1 > n2, nil
			case ">=":
				return n1 >= n2, nil
			}
		}
	}
	if s1, ok := a.(string); ok {
		if s2, ok := b.(string); ok {
			switch x.op {
			case "==":
				return s1 == s2, nil
			case "!=":
				return s1 != s2, nil
			case "<":
				return s1 < s2, nil
			case "<=":
				return s1 <= s2, nil
			case ">":
				return s1 > s2, nil
			case ">=":
				return s1 >= s2, nil
			}
		}
	}
	if b1, ok := a.(bool); ok {
		if b2, ok := b.(bool); ok {
			switch x.op {
			case "==":
				return b1 == b2, nil
			case "!=":
				return b1 != b2, nil
			}
			return nil, merry.Errorf("%s cannot order booleans", x.op)
		}
	}
	return nil, merry.Errorf("%s cannot compare %T with %T", x.op, a, b)
}

func (x binary) logical(e *env) (any, error) {
	a, err := x.x.eval(e)
	if err != nil || a == nil {
		return nil, err
	}
	b1, ok := a.(bool)
	if !ok {
		return nil, merry.Errorf("%s wants booleans, got %T", x.op, a)
	}
	if x.op == "&&" && !b1 {
		return false, nil
	}
	if x.op == "||" && b1 {
		return true, nil
	}
	b, err := x.y.eval(e)
	if err != nil || b == nil {
		return nil, err
	}
	b2, ok := b.(bool)
	if !ok {
		return nil, merry.Errorf("%s wants booleans, got %T", x.op, b)
	}
	return b2, nil
}

func (x cond) eval(e *env) (any, error) {
	v, err := x.test.eval(e)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, merry.Errorf("?: condition wants a boolean, got %T", v)
	}
	if b {
		return x.then.eval(e)
	}
	return x.els.eval(e)
}

func (x call) eval(e *env) (any, error) {
	args := make([]any, len(x.args))
	for i, a := range x.args {
		v, err := a.eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	switch x.fn {
	case "sum", "avg", "min", "max":
		return x.fold(args)
	case "round":
		return x.round(args)
	}
	return x.clamp(args)
}

// fold flattens missing arguments out: sum over no numbers is 0, the
// other aggregates over no numbers are not computable.
func (x call) fold(args []any) (any, error) {
	var nums []float64
	for i, v := range args {
		if v == nil {
			continue
		}
		n, ok := v.(float64)
		if !ok {
			return nil, merry.Errorf("%s: argument %d is %T, not a number", x.fn, i+1, v)
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		if x.fn == "sum" {
			return 0.0, nil
		}
		return nil, nil
	}
	r := nums[0]
	for _, n := range nums[1:] {
		switch x.fn {
		case "sum", "avg":
			r += n
		case "min":
			r = math.Min(r, n)
		case "max":
			r = math.Max(r, n)
		}
	}
	if x.fn == "avg" {
		r /= float64(len(nums))
	}
	return finite(r, x.fn)
}

func (x call) number(args []any, i int) (float64, bool, error) {
	if args[i] == nil {
		return 0, false, nil
	}
	n, ok := args[i].(float64)
	if !ok {
		return 0, false, merry.Errorf("%s: argument %d is %T, not a number", x.fn, i+1, args[i])
	}
	return n, true, nil
}

func (x call) round(args []any) (any, error) {
	v, ok, err := x.number(args, 0)
	if err != nil || !ok {
		return nil, err
	}
	d := 0.0
	if len(args) == 2 {
		d, ok, err = x.number(args, 1)
		if err != nil || !ok {
			return nil, err
		}
	}
	p := math.Pow(10, math.Trunc(d))
	return finite(math.Round(v*p)/p, x.fn)
}

func (x call) clamp(args []any) (any, error) {
	v, ok, err := x.number(args, 0)
	if err != nil || !ok {
		return nil, err
	}
	lo, ok, err := x.number(args, 1)
	if err != nil || !ok {
		return nil, err
	}
	hi, ok, err := x.number(args, 2)
	if err != nil || !ok {
		return nil, err
	}
	return finite(math.Min(math.Max(v, lo), hi), x.fn)
}

// finite gates every arithmetic result the way binary operators do:
// overflow to infinity or a NaN comes back as an error, never as a
// cell value.
func finite(r float64, what string) (any, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, merry.Errorf("%s result is not finite", what)
	}
	return r, nil
}
