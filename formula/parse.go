package formula

import (
	"strings"

	"github.com/ansel1/merry"
)

type node interface {
	eval(e *env) (any, error)
}

type numberLit float64

type stringLit string

type boolLit bool

// colRef reads a row value: cols.key or cols["key"].
type colRef struct {
	key string
}

// slotRef is t, the zero-based time-slot index of a time-series
// evaluation.
type slotRef struct{}

// valueRef is value, the candidate column's own result during
// conditional-rule evaluation.
type valueRef struct{}

type unary struct {
	op string
	x  node
}

type binary struct {
	op   string
	x, y node
}

type cond struct {
	test, then, els node
}

type call struct {
	fn   string
	args []node
}

// arity of the fixed helper set: min..max argument counts, max -1 for
// variadic.
var helpers = map[string][2]int{
	"sum":   {0, -1},
	"avg":   {0, -1},
	"min":   {0, -1},
	"max":   {0, -1},
	"round": {1, 2},
	"clamp": {3, 3},
}

func parse(src string) (node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, merry.New("empty expression")
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tk := p.peek(); tk.kind != tokEOF {
		return nil, merry.Errorf("unexpected %s at position %d", tk.describe(), tk.pos)
	}
	return root, nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) take() token {
	tk := p.toks[p.i]
	if tk.kind != tokEOF {
		p.i++
	}
	return tk
}

func (p *parser) takeOp(ops ...string) (string, bool) {
	tk := p.peek()
	if tk.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if tk.text == op {
			p.i++
			return op, true
		}
	}
	return "", false
}

func (p *parser) expectOp(op string) error {
	if _, ok := p.takeOp(op); !ok {
		tk := p.peek()
		return merry.Errorf("expected %q, got %s at position %d", op, tk.describe(), tk.pos)
	}
	return nil
}

// expr = or [ '?' expr ':' expr ]
func (p *parser) expr() (node, error) {
	test, err := p.or()
	if err != nil {
		return nil, err
	}
	if _, ok := p.takeOp("?"); !ok {
		return test, nil
	}
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	els, err := p.expr()
	if err != nil {
		return nil, err
	}
	return cond{test: test, then: then, els: els}, nil
}

func (p *parser) or() (node, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.takeOp("||"); !ok {
			return x, nil
		}
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		x = binary{op: "||", x: x, y: y}
	}
}

func (p *parser) and() (node, error) {
	x, err := p.cmp()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.takeOp("&&"); !ok {
			return x, nil
		}
		y, err := p.cmp()
		if err != nil {
			return nil, err
		}
		x = binary{op: "&&", x: x, y: y}
	}
}

func (p *parser) cmp() (node, error) {
	x, err := p.add()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.takeOp("<", "<=", ">", ">=", "==", "!=")
		if !ok {
			return x, nil
		}
		y, err := p.add()
		if err != nil {
			return nil, err
		}
		x = binary{op: op, x: x, y: y}
	}
}

func (p *parser) add() (node, error) {
	x, err := p.mul()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.takeOp("+", "-")
		if !ok {
			return x, nil
		}
		y, err := p.mul()
		if err != nil {
			return nil, err
		}
		x = binary{op: op, x: x, y: y}
	}
}

func (p *parser) mul() (node, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.takeOp("*", "/", "%")
		if !ok {
			return x, nil
		}
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		x = binary{op: op, x: x, y: y}
	}
}

func (p *parser) unary() (node, error) {
	if op, ok := p.takeOp("-", "!"); ok {
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unary{op: op, x: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	tk := p.take()
	switch tk.kind {
	case tokNumber:
		return numberLit(tk.num), nil

	case tokString:
		return stringLit(tk.text), nil

	case tokIdent:
		switch tk.text {
		case "true":
			return boolLit(true), nil
		case "false":
			return boolLit(false), nil
		case "t":
			return slotRef{}, nil
		case "value":
			return valueRef{}, nil
		case "cols":
			return p.colRef(tk)
		}
		if _, ok := helpers[tk.text]; ok {
			return p.call(tk)
		}
		return nil, merry.Errorf("unknown identifier %q at position %d", tk.text, tk.pos)

	case tokOp:
		if tk.text == "(" {
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, merry.Errorf("unexpected %s at position %d", tk.describe(), tk.pos)
}

func (p *parser) colRef(tk token) (node, error) {
	if _, ok := p.takeOp("."); ok {
		id := p.take()
		if id.kind != tokIdent {
			return nil, merry.Errorf("column key expected, got %s at position %d", id.describe(), id.pos)
		}
		return colRef{key: id.text}, nil
	}
	if _, ok := p.takeOp("["); ok {
		s := p.take()
		if s.kind != tokString {
			return nil, merry.Errorf("quoted column key expected, got %s at position %d", s.describe(), s.pos)
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return colRef{key: s.text}, nil
	}
	return nil, merry.Errorf(`cols at position %d must be followed by .key or ["key"]`, tk.pos)
}

func (p *parser) call(tk token) (node, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	var args []node
	if _, ok := p.takeOp(")"); !ok {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if _, ok := p.takeOp(","); ok {
				continue
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			break
		}
	}
	arity := helpers[tk.text]
	if len(args) < arity[0] || arity[1] >= 0 && len(args) > arity[1] {
		return nil, merry.Errorf("%s at position %d: wrong argument count %d", tk.text, tk.pos, len(args))
	}
	return call{fn: tk.text, args: args}, nil
}
