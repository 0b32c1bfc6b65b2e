package formula

import (
	"math"
	"testing"

	"github.com/fpawel/netmass/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, src string, cols schema.Row) any {
	t.Helper()
	p := Compile(src)
	require.NoError(t, p.Err(), src)
	v, err := p.Eval(cols)
	require.NoError(t, err, src)
	return v
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, 42.0, eval(t, "42", nil))
	assert.Equal(t, 2.5, eval(t, "2.5", nil))
	assert.Equal(t, 2000.0, eval(t, "2e3", nil))
	assert.Equal(t, "привет", eval(t, "'привет'", nil))
	assert.Equal(t, "a\"b", eval(t, `"a\"b"`, nil))
	assert.Equal(t, true, eval(t, "true", nil))
	assert.Equal(t, false, eval(t, "false", nil))
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, 7.0, eval(t, "1 + 2*3", nil))
	assert.Equal(t, 9.0, eval(t, "(1+2)*3", nil))
	assert.Equal(t, 1.0, eval(t, "10 % 3", nil))
	assert.Equal(t, -6.0, eval(t, "-2 * 3", nil))
	assert.Equal(t, -6.0, eval(t, "2 * -3", nil))
	assert.Equal(t, 2.5, eval(t, "10 / 4", nil))
	assert.Equal(t, "ab", eval(t, "'a' + 'b'", nil))
}

func TestComparisons(t *testing.T) {
	assert.Equal(t, true, eval(t, "2 + 3*4 == 14", nil))
	assert.Equal(t, true, eval(t, "1 < 2 && 2 <= 2 && 3 > 2 && 3 >= 3", nil))
	assert.Equal(t, true, eval(t, "'abc' < 'abd'", nil))
	assert.Equal(t, true, eval(t, "1 != 2 || false", nil))
	assert.Equal(t, false, eval(t, "!true", nil))
	assert.Equal(t, true, eval(t, "true == true && false != true", nil))
}

func TestColumnRefs(t *testing.T) {
	cols := schema.Row{"gross": 185.5, "tare": 8.5, "вес нетто": 177.0}
	assert.Equal(t, 177.0, eval(t, "cols.gross - cols.tare", cols))
	assert.Equal(t, 354.0, eval(t, `cols["вес нетто"] * 2`, cols))
}

func TestIntValuesWiden(t *testing.T) {
	assert.Equal(t, 6.0, eval(t, "cols.n * 2", schema.Row{"n": 3}))
}

func TestUnknownColumn(t *testing.T) {
	p := Compile("cols.nope + 1")
	require.NoError(t, p.Err())
	v, err := p.Eval(schema.Row{"a": 1.0})
	assert.Nil(t, v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown column "nope"`)
}

func TestMissingInputMakesNil(t *testing.T) {
	// an unfilled cell is a normal state, not an error
	for _, src := range []string{
		"cols.a + 1",
		"cols.a < 5",
		"-cols.a",
		"cols.a > 1 && true",
		"cols.a == 1 ? 'y' : 'n'",
		"round(cols.a, 2)",
		"clamp(cols.a, 0, 10)",
	} {
		p := Compile(src)
		require.NoError(t, p.Err(), src)
		v, err := p.Eval(schema.Row{"a": nil})
		assert.NoError(t, err, src)
		assert.Nil(t, v, src)
	}
}

func TestTernary(t *testing.T) {
	cols := schema.Row{"v": 180.0}
	assert.Equal(t, "ok", eval(t, "cols.v >= 176.675 ? 'ok' : 'defect'", cols))
	cols["v"] = 170.0
	assert.Equal(t, "defect", eval(t, "cols.v >= 176.675 ? 'ok' : 'defect'", cols))
}

func TestLazyEvaluation(t *testing.T) {
	// the untaken branch and the short-circuited side never run
	assert.Equal(t, 1.0, eval(t, "true ? 1 : 1/0", nil))
	assert.Equal(t, 2.0, eval(t, "false ? 1/0 : 2", nil))
	assert.Equal(t, false, eval(t, "false && 1/0 == 1", nil))
	assert.Equal(t, true, eval(t, "true || 1/0 == 1", nil))
}

func TestDivisionByZero(t *testing.T) {
	for _, src := range []string{"1/0", "1 % 0", "5 / (2-2)"} {
		p := Compile(src)
		require.NoError(t, p.Err(), src)
		v, err := p.Eval(nil)
		assert.Nil(t, v, src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "division by zero", src)
	}
}

func TestNonFiniteResult(t *testing.T) {
	p := Compile("1e308 * 10")
	require.NoError(t, p.Err())
	v, err := p.Eval(nil)
	assert.Nil(t, v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finite")
}

func TestNonFiniteHelperResult(t *testing.T) {
	// helpers hold the same contract as the operators: no infinity and
	// no NaN ever comes back as a value
	cols := schema.Row{"big": 1e308, "inf": math.Inf(1), "nan": math.NaN()}
	for _, src := range []string{
		"sum(cols.big, cols.big)",
		"avg(cols.big, cols.big)",
		"max(cols.inf, 1)",
		"round(2.5, 400)",
		"round(cols.big, -400)",
		"clamp(cols.nan, 0, 10)",
		"-cols.inf",
	} {
		p := Compile(src)
		require.NoError(t, p.Err(), src)
		v, err := p.Eval(cols)
		assert.Nil(t, v, src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "not finite", src)
	}
}

func TestTypeMismatch(t *testing.T) {
	for _, src := range []string{
		"'a' * 2",
		"1 + 'a'",
		"true < false",
		"1 == 'a'",
		"!5",
		"-'a'",
		"1 && true",
		"2 ? 1 : 0",
		"1 < 2 < 3", // chained comparison is a boolean compared with a number
	} {
		p := Compile(src)
		require.NoError(t, p.Err(), src)
		_, err := p.Eval(nil)
		assert.Error(t, err, src)
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 6.0, eval(t, "sum(1, 2, 3)", nil))
	assert.Equal(t, 0.0, eval(t, "sum()", nil))
	assert.Equal(t, 3.0, eval(t, "avg(2, 4)", nil))
	assert.Equal(t, 1.0, eval(t, "min(3, 1, 2)", nil))
	assert.Equal(t, 3.0, eval(t, "max(3, 1, 2)", nil))
	assert.Equal(t, 2.57, eval(t, "round(2.567, 2)", nil))
	assert.Equal(t, 3.0, eval(t, "round(2.5)", nil))
	assert.Equal(t, 1200.0, eval(t, "round(1234, -2)", nil))
	assert.Equal(t, 10.0, eval(t, "clamp(15, 0, 10)", nil))
	assert.Equal(t, 0.0, eval(t, "clamp(-1, 0, 10)", nil))
	assert.Equal(t, 5.0, eval(t, "clamp(5, 0, 10)", nil))
}

func TestHelpersFlattenMissing(t *testing.T) {
	cols := schema.Row{"a": 4.0, "b": nil, "c": 8.0}
	assert.Equal(t, 6.0, eval(t, "avg(cols.a, cols.b, cols.c)", cols))
	assert.Equal(t, 12.0, eval(t, "sum(cols.a, cols.b, cols.c)", cols))
	assert.Equal(t, 0.0, eval(t, "sum(cols.b, cols.b)", cols))
	assert.Nil(t, eval(t, "min(cols.b, cols.b)", cols))
	assert.Nil(t, eval(t, "avg(cols.b)", cols))
}

func TestTimeSlot(t *testing.T) {
	p := Compile("cols.base + t * 10")
	require.NoError(t, p.Err())
	cols := schema.Row{"base": 100.0}
	v, err := p.EvalSlot(cols, 2)
	require.NoError(t, err)
	assert.Equal(t, 120.0, v)

	_, err = p.Eval(cols)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time-series")
}

func TestRuleValueBinding(t *testing.T) {
	p := Compile("value < 168.35")
	require.NoError(t, p.Err())
	v, err := p.EvalRule(nil, 160.0)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = p.EvalRule(nil, 180.0)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = p.Eval(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule evaluation")
}

func TestCompileFailsClosed(t *testing.T) {
	for _, src := range []string{
		"",
		"   ",
		"1 +",
		"cols",
		"cols.",
		"cols[net]",
		"foo(1)",
		"x = 5",
		"'unterminated",
		"()",
		"1 ? 2",
		"round()",
		"round(1, 2, 3)",
		"clamp(1, 2)",
		"1 2",
		"import os",
		"1..2",
	} {
		p := Compile(src)
		require.Error(t, p.Err(), "source %q must not compile", src)
		v, err := p.Eval(schema.Row{"net": 1.0})
		assert.Nil(t, v, src)
		assert.Error(t, err, src)
	}
}

func TestProgramIsStateless(t *testing.T) {
	p := Compile("cols.a * 2")
	require.NoError(t, p.Err())
	for _, c := range []struct{ in, out float64 }{{2, 4}, {5, 10}, {2, 4}} {
		v, err := p.Eval(schema.Row{"a": c.in})
		require.NoError(t, err)
		assert.Equal(t, c.out, v)
	}
}
