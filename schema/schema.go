// Package schema declares the table model of an inspection report:
// columns, sections, computed-column formulas and conditional
// formatting rules. The model is produced by an external editor,
// serialized as YAML or JSON, and consumed read-only by the
// computation engine.
package schema

import (
	"strings"

	"github.com/ansel1/merry"
	"github.com/hashicorp/go-multierror"
)

// ValueType is the kind of value a column's cells hold.
type ValueType string

const (
	TypeText    ValueType = "text"
	TypeNumber  ValueType = "number"
	TypeDate    ValueType = "date"
	TypeTime    ValueType = "time"
	TypeChoice  ValueType = "choice"
	TypeBoolean ValueType = "boolean"
)

func (x ValueType) Valid() bool {
	switch x {
	case TypeText, TypeNumber, TypeDate, TypeTime, TypeChoice, TypeBoolean:
		return true
	}
	return false
}

// Row maps column keys to entered or computed values: string, float64,
// bool or nil. Rows are owned by the caller. The engine copies what it
// needs and never mutates or retains them.
type Row map[string]any

// NormalizeValue maps a caller-supplied cell value onto the canonical
// value set: float64, string, bool or nil. Integer kinds widen to
// float64.
func NormalizeValue(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string, bool:
		return v, nil
	}
	return nil, merry.Errorf("unsupported value type %T", v)
}

// Rule is one conditional-formatting clause: when When evaluates true
// against the row, with the column's own value bound as value, the
// Class tag applies. Rules are ordered. The first match wins unless
// Continue lets evaluation carry on.
type Rule struct {
	When     string `json:"when" yaml:"when"`
	Class    string `json:"class" yaml:"class"`
	Continue bool   `json:"continue,omitempty" yaml:"continue,omitempty"`
}

// Column describes one field of a report row. A column with a Formula
// is computed and read-only: the engine overwrites whatever direct
// input it is handed under that key.
type Column struct {
	Key        string    `json:"key" yaml:"key"`
	Label      string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type       ValueType `json:"type" yaml:"type"`
	Choices    []string  `json:"choices,omitempty" yaml:"choices,omitempty"`
	Required   bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Min        *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step       *float64  `json:"step,omitempty" yaml:"step,omitempty"`
	Decimals   *int      `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Default    any       `json:"default,omitempty" yaml:"default,omitempty"`
	TimeSeries bool      `json:"time_series,omitempty" yaml:"time_series,omitempty"`
	Formula    string    `json:"formula,omitempty" yaml:"formula,omitempty"`
	Rules      []Rule    `json:"rules,omitempty" yaml:"rules,omitempty"`
}

func (c Column) Validate() error {
	var errs *multierror.Error
	if c.Key == "" {
		errs = multierror.Append(errs, merry.New("empty column key"))
	}
	if !c.Type.Valid() {
		errs = multierror.Append(errs, merry.Errorf("unknown value type %q", c.Type))
	}
	if c.Type == TypeChoice && len(c.Choices) == 0 {
		errs = multierror.Append(errs, merry.New("choice column must list its choices"))
	}
	if c.Type != TypeNumber && (c.Min != nil || c.Max != nil || c.Step != nil || c.Decimals != nil) {
		errs = multierror.Append(errs, merry.New("numeric constraints on a non-number column"))
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		errs = multierror.Append(errs, merry.Errorf("min %v greater than max %v", *c.Min, *c.Max))
	}
	if c.Formula != "" && c.Required {
		errs = multierror.Append(errs, merry.New("computed column cannot be a required input"))
	}
	for i, r := range c.Rules {
		if strings.TrimSpace(r.When) == "" {
			errs = multierror.Append(errs, merry.Errorf("rule %d: empty when expression", i))
		}
	}
	return errs.ErrorOrNil()
}

// Section groups consecutive table rows under a title.
type Section struct {
	Title string `json:"title" yaml:"title"`
	Rows  int    `json:"rows" yaml:"rows"`
}

// Table is the declarative schema of one inspection table. Long-lived,
// read-only after configuration, safe to share. Slots is the number of
// time slots a time-series column is evaluated over.
type Table struct {
	Columns        []Column  `json:"columns" yaml:"columns"`
	Rows           int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Slots          int       `json:"slots,omitempty" yaml:"slots,omitempty"`
	Sections       []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	Borders        bool      `json:"borders,omitempty" yaml:"borders,omitempty"`
	HeaderPosition string    `json:"header_position,omitempty" yaml:"header_position,omitempty"`
}

// RowCount is the table's total row count: the sum of section rows
// when sections are declared, the explicit Rows count otherwise.
func (x Table) RowCount() int {
	if len(x.Sections) == 0 {
		return x.Rows
	}
	n := 0
	for _, s := range x.Sections {
		n += s.Rows
	}
	return n
}

// ColumnByKey finds a column by its key.
func (x Table) ColumnByKey(key string) (Column, bool) {
	for _, c := range x.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Validate reports every configuration defect of the schema at once.
func (x Table) Validate() error {
	var errs *multierror.Error
	if len(x.Columns) == 0 {
		errs = multierror.Append(errs, merry.New("table has no columns"))
	}
	keys := make(map[string]struct{})
	for _, c := range x.Columns {
		if _, f := keys[c.Key]; f && c.Key != "" {
			errs = multierror.Append(errs, merry.Errorf("duplicate column key %q", c.Key))
		}
		keys[c.Key] = struct{}{}
		if err := c.Validate(); err != nil {
			errs = multierror.Append(errs, merry.Prependf(err, "column %q", c.Key))
		}
	}
	if x.Rows < 0 {
		errs = multierror.Append(errs, merry.Errorf("negative row count %d", x.Rows))
	}
	if x.Slots < 0 {
		errs = multierror.Append(errs, merry.Errorf("negative slot count %d", x.Slots))
	}
	for _, c := range x.Columns {
		if c.TimeSeries && c.Formula != "" && x.Slots == 0 {
			errs = multierror.Append(errs,
				merry.Errorf("time-series formula column %q needs a table slot count", c.Key))
		}
	}
	for i, s := range x.Sections {
		if s.Rows < 1 {
			errs = multierror.Append(errs, merry.Errorf("section %d %q: row count must be positive", i, s.Title))
		}
	}
	if x.Rows > 0 && len(x.Sections) > 0 && x.RowCount() != x.Rows {
		errs = multierror.Append(errs,
			merry.Errorf("explicit row count %d disagrees with section total %d", x.Rows, x.RowCount()))
	}
	return errs.ErrorOrNil()
}
