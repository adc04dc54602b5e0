// Package engine applies a rule set to a source table.
//
// Apply is a pure function of its inputs. Each output column is computed
// independently; a column whose transform fails is filled with the error
// sentinel and reported in Result.Errors, and the other columns are
// unaffected. No error ever escapes Apply.
package engine

import (
	"strconv"
	"strings"

	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/table"

	"gitlab.com/tozd/go/errors"
)

const DefaultSentinel = "ERROR"

// Options tunes Apply. The zero value uses DefaultSentinel.
type Options struct {
	Sentinel string
}

func (o Options) sentinel() string {
	if o.Sentinel == "" {
		return DefaultSentinel
	}
	return o.Sentinel
}

// ColumnError describes why one output column holds the sentinel.
type ColumnError struct {
	// Index is the rule row that produced the column.
	Index  int
	Column string
	Action rules.Action
	Err    error
}

func (e *ColumnError) Error() string {
	return "column " + strconv.Quote(e.Column) + " (" + e.Action.String() + "): " + e.Err.Error()
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// Column is one output column.
type Column struct {
	Name   string
	Values []table.Value
	// Err is set when Values is the sentinel fill.
	Err *ColumnError
}

// Result is the output table plus its per-column diagnostics.
type Result struct {
	Columns []Column
	Rows    int
}

// Header returns the output column names in order.
func (r *Result) Header() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the named output column.
func (r *Result) Column(name string) ([]table.Value, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Record returns row i rendered as CSV fields.
func (r *Result) Record(i int) []string {
	out := make([]string, len(r.Columns))
	for j, c := range r.Columns {
		out[j] = c.Values[i].String()
	}
	return out
}

// Errors lists the failed columns in output order.
func (r *Result) Errors() []*ColumnError {
	var out []*ColumnError
	for _, c := range r.Columns {
		if c.Err != nil {
			out = append(out, c.Err)
		}
	}
	return out
}

// Apply builds the output table for source under set.
//
// Columns appear in the order their output name is first used; a later
// rule row with the same name replaces the values but keeps the position.
// Rows with a blank output name are skipped.
func Apply(source *table.Table, set rules.RuleSet, opts Options) *Result {
	rows := source.Len()
	res := &Result{Rows: rows}
	position := make(map[string]int, len(set))

	for i, spec := range set {
		if spec.Skipped() {
			continue
		}

		col := Column{Name: spec.OutputName}
		values, err := applySpec(source, spec)
		if err != nil {
			col.Err = &ColumnError{Index: i, Column: spec.OutputName, Action: spec.Action, Err: err}
			col.Values = fill(table.Text(opts.sentinel()), rows)
		} else {
			col.Values = values
		}

		if p, ok := position[col.Name]; ok {
			res.Columns[p] = col
			continue
		}
		position[col.Name] = len(res.Columns)
		res.Columns = append(res.Columns, col)
	}
	return res
}

func applySpec(source *table.Table, spec rules.ColumnSpec) ([]table.Value, error) {
	op, err := spec.Compile()
	if err != nil {
		return nil, err
	}
	if op.Action == rules.Constant {
		return fill(table.Text(op.Literal), source.Len()), nil
	}
	return transform(op, inputSeries(source, spec.SourceColumn))
}

// inputSeries copies the source column, or returns empty text cells when
// the column does not exist.
func inputSeries(source *table.Table, name string) []table.Value {
	if cells, ok := source.Column(name); ok {
		return table.Texts(cells)
	}
	return fill(table.Text(""), source.Len())
}

func fill(v table.Value, n int) []table.Value {
	out := make([]table.Value, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func transform(op rules.Op, in []table.Value) ([]table.Value, error) {
	switch op.Action {
	case rules.LeftExtract:
		return mapValues(in, func(v table.Value) table.Value {
			r := []rune(v.String())
			return table.Text(string(r[:min(op.Length, len(r))]))
		}), nil

	case rules.RightExtract:
		return mapValues(in, func(v table.Value) table.Value {
			r := []rune(v.String())
			return table.Text(string(r[len(r)-min(op.Length, len(r)):]))
		}), nil

	case rules.DateYYYYMMDD:
		return mapValues(in, func(v table.Value) table.Value {
			if t, ok := parseDate(v.String()); ok {
				return table.Text(t.Format("20060102"))
			}
			return table.Null()
		}), nil

	case rules.Multiply:
		return mapValues(in, func(v table.Value) table.Value {
			n, ok := toNumber(v)
			if !ok {
				return table.Null()
			}
			return table.Number(n * op.Factor)
		}), nil

	default:
		return mapValues(in, func(v table.Value) table.Value { return v }), nil
	}
}

func mapValues(in []table.Value, fn func(table.Value) table.Value) []table.Value {
	out := make([]table.Value, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// toNumber coerces a cell to a number; blank and non-numeric text fail.
func toNumber(v table.Value) (float64, bool) {
	switch v.Kind() {
	case table.KindNumber:
		return v.Float()
	case table.KindText:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			var numErr *strconv.NumError
			if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
				return 0, false
			}
		}
		return f, true
	default:
		return 0, false
	}
}
