// Package rules defines column-mapping rule sets, the in-memory store that
// holds them, and their YAML and CSV table forms.
package rules

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var ErrIndex = errors.Base("rule row out of range")

// ColumnSpec is one row of a rule set: one output column.
type ColumnSpec struct {
	// Sequence is a display hint only; row order is the slice order.
	Sequence     int
	OutputName   string
	SourceColumn string
	Action       Action
	Argument     string
}

// Skipped reports whether the row produces no output column.
func (c ColumnSpec) Skipped() bool {
	return strings.TrimSpace(c.OutputName) == ""
}

// RuleSet is an ordered list of column specs.
type RuleSet []ColumnSpec

// NewBlank returns a rule set of n passthrough rows named prefix1..prefixN.
func NewBlank(n int, prefix string) RuleSet {
	set := make(RuleSet, n)
	for i := range set {
		set[i] = ColumnSpec{
			Sequence:   i + 1,
			OutputName: fmt.Sprintf("%s%d", prefix, i+1),
			Action:     Passthrough,
		}
	}
	return set
}

// Clone returns a copy that shares no storage with r.
func (r RuleSet) Clone() RuleSet {
	if r == nil {
		return nil
	}
	out := make(RuleSet, len(r))
	copy(out, r)
	return out
}

func (r RuleSet) check(i int) error {
	if i < 0 || i >= len(r) {
		return errors.Errorf("%w: %d (have %d rows)", ErrIndex, i, len(r))
	}
	return nil
}

// Link sets the source column of row i.
func (r RuleSet) Link(i int, column string) error {
	if err := r.check(i); err != nil {
		return err
	}
	r[i].SourceColumn = column
	return nil
}

// Clear removes the source column of row i.
func (r RuleSet) Clear(i int) error {
	return r.Link(i, "")
}

// Append adds a blank passthrough row numbered after the highest sequence.
func (r RuleSet) Append() RuleSet {
	next := 0
	for _, c := range r {
		if c.Sequence > next {
			next = c.Sequence
		}
	}
	return append(r, ColumnSpec{Sequence: next + 1, Action: Passthrough})
}

// Remove deletes row i.
func (r RuleSet) Remove(i int) (RuleSet, error) {
	if err := r.check(i); err != nil {
		return r, err
	}
	out := make(RuleSet, 0, len(r)-1)
	out = append(out, r[:i]...)
	return append(out, r[i+1:]...), nil
}
