package table

import (
	"fmt"
	"strings"
)

const sampleSeparator = " （例: "

// Sample describes one column for the linking screen: its name and the
// first data row's value.
type Sample struct {
	Column  string
	Example string
}

// Label renders the sample the way the column picker shows it.
func (s Sample) Label() string {
	return fmt.Sprintf("%s%s%s）", s.Column, sampleSeparator, s.Example)
}

// Samples returns one sample per column. Examples longer than maxLen runes
// are cut and suffixed with "...". A table without rows has empty examples.
func (t *Table) Samples(maxLen int) []Sample {
	out := make([]Sample, len(t.columns))
	for i, c := range t.columns {
		var example string
		if len(t.rows) > 0 {
			example = t.rows[0][i]
		}
		if r := []rune(example); maxLen > 0 && len(r) > maxLen {
			example = string(r[:maxLen]) + "..."
		}
		out[i] = Sample{Column: c, Example: example}
	}
	return out
}

// ColumnFromLabel recovers the column name from a sample label.
func ColumnFromLabel(label string) string {
	name, _, _ := strings.Cut(label, sampleSeparator)
	return name
}
