package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind classifies a Value.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindNull
)

// Value is one cell of a result column. The zero Value is empty text.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric cell. NaN is stored as Null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindNumber, num: f}
}

// Null returns the missing-value marker.
func Null() Value {
	return Value{kind: KindNull}
}

// Texts wraps each string as a text cell.
func Texts(ss []string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = Text(s)
	}
	return out
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders the cell as it is written to CSV: text verbatim, numbers
// via FormatFloat, null as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatFloat(v.num)
	case KindNull:
		return ""
	default:
		return v.text
	}
}

// FormatFloat renders f as the shortest round-trip decimal, keeping a ".0"
// on integral values and switching to exponent form outside [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
