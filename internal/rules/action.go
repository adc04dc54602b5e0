package rules

import (
	"math"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Action is the transform applied to one source column to produce one output column.
type Action int

const (
	Passthrough Action = iota
	LeftExtract
	RightExtract
	DateYYYYMMDD
	Multiply
	Constant
)

var (
	ErrInvalidLength = errors.Base("extract length must be a non-negative integer")
	ErrInvalidFactor = errors.Base("multiply factor must be a number")
)

var actionKeywords = [...]string{
	Passthrough:  "passthrough",
	LeftExtract:  "left-extract",
	RightExtract: "right-extract",
	DateYYYYMMDD: "date-format-yyyymmdd",
	Multiply:     "multiply",
	Constant:     "constant",
}

// Labels used by the rule table the operators already know.
var actionLabels = [...]string{
	Passthrough:  "そのまま",
	LeftExtract:  "左から抽出",
	RightExtract: "右から抽出",
	DateYYYYMMDD: "日付変換(yyyymmdd)",
	Multiply:     "乗算",
	Constant:     "固定値",
}

// Actions returns every action in display order.
func Actions() []Action {
	return []Action{Passthrough, LeftExtract, RightExtract, DateYYYYMMDD, Multiply, Constant}
}

// ParseAction resolves a keyword or label. Anything unrecognized is Passthrough.
func ParseAction(s string) Action {
	s = strings.TrimSpace(s)
	for i, kw := range actionKeywords {
		if strings.EqualFold(s, kw) || s == actionLabels[i] {
			return Action(i)
		}
	}
	return Passthrough
}

func (a Action) valid() bool {
	return a >= Passthrough && a <= Constant
}

// String returns the keyword form of the action.
func (a Action) String() string {
	if !a.valid() {
		return actionKeywords[Passthrough]
	}
	return actionKeywords[a]
}

// Label returns the display label of the action.
func (a Action) Label() string {
	if !a.valid() {
		return actionLabels[Passthrough]
	}
	return actionLabels[a]
}

// Next cycles through the actions, wrapping after Constant.
func (a Action) Next() Action {
	if !a.valid() || a == Constant {
		return Passthrough
	}
	return a + 1
}

// Op is a compiled ColumnSpec: the action plus its typed argument.
type Op struct {
	Action  Action
	Length  int
	Factor  float64
	Literal string
}

// ArgumentError reports an argument that cannot be used by its action.
type ArgumentError struct {
	Action   Action
	Argument string
	Err      error
}

func (e *ArgumentError) Error() string {
	return "invalid argument " + strconv.Quote(e.Argument) + " for " + e.Action.String() + ": " + e.Err.Error()
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Compile validates the argument against the row's action.
//
// A blank extract length is 0 and a blank multiply factor is 1.0. Any other
// argument that does not parse is an *ArgumentError.
func (c ColumnSpec) Compile() (Op, error) {
	op := Op{Action: c.Action}
	if !op.Action.valid() {
		op.Action = Passthrough
	}

	arg := strings.TrimSpace(c.Argument)
	switch op.Action {
	case LeftExtract, RightExtract:
		if arg == "" {
			return op, nil
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return op, &ArgumentError{Action: op.Action, Argument: c.Argument, Err: ErrInvalidLength}
		}
		op.Length = n
	case Multiply:
		op.Factor = 1.0
		if arg == "" {
			return op, nil
		}
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil && !isRangeErr(err, f) {
			return op, &ArgumentError{Action: op.Action, Argument: c.Argument, Err: ErrInvalidFactor}
		}
		op.Factor = f
	case Constant:
		// The literal is used as typed, surrounding spaces included.
		op.Literal = c.Argument
	}
	return op, nil
}

// ParseFloat reports ErrRange with ±Inf for overflowing input, which is still a number.
func isRangeErr(err error, f float64) bool {
	var numErr *strconv.NumError
	return errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && math.IsInf(f, 0)
}
