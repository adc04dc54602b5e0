package rules

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Column headers of the five-field rule table.
const (
	FieldNo       = "No"
	FieldOutput   = "項目名"
	FieldSource   = "元列"
	FieldAction   = "処理"
	FieldArgument = "引数1"
)

var tableFields = []string{FieldNo, FieldOutput, FieldSource, FieldAction, FieldArgument}

// EncodeCSV writes one rule set as the five-field rule table.
func EncodeCSV(w io.Writer, set RuleSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableFields); err != nil {
		return errors.Errorf("writing rule table header: %w", err)
	}
	for _, c := range set {
		record := []string{strconv.Itoa(c.Sequence), c.OutputName, c.SourceColumn, c.Action.Label(), c.Argument}
		if err := cw.Write(record); err != nil {
			return errors.Errorf("writing rule row %d: %w", c.Sequence, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads a five-field rule table. Columns may appear in any order
// but all five must be present.
func DecodeCSV(r io.Reader) (RuleSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rule table is empty")
		}
		return nil, errors.Errorf("reading rule table header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, f := range tableFields {
		if _, ok := pos[f]; !ok {
			return nil, errors.Errorf("rule table missing column %q", f)
		}
	}

	var set RuleSet
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading rule table: %w", err)
		}
		get := func(field string) string {
			if i := pos[field]; i < len(record) {
				return record[i]
			}
			return ""
		}

		seq := len(set) + 1
		if no := strings.TrimSpace(get(FieldNo)); no != "" {
			n, err := strconv.Atoi(no)
			if err != nil {
				return nil, errors.Errorf("line %d: invalid No %q", line, no)
			}
			seq = n
		}
		set = append(set, ColumnSpec{
			Sequence:     seq,
			OutputName:   get(FieldOutput),
			SourceColumn: get(FieldSource),
			Action:       ParseAction(get(FieldAction)),
			Argument:     get(FieldArgument),
		})
	}
	return set, nil
}
