package table

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/japanese"
)

var (
	ErrEmptyFile    = errors.Base("no columns to parse from file")
	ErrUndecodable  = errors.Base("text is neither UTF-8 nor CP932")
	ErrNoWorksheets = errors.Base("workbook has no worksheets")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadError is returned for any file that cannot be turned into a table.
type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return "reading " + filepath.Base(e.Filename) + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load parses an uploaded file. Names ending in .csv are read as CSV, first
// as UTF-8 and then as CP932; anything else is read as a workbook, using the
// first sheet with its first row as the header.
func Load(data []byte, filename string) (*Table, error) {
	var (
		t   *Table
		err error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		t, err = loadCSV(data)
	} else {
		t, err = loadWorkbook(data)
	}
	if err != nil {
		return nil, &LoadError{Filename: filename, Err: err}
	}
	return t, nil
}

// LoadFile reads path and parses it with Load.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Filename: path, Err: err}
	}
	return Load(data, path)
}

// DecodeText returns data as UTF-8, stripping a UTF-8 byte-order mark.
// Input that is not valid UTF-8 is decoded as CP932 from the start.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Errorf("%w: %s", ErrUndecodable, err.Error())
	}
	// The decoder substitutes U+FFFD for byte sequences it cannot map.
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", errors.WithStack(ErrUndecodable)
	}
	return string(decoded), nil
}

func loadCSV(data []byte) (*Table, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Errorf("parsing CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, errors.WithStack(ErrEmptyFile)
	}

	return New(records[0], records[1:])
}

func loadWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.WithStack(ErrNoWorksheets)
	}

	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Errorf("reading sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Errorf("reading sheet %q: %w", sheet, err)
	}
	if err := useStoredNumbers(f, sheet, rows, raw); err != nil {
		return nil, err
	}

	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return New(nil, nil)
	}

	// Cells to the right of the header get unnamed columns.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	copy(header, rows[0])

	return New(header, rows[1:])
}

// useStoredNumbers replaces display text such as "1,234.50" or "25%" with
// the stored number. Date and boolean cells keep their display text.
func useStoredNumbers(f *excelize.File, sheet string, rows, raw [][]string) error {
	for r, row := range rows {
		if r >= len(raw) {
			break
		}
		for c, cell := range row {
			if c >= len(raw[r]) || raw[r][c] == cell {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.WithStack(err)
			}
			keep, err := keepDisplayText(f, sheet, axis)
			if err != nil {
				return errors.Errorf("reading cell %s: %w", axis, err)
			}
			if !keep {
				row[c] = raw[r][c]
			}
		}
	}
	return nil
}

func keepDisplayText(f *excelize.File, sheet, axis string) (bool, error) {
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return false, err
	}
	if typ == excelize.CellTypeBool {
		return true, nil
	}

	id, err := f.GetCellStyle(sheet, axis)
	if err != nil {
		return false, err
	}
	style, err := f.GetStyle(id)
	if err != nil {
		return false, err
	}
	return isDateFormat(style), nil
}

// Built-in number formats 14-22, 27-36, 45-47 and 50-58 are dates or times.
func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

var formatLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

func isDateFormat(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if isBuiltinDateFormat(style.NumFmt) {
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	code := formatLiterals.ReplaceAllString(strings.ToLower(*style.CustomNumFmt), "")
	return strings.ContainsAny(code, "ymdhs")
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if cell != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
