package converter

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strings"

	"github.com/nconklindev/colmap/internal/engine"
	"github.com/nconklindev/colmap/internal/table"

	"github.com/xuri/excelize/v2"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the text encoding of a CSV export.
type Encoding string

const (
	EncodingUTF8BOM Encoding = "utf-8-sig"
	EncodingUTF8    Encoding = "utf-8"
	EncodingCP932   Encoding = "cp932"
)

// Format is the output file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Sheet1"

var (
	ErrUnencodable     = errors.Base("value cannot be represented in the output encoding")
	ErrUnknownEncoding = errors.Base("unknown output encoding")
	ErrUnknownFormat   = errors.Base("unknown output format")
)

// ParseEncoding accepts the canonical names and common aliases.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf-8-sig", "utf8-sig", "utf-8-bom", "utf8bom":
		return EncodingUTF8BOM, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "cp932", "shift_jis", "shift-jis", "sjis", "windows-31j", "ms932":
		return EncodingCP932, nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// ParseFormat accepts "csv" and "xlsx".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownFormat, s)
}

// WriteOptions controls CSV output.
type WriteOptions struct {
	Encoding Encoding
	CRLF     bool
}

// WriteCSV writes the header and one record per result row.
func WriteCSV(w io.Writer, res *engine.Result, opts WriteOptions) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.UseCRLF = opts.CRLF

	if err := cw.Write(res.Header()); err != nil {
		return errors.Errorf("writing header: %w", err)
	}
	for i := 0; i < res.Rows; i++ {
		if err := cw.Write(res.Record(i)); err != nil {
			return errors.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Errorf("flushing CSV: %w", err)
	}

	out, err := encode(buf.Bytes(), opts.Encoding, res)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	return nil
}

func encode(data []byte, enc Encoding, res *engine.Result) ([]byte, error) {
	switch enc {
	case EncodingUTF8:
		return data, nil
	case EncodingUTF8BOM, "":
		out, err := unicode.UTF8BOM.NewEncoder().Bytes(data)
		if err != nil {
			return nil, errors.Errorf("encoding UTF-8: %w", err)
		}
		return out, nil
	case EncodingCP932:
		out, err := japanese.ShiftJIS.NewEncoder().Bytes(data)
		if err != nil {
			return nil, unencodable(res, err)
		}
		return out, nil
	}
	return nil, errors.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
}

// unencodable finds the first cell CP932 cannot hold so the message can
// name it.
func unencodable(res *engine.Result, cause error) error {
	encoder := japanese.ShiftJIS.NewEncoder()
	for _, name := range res.Header() {
		if _, err := encoder.String(name); err != nil {
			return errors.Errorf("%w: header %q", ErrUnencodable, name)
		}
	}
	for _, col := range res.Columns {
		for i, v := range col.Values {
			if _, err := encoder.String(v.String()); err != nil {
				return errors.Errorf("%w: column %q row %d value %q", ErrUnencodable, col.Name, i+1, v.String())
			}
		}
	}
	return errors.Errorf("%w: %s", ErrUnencodable, cause.Error())
}

// WriteXLSX writes the result as a single-sheet workbook. Numbers become
// numeric cells and null cells are left empty.
func WriteXLSX(w io.Writer, res *engine.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(res.Columns))
	for i, name := range res.Header() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Errorf("writing header: %w", err)
	}

	for i := 0; i < res.Rows; i++ {
		row := make([]interface{}, len(res.Columns))
		for j, col := range res.Columns {
			v := col.Values[i]
			switch v.Kind() {
			case table.KindNumber:
				// Infinite values have no numeric cell form.
				if n, _ := v.Float(); !math.IsInf(n, 0) {
					row[j] = n
				} else {
					row[j] = v.String()
				}
			case table.KindNull:
				row[j] = nil
			default:
				row[j] = v.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Errorf("saving workbook: %w", err)
	}
	return nil
}
