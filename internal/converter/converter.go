// Package converter runs a full conversion: load the source file, apply a
// rule set, and write the result as CSV or XLSX.
package converter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/colmap/internal/engine"
	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/table"
	"github.com/nconklindev/colmap/internal/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const DefaultPreviewRows = 5

var ErrFileTooLarge = errors.Base("input file exceeds the size limit")

// Request describes one conversion.
type Request struct {
	InputFile   string
	OutputFile  string
	RuleSetName string
	Rules       rules.RuleSet
	Format      Format
	Write       WriteOptions
	Sentinel    string
	// MaxFileSize caps the input size in bytes; 0 means no limit.
	MaxFileSize int64
	PreviewRows int
}

// OutputPath derives the default output name: input base + "_converted".
func OutputPath(inputFile string, format Format) string {
	ext := filepath.Ext(inputFile)
	base := strings.TrimSuffix(inputFile, ext)
	if format == FormatXLSX {
		return base + "_converted.xlsx"
	}
	return base + "_converted.csv"
}

// Convert loads req.InputFile, applies req.Rules and writes req.OutputFile.
// Progress in [0,1] is sent on progressChan without blocking; the channel
// may be nil. Column failures do not fail the conversion; they are listed
// in FailedColumns.
func Convert(ctx context.Context, req Request, progressChan chan<- float64) (*types.ConversionResult, error) {
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", runID).
		Str("input", req.InputFile).
		Str("rule_set", req.RuleSetName).
		Logger()

	reportProgress := func(p float64) {
		if progressChan != nil {
			select {
			case progressChan <- p:
			default:
			}
		}
	}

	if req.OutputFile == "" {
		req.OutputFile = OutputPath(req.InputFile, req.Format)
	}
	logger.Info().Str("output", req.OutputFile).Msg("conversion started")

	source, err := loadInput(req)
	if err != nil {
		logger.Error().Err(err).Msg("load failed")
		return nil, err
	}
	reportProgress(0.3)
	logger.Debug().Int("rows", source.Len()).Strs("columns", source.Columns()).Msg("source loaded")

	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("conversion cancelled: %w", err)
	}

	res := engine.Apply(source, req.Rules, engine.Options{Sentinel: req.Sentinel})
	reportProgress(0.6)

	var failed []string
	for _, colErr := range res.Errors() {
		failed = append(failed, colErr.Column)
		logger.Warn().Err(colErr.Err).
			Str("column", colErr.Column).
			Int("rule_row", colErr.Index+1).
			Str("action", colErr.Action.String()).
			Msg("column filled with error sentinel")
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("conversion cancelled: %w", err)
	}

	if err := writeOutput(req, res); err != nil {
		logger.Error().Err(err).Msg("write failed")
		return nil, err
	}
	reportProgress(1.0)

	result := &types.ConversionResult{
		RunID:          runID,
		InputFile:      req.InputFile,
		OutputFile:     req.OutputFile,
		RuleSet:        req.RuleSetName,
		ColumnsWritten: res.Header(),
		FailedColumns:  failed,
		RowsProcessed:  res.Rows,
		Header:         res.Header(),
		Preview:        Preview(res, req.PreviewRows),
	}

	logger.Info().
		Int("rows", result.RowsProcessed).
		Int("columns", len(result.ColumnsWritten)).
		Int("failed_columns", len(failed)).
		Msg("conversion complete")

	return result, nil
}

func loadInput(req Request) (*table.Table, error) {
	info, err := os.Stat(req.InputFile)
	if err != nil {
		return nil, &table.LoadError{Filename: req.InputFile, Err: err}
	}
	if req.MaxFileSize > 0 && info.Size() > req.MaxFileSize {
		return nil, &table.LoadError{
			Filename: req.InputFile,
			Err:      errors.Errorf("%w: %d > %d bytes", ErrFileTooLarge, info.Size(), req.MaxFileSize),
		}
	}
	return table.LoadFile(req.InputFile)
}

func writeOutput(req Request, res *engine.Result) error {
	var buf bytes.Buffer
	switch req.Format {
	case FormatXLSX:
		if err := WriteXLSX(&buf, res); err != nil {
			return err
		}
	case FormatCSV, "":
		if err := WriteCSV(&buf, res, req.Write); err != nil {
			return err
		}
	default:
		return errors.Errorf("%w: %q", ErrUnknownFormat, string(req.Format))
	}

	// Nothing is written unless the whole output encoded cleanly.
	if err := os.WriteFile(req.OutputFile, buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing %s: %w", req.OutputFile, err)
	}
	return nil
}

// Preview renders the first n rows of res. n <= 0 uses DefaultPreviewRows.
func Preview(res *engine.Result, n int) [][]string {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	n = min(n, res.Rows)
	out := make([][]string, n)
	for i := range out {
		out[i] = res.Record(i)
	}
	return out
}
