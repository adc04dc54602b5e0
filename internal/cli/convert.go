package cli

import (
	"fmt"
	"strings"

	"github.com/nconklindev/colmap/internal/converter"
	"github.com/nconklindev/colmap/internal/rules"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewConvertCmd creates the batch conversion command.
func NewConvertCmd(opts *RootOpts) *cobra.Command {
	var (
		input    string
		output   string
		ruleSet  string
		encoding string
		format   string
		sentinel string
		crlf     bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Apply a rule set to a CSV or Excel file",
		Long: `Convert reads the first sheet of an Excel file, or a CSV in UTF-8 or CP932,
applies the chosen rule set and writes the reshaped table.

Columns whose transform fails are filled with the error sentinel and
listed on stderr; the command still succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.Config

			if ruleSet == "" {
				names := opts.Store.Names()
				if len(names) == 0 {
					return errors.WithStack(rules.ErrNotFound)
				}
				ruleSet = names[0]
			}
			set, err := opts.Store.MustGet(ruleSet)
			if err != nil {
				return err
			}

			if encoding == "" {
				encoding = cfg.Output.Encoding
			}
			enc, err := converter.ParseEncoding(encoding)
			if err != nil {
				return err
			}

			if format == "" {
				format = cfg.Output.Format
			}
			fmtOut, err := converter.ParseFormat(format)
			if err != nil {
				return err
			}

			if output == "" {
				output = converter.OutputPath(input, fmtOut)
			}
			if sentinel == "" {
				sentinel = cfg.Output.ErrorSentinel
			}

			result, err := converter.Convert(ctx, converter.Request{
				InputFile:   input,
				OutputFile:  output,
				RuleSetName: ruleSet,
				Rules:       set,
				Format:      fmtOut,
				Write:       converter.WriteOptions{Encoding: enc, CRLF: crlf || cfg.Output.CRLF()},
				Sentinel:    sentinel,
				MaxFileSize: cfg.Input.MaxFileSize,
				PreviewRows: cfg.UI.PreviewRows,
			}, nil)
			if err != nil {
				return errors.Errorf("converting %s: %w", input, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s -> %s\n", result.InputFile, result.OutputFile)
			fmt.Fprintf(out, "rule set %q: %d rows, %d columns\n", result.RuleSet, result.RowsProcessed, len(result.ColumnsWritten))
			if len(result.FailedColumns) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed columns (filled with %q): %s\n", sentinel, strings.Join(result.FailedColumns, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input .csv, .xlsx or .xlsm file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <input>_converted.<format>)")
	cmd.Flags().StringVarP(&ruleSet, "rule-set", "s", "", "rule set name (default first rule set)")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "CSV encoding: utf-8-sig, utf-8 or cp932")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: csv or xlsx")
	cmd.Flags().StringVar(&sentinel, "sentinel", "", "value written into failed columns")
	cmd.Flags().BoolVar(&crlf, "crlf", false, "end CSV lines with CRLF")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
