package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/ui"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var ErrNoRulesFile = errors.Base("no rules file given (use --rules or COLMAP_RULES_FILE)")

// NewRulesCmd groups the rule-file commands.
func NewRulesCmd(opts *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Create, inspect, import and export rule sets",
	}

	cmd.AddCommand(newRulesInitCmd(opts))
	cmd.AddCommand(newRulesShowCmd(opts))
	cmd.AddCommand(newRulesExportCSVCmd(opts))
	cmd.AddCommand(newRulesImportCSVCmd(opts))

	return cmd
}

func newRulesInitCmd(opts *RootOpts) *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a rules file holding the starter rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = opts.RulesFile
			}
			if output == "" {
				return errors.WithStack(ErrNoRulesFile)
			}
			if _, err := os.Stat(output); err == nil && !force {
				return errors.Errorf("%s already exists (use --force to overwrite)", output)
			}

			if err := rules.WriteFile(output, rules.NewDefaultStore()); err != nil {
				return err
			}
			opts.Logger.Info().Str("path", output).Msg("Rules file written")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "rules file to create (default --rules)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func newRulesShowCmd(opts *RootOpts) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print rule sets as tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := opts.Store.Names()
			if name != "" {
				if _, err := opts.Store.MustGet(name); err != nil {
					return err
				}
				names = []string{name}
			}

			out := cmd.OutOrStdout()
			for _, n := range names {
				set, _ := opts.Store.Get(n)
				fmt.Fprintln(out, ui.TitleStyle.Render(n))
				fmt.Fprintln(out, renderRuleSet(set))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "rule-set", "s", "", "show only this rule set")

	return cmd
}

func newRulesExportCSVCmd(opts *RootOpts) *cobra.Command {
	var (
		name   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export-csv",
		Short: "Write one rule set as a No,項目名,元列,処理,引数1 table",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := opts.Store.MustGet(name)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return rules.EncodeCSV(cmd.OutOrStdout(), set)
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Errorf("creating %s: %w", output, err)
			}
			if err := rules.EncodeCSV(f, set); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Errorf("closing %s: %w", output, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "rule-set", "s", "", "rule set to export")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file (default stdout)")
	_ = cmd.MarkFlagRequired("rule-set")

	return cmd
}

func newRulesImportCSVCmd(opts *RootOpts) *cobra.Command {
	var (
		name  string
		input string
	)

	cmd := &cobra.Command{
		Use:   "import-csv",
		Short: "Read a rule-set CSV into the rules file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.RulesFile == "" {
				return errors.WithStack(ErrNoRulesFile)
			}

			f, err := os.Open(input)
			if err != nil {
				return errors.Errorf("opening %s: %w", input, err)
			}
			defer f.Close()

			set, err := rules.DecodeCSV(f)
			if err != nil {
				return errors.Errorf("reading %s: %w", input, err)
			}

			opts.Store.Put(name, set)
			if err := rules.WriteFile(opts.RulesFile, opts.Store); err != nil {
				return err
			}

			opts.Logger.Info().
				Str("rule_set", name).
				Int("rows", len(set)).
				Str("path", opts.RulesFile).
				Msg("Rule set imported")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %q (%d rows) into %s\n", name, len(set), opts.RulesFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "rule-set", "s", "", "name to store the rule set under")
	cmd.Flags().StringVarP(&input, "input", "i", "", "rule-set CSV file")
	_ = cmd.MarkFlagRequired("rule-set")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func renderRuleSet(set rules.RuleSet) string {
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(ui.MutedStyle).
		Headers("No", "項目名", "元列", "処理", "引数1").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return ui.SelectedStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, spec := range set {
		t.Row(strconv.Itoa(spec.Sequence), spec.OutputName, spec.SourceColumn, spec.Action.Label(), spec.Argument)
	}
	return t.String()
}
