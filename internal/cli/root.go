// Package cli wires the cobra commands: the interactive UI at the root and
// the batch convert and rules commands beneath it.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/nconklindev/colmap/internal/config"
	"github.com/nconklindev/colmap/internal/logging"
	"github.com/nconklindev/colmap/internal/rules"
	"github.com/nconklindev/colmap/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// RootOpts is shared by every command once the root's pre-run has loaded
// configuration and rules.
type RootOpts struct {
	Config    *config.Config
	Store     *rules.Store
	RulesFile string
	Logger    zerolog.Logger

	debug  bool
	closer io.Closer
}

// Version identifies the build in --version output.
type Version struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCmd builds the command tree.
func NewRootCmd(v Version) *cobra.Command {
	opts := &RootOpts{}

	cmd := &cobra.Command{
		Use:           "colmap",
		Short:         "Reshape CSV and Excel files with column-mapping rule sets",
		Version:       v.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd, !cmd.HasParent())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closer != nil {
				return opts.closer.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ui.InitialModel(ui.Options{
				Store:     opts.Store,
				Config:    opts.Config,
				RulesFile: opts.RulesFile,
				Context:   opts.Logger.WithContext(cmd.Context()),
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return errors.Errorf("running UI: %w", err)
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("colmap {{.Version}}\ncommit: " + v.Commit + "\nbuilt: " + v.Date + "\n")

	cmd.PersistentFlags().StringVarP(&opts.RulesFile, "rules", "r", "", "rules YAML file (default $COLMAP_RULES_FILE)")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(NewConvertCmd(opts))
	cmd.AddCommand(NewRulesCmd(opts))

	return cmd
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, v Version) int {
	cmd := NewRootCmd(v)
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

func (o *RootOpts) setup(cmd *cobra.Command, interactive bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	if o.RulesFile == "" {
		o.RulesFile = cfg.Rules.File
	}
	o.Config = cfg

	logger, closer, err := logging.Setup(cfg.Logging, interactive)
	if err != nil {
		return err
	}
	o.Logger = logger
	o.closer = closer
	cmd.SetContext(logger.WithContext(cmd.Context()))

	store, err := loadStore(o.RulesFile)
	if err != nil {
		return err
	}
	o.Store = store

	logger.Debug().
		Str("rules_file", o.RulesFile).
		Strs("rule_sets", store.Names()).
		Msg("Rules loaded")

	return nil
}

// loadStore reads path, or returns the default store when path is empty or
// does not exist yet.
func loadStore(path string) (*rules.Store, error) {
	if path == "" {
		return rules.NewDefaultStore(), nil
	}
	store, err := rules.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return rules.NewDefaultStore(), nil
	}
	if err != nil {
		return nil, errors.Errorf("loading rules from %s: %w", path, err)
	}
	if store.Len() == 0 {
		store = rules.NewDefaultStore()
	}
	return store, nil
}
