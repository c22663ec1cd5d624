// Package cli implements the farm-ledger command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/warp/farm-ledger/config"
	"github.com/warp/farm-ledger/inventory"
	"github.com/warp/farm-ledger/kv"
	"github.com/warp/farm-ledger/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the farm-ledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "farm-ledger",
		Short: "Livestock inventory ledger",
		Long: `farm-ledger tracks animals per category and location, logs every
stock movement, reconciles physical counts and can undo past entries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewUndoCommand(opts))

	return cmd
}

// =============================================================================
// SESSION
// =============================================================================

// session is the config, logger and open store shared by every command.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	store  kv.Store
	close  func() error
}

func openSession(ctx context.Context, opts *RootOptions, logOut io.Writer) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, opts.Verbose, logOut)
	if err != nil {
		return nil, err
	}
	s, closeFn, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	logger.Debug("storage opened", "driver", cfg.Storage.Driver)
	return &session{cfg: cfg, logger: logger, store: s, close: closeFn}, nil
}

func (s *session) openLedger(ctx context.Context, extra ...inventory.Option) (*inventory.Ledger, error) {
	opts := []inventory.Option{
		inventory.WithLogger(s.logger),
		inventory.WithMaxActivities(s.cfg.Ledger.MaxActivities),
		inventory.WithLegacyMirror(s.cfg.Ledger.MirrorLegacyKeys),
	}
	return inventory.Open(ctx, s.store, append(opts, extra...)...)
}

// newLogger builds the slog logger described by cfg. verbose forces debug.
func newLogger(cfg config.LogConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}
