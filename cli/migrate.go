package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/warp/farm-ledger/inventory"
)

// MigrateResult reports what the migrate command wrote.
type MigrateResult struct {
	Migrated      bool `json:"migrated"`
	Categories    int  `json:"categories"`
	Activities    int  `json:"activities"`
	Discrepancies int  `json:"discrepancies"`
	StockCounts   int  `json:"stockCounts"`
	LegacyMirror  bool `json:"legacyMirror"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite stored data as a single ledger document",
		Long: `Loads the ledger (from the consolidated document, or from the older
per-collection keys when no document exists), repairs totals, and writes
the consolidated document back. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, rootOpts)
		},
	}
}

func runMigrate(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	repo := inventory.NewRepository(sess.store, sess.logger, sess.cfg.Ledger.MirrorLegacyKeys)
	state, migrated, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, state); err != nil {
		return err
	}

	res := MigrateResult{
		Migrated:      migrated,
		Categories:    len(state.Inventory),
		Activities:    len(state.Activities),
		Discrepancies: len(state.Discrepancies),
		StockCounts:   len(state.StockCounts),
		LegacyMirror:  sess.cfg.Ledger.MirrorLegacyKeys,
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Print(res, func(w io.Writer) error {
		source := "ledger document"
		if res.Migrated {
			source = "collection keys"
		}
		_, err := fmt.Fprintf(w, "Loaded from %s: %d categories, %d activities, %d discrepancies, %d stock counts\n",
			source, res.Categories, res.Activities, res.Discrepancies, res.StockCounts)
		return err
	})
}
