package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/warp/farm-ledger/inventory"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	var reason, date string

	cmd := &cobra.Command{
		Use:   "undo <activity-id>",
		Short: "Reverse a logged activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(cmd, rootOpts, inventory.UndoInput{
				ActivityID: args[0],
				Reason:     reason,
				Date:       date,
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the activity is being reversed (required)")
	cmd.Flags().StringVar(&date, "date", "", "reversal date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func runUndo(cmd *cobra.Command, opts *RootOptions, in inventory.UndoInput) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	ledger, err := sess.openLedger(ctx)
	if err != nil {
		return err
	}
	reversal, err := ledger.Undo(ctx, in)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Print(reversal, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Reversed %s %s (%d %s); reversal %s\n",
			reversal.OriginalType, in.ActivityID, reversal.Quantity, reversal.Category, reversal.ID)
		return err
	})
}
