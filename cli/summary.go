package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/farm-ledger/inventory"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals, open discrepancies and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, rootOpts, recent)
		},
	}

	cmd.Flags().IntVarP(&recent, "recent", "n", 5, "number of recent activities to show")
	return cmd
}

func runSummary(cmd *cobra.Command, opts *RootOptions, recent int) error {
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
	dash := ledger.Dashboard(recent)

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Print(dash, func(w io.Writer) error {
		return writeDashboard(w, dash)
	})
}

func writeDashboard(w io.Writer, d inventory.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total animals:\t%d\n", d.TotalAnimals)
	fmt.Fprintf(tw, "Unresolved discrepancies:\t%d\n", d.UnresolvedDiscrepancies)

	if len(d.Categories) > 0 {
		fmt.Fprintln(tw, "\nCATEGORY\tANIMALS")
		for _, c := range d.Categories {
			fmt.Fprintf(tw, "%s\t%d\n", c.Category, c.Total)
		}
	}

	if len(d.RecentActivities) > 0 {
		fmt.Fprintln(tw, "\nDATE\tTYPE\tCATEGORY\tQTY\tID")
		for _, a := range d.RecentActivities {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", a.Date, a.Type, a.Category, a.Quantity, a.ID)
		}
	}
	return tw.Flush()
}
