package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
)

var spendingCmd = &cobra.Command{
	Use:   "spending",
	Short: "Show monthly and yearly spend per currency",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.SpendingSummaryHandler == nil {
			return errNoDatabase
		}

		summary, err := app.SpendingSummaryHandler.Handle(cmd.Context(), queries.SpendingSummaryQuery{UserID: app.CurrentUserID})
		if err != nil {
			return fmt.Errorf("failed to compute spending: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(summary.Currencies) == 0 {
			fmt.Fprintln(out, "No active subscriptions.")
			return nil
		}
		for _, c := range summary.Currencies {
			fmt.Fprintf(out, "%s: %s/month, %s/year across %d subscription(s)\n",
				c.Currency, c.Monthly.StringFixed(2), c.Yearly.StringFixed(2), c.Subscriptions)
			for _, cat := range c.Categories {
				fmt.Fprintf(out, "  %-14s %10s  %s%%\n", cat.Category, cat.Monthly.StringFixed(2), cat.Percent.StringFixed(0))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(spendingCmd)
}
