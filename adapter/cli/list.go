package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List active subscriptions by renewal date",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ListSubscriptionsHandler == nil {
			return errNoDatabase
		}

		subs, err := app.ListSubscriptionsHandler.Handle(cmd.Context(), queries.ListSubscriptionsQuery{UserID: app.CurrentUserID})
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(subs) == 0 {
			fmt.Fprintln(out, "No active subscriptions. Add one with: subslayer scan --save")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSERVICE\tCOST\tRENEWS\tIN\tCATEGORY")
		for _, s := range subs {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
				s.ID.String()[:8],
				s.ServiceName,
				s.Cost.StringFixed(2), s.Currency,
				s.RenewalDate,
				daysLabel(s.DaysUntilRenewal),
				s.Category,
			)
		}
		return w.Flush()
	},
}

func daysLabel(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("%dd ago", -days)
	case days == 0:
		return "today"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
