package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renewalsCmd = &cobra.Command{
	Use:   "renewals",
	Short: "Renewal reminders",
}

var renewalsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Send reminders for subscriptions renewing soon",
	Long: `Run one renewal check: every user with an active subscription
renewing within the reminder window gets one reminder. Users already
reminded today are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.RenewalChecker == nil {
			return errNoDatabase
		}

		result, err := app.RenewalChecker.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("renewal check failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Subscriptions renewing: %d\n", result.SubscriptionsFound)
		fmt.Fprintf(out, "Users:                  %d\n", result.UsersNotified)
		fmt.Fprintf(out, "Reminders sent:         %d\n", result.EmailsSent)
		if result.Skipped > 0 {
			fmt.Fprintf(out, "Skipped:                %d\n", result.Skipped)
		}
		if result.Failed > 0 {
			fmt.Fprintf(out, "Failed:                 %d\n", result.Failed)
		}
		return nil
	},
}

func init() {
	renewalsCmd.AddCommand(renewalsCheckCmd)
	rootCmd.AddCommand(renewalsCmd)
}
