package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
)

var (
	scanFile string
	scanSave bool
	scanJSON bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [email text]",
	Short: "Extract a subscription from a receipt email",
	Long: `Extract the service, cost, currency and renewal date from a
subscription email using the configured extraction provider.

The email text is read from --file, from the arguments, or from stdin.

Examples:
  subslayer scan --file receipt.eml
  pbpaste | subslayer scan --save
  subslayer scan "Your Netflix plan renews on Jan 15 for $15.99"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ParseEmailHandler == nil {
			return errNoDatabase
		}

		text, err := readEmailText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		result, err := app.ParseEmailHandler.Handle(cmd.Context(), extractionCommands.ParseEmailCommand{EmailText: text})
		if err != nil {
			return fmt.Errorf("failed to parse email: %w", err)
		}
		parsed := result.Subscription

		out := cmd.OutOrStdout()
		if scanJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(parsed); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(out, "Subscription found!")
			fmt.Fprintf(out, "  Service: %s\n", parsed.ServiceName)
			fmt.Fprintf(out, "  Cost:    %.2f %s\n", parsed.Cost, parsed.Currency)
			fmt.Fprintf(out, "  Renews:  %s\n", parsed.RenewalDate)
			if parsed.CancellationURL != nil {
				fmt.Fprintf(out, "  Cancel:  %s\n", *parsed.CancellationURL)
			}
		}

		if !scanSave {
			return nil
		}
		if app.CreateSubscriptionHandler == nil {
			return errNoDatabase
		}
		created, err := app.CreateSubscriptionHandler.Handle(cmd.Context(), commands.CommandFromParsed(app.CurrentUserID, parsed))
		if err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
		if !scanJSON {
			fmt.Fprintf(out, "Saved as %s\n", created.Subscription.ID)
		}
		return nil
	},
}

func readEmailText(stdin io.Reader, args []string) (string, error) {
	switch {
	case scanFile != "":
		data, err := security.SafeReadFile(scanFile, security.MaxEmailFileBytes)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", scanFile, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
}

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "read the email from a file")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "save the extracted subscription")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the extraction as JSON")
	rootCmd.AddCommand(scanCmd)
}
