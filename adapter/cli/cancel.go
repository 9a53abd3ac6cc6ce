package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
	tracking "github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Mark a subscription as cancelled and show where to cancel it",
	Long: `Mark a subscription as cancelled. The id may be the full UUID or
the short prefix printed by "subslayer list".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.CancelSubscriptionHandler == nil {
			return errNoDatabase
		}

		id, err := resolveSubscriptionID(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}

		result, err := app.CancelSubscriptionHandler.Handle(cmd.Context(), commands.CancelSubscriptionCommand{
			UserID:         app.CurrentUserID,
			SubscriptionID: id,
		})
		switch {
		case errors.Is(err, tracking.ErrNotFound):
			return fmt.Errorf("subscription %s not found", args[0])
		case errors.Is(err, tracking.ErrAlreadyCancelled):
			return fmt.Errorf("subscription %s is already cancelled", args[0])
		case err != nil:
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cancelled %s.\n", result.ServiceName)
		fmt.Fprintf(out, "Finish cancelling with the provider: %s\n", result.CancellationURL)
		return nil
	},
}

// resolveSubscriptionID accepts a full UUID or a unique prefix of one of
// the user's active subscriptions.
func resolveSubscriptionID(ctx context.Context, app *App, raw string) (uuid.UUID, error) {
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	if app.ListSubscriptionsHandler == nil {
		return uuid.Nil, fmt.Errorf("invalid id: %s", raw)
	}

	subs, err := app.ListSubscriptionsHandler.Handle(ctx, queries.ListSubscriptionsQuery{UserID: app.CurrentUserID})
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, s := range subs {
		if strings.HasPrefix(s.ID.String(), strings.ToLower(raw)) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("subscription %s not found", raw)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("id prefix %s is ambiguous", raw)
	}
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
