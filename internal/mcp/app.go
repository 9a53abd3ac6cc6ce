package mcp

import (
	"github.com/felixgeelhaar/subslayer/adapter/cli"
	"github.com/felixgeelhaar/subslayer/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cliApp := cli.NewApp(
		container.ParseEmail,
		container.CreateSubscription,
		container.CancelSubscription,
		container.ListSubscriptions,
		container.SpendingSummary,
		container.RenewalChecker,
	)
	cliApp.SetCurrentUserID(container.CurrentUserID)
	return cliApp
}
