package cli

import (
	"errors"

	"github.com/google/uuid"

	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	notificationApp "github.com/felixgeelhaar/subslayer/internal/notification/application"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
)

// errNoDatabase is returned by commands that need a wired application.
var errNoDatabase = errors.New("this command requires a database connection; check DATABASE_URL or SQLITE_PATH")

// App holds the CLI application dependencies.
type App struct {
	ParseEmailHandler         *extractionCommands.ParseEmailHandler
	CreateSubscriptionHandler *commands.CreateSubscriptionHandler
	CancelSubscriptionHandler *commands.CancelSubscriptionHandler
	ListSubscriptionsHandler  *queries.ListSubscriptionsHandler
	SpendingSummaryHandler    *queries.SpendingSummaryHandler
	RenewalChecker            *notificationApp.RenewalChecker

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	parseEmailHandler *extractionCommands.ParseEmailHandler,
	createSubscriptionHandler *commands.CreateSubscriptionHandler,
	cancelSubscriptionHandler *commands.CancelSubscriptionHandler,
	listSubscriptionsHandler *queries.ListSubscriptionsHandler,
	spendingSummaryHandler *queries.SpendingSummaryHandler,
	renewalChecker *notificationApp.RenewalChecker,
) *App {
	return &App{
		ParseEmailHandler:         parseEmailHandler,
		CreateSubscriptionHandler: createSubscriptionHandler,
		CancelSubscriptionHandler: cancelSubscriptionHandler,
		ListSubscriptionsHandler:  listSubscriptionsHandler,
		SpendingSummaryHandler:    spendingSummaryHandler,
		RenewalChecker:            renewalChecker,
		CurrentUserID:             uuid.Nil,
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

var app *App

// SetApp sets the global CLI app instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI app instance.
func GetApp() *App {
	return app
}
