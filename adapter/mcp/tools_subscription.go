package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/subslayer/adapter/cli"
	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	extraction "github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	notificationApp "github.com/felixgeelhaar/subslayer/internal/notification/application"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
)

type scanInput struct {
	EmailText string `json:"email_text" jsonschema:"required"`
	Save      bool   `json:"save,omitempty"`
}

type scanOutput struct {
	Subscription   *extraction.ParsedSubscription `json:"subscription"`
	SavedID        string                         `json:"saved_id,omitempty"`
	FailureReason  string                         `json:"failure_reason,omitempty"`
	FailureMessage string                         `json:"failure_message,omitempty"`
}

type addInput struct {
	ServiceName     string  `json:"service_name" jsonschema:"required"`
	Cost            float64 `json:"cost" jsonschema:"required"`
	Currency        string  `json:"currency,omitempty"`
	RenewalDate     string  `json:"renewal_date" jsonschema:"required"`
	CancellationURL string  `json:"cancellation_url,omitempty"`
	WebsiteURL      string  `json:"website_url,omitempty"`
}

type cancelInput struct {
	SubscriptionID string `json:"subscription_id" jsonschema:"required"`
}

type emptyInput struct{}

// subscriptionTools holds the tool handlers so they can be exercised
// without a transport.
type subscriptionTools struct {
	app *cli.App
}

func registerSubscriptionTools(srv *mcp.Server, deps ToolDependencies) error {
	t := subscriptionTools{app: deps.App}

	srv.Tool("subscriptions.scan").
		Description("Extract a subscription (service, cost, currency, renewal date) from a receipt email; optionally save it").
		Handler(t.scan)

	srv.Tool("subscriptions.add").
		Description("Add a subscription with known details").
		Handler(t.add)

	srv.Tool("subscriptions.list").
		Description("List active subscriptions ordered by renewal date").
		Handler(t.list)

	srv.Tool("subscriptions.cancel").
		Description("Mark a subscription cancelled and return the provider's cancellation page").
		Handler(t.cancel)

	srv.Tool("subscriptions.spending").
		Description("Monthly and yearly spend per currency with a category breakdown").
		Handler(t.spending)

	srv.Tool("renewals.check").
		Description("Send reminders for subscriptions renewing within the reminder window").
		Handler(t.checkRenewals)

	return nil
}

func (t subscriptionTools) scan(ctx context.Context, input scanInput) (*scanOutput, error) {
	if t.app.ParseEmailHandler == nil {
		return nil, errors.New("scanning requires an extraction provider")
	}
	result, err := t.app.ParseEmailHandler.Handle(ctx, extractionCommands.ParseEmailCommand{EmailText: input.EmailText})
	if err != nil {
		// Extraction failures are answers, not tool errors.
		return &scanOutput{FailureReason: extraction.Reason(err), FailureMessage: err.Error()}, nil
	}

	out := &scanOutput{Subscription: result.Subscription}
	if !input.Save {
		return out, nil
	}
	if t.app.CreateSubscriptionHandler == nil {
		return nil, errors.New("saving requires database connection")
	}
	created, err := t.app.CreateSubscriptionHandler.Handle(ctx, commands.CommandFromParsed(t.app.CurrentUserID, result.Subscription))
	if err != nil {
		return nil, err
	}
	out.SavedID = created.Subscription.ID.String()
	return out, nil
}

func (t subscriptionTools) add(ctx context.Context, input addInput) (*queries.SubscriptionDTO, error) {
	if t.app.CreateSubscriptionHandler == nil {
		return nil, errors.New("adding subscriptions requires database connection")
	}
	created, err := t.app.CreateSubscriptionHandler.Handle(ctx, commands.CreateSubscriptionCommand{
		UserID:          t.app.CurrentUserID,
		ServiceName:     input.ServiceName,
		Cost:            decimal.NewFromFloat(input.Cost),
		Currency:        input.Currency,
		RenewalDate:     input.RenewalDate,
		CancellationURL: input.CancellationURL,
		WebsiteURL:      input.WebsiteURL,
	})
	if err != nil {
		return nil, err
	}
	dto := queries.ToDTO(created.Subscription, time.Now().UTC())
	return &dto, nil
}

func (t subscriptionTools) list(ctx context.Context, _ emptyInput) ([]queries.SubscriptionDTO, error) {
	if t.app.ListSubscriptionsHandler == nil {
		return nil, errors.New("subscription listing requires database connection")
	}
	return t.app.ListSubscriptionsHandler.Handle(ctx, queries.ListSubscriptionsQuery{UserID: t.app.CurrentUserID})
}

func (t subscriptionTools) cancel(ctx context.Context, input cancelInput) (*commands.CancelSubscriptionResult, error) {
	if t.app.CancelSubscriptionHandler == nil {
		return nil, errors.New("cancelling requires database connection")
	}
	id, err := parseSubscriptionID(input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	return t.app.CancelSubscriptionHandler.Handle(ctx, commands.CancelSubscriptionCommand{
		UserID:         t.app.CurrentUserID,
		SubscriptionID: id,
	})
}

func (t subscriptionTools) spending(ctx context.Context, _ emptyInput) (*queries.SpendingSummaryDTO, error) {
	if t.app.SpendingSummaryHandler == nil {
		return nil, errors.New("spending summary requires database connection")
	}
	return t.app.SpendingSummaryHandler.Handle(ctx, queries.SpendingSummaryQuery{UserID: t.app.CurrentUserID})
}

func (t subscriptionTools) checkRenewals(ctx context.Context, _ emptyInput) (*notificationApp.RunResult, error) {
	if t.app.RenewalChecker == nil {
		return nil, errors.New("renewal checks require database connection")
	}
	return t.app.RenewalChecker.Run(ctx)
}
