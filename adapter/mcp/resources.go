package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
)

// RegisterResources registers MCP resources that expose subscription data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("subslayer://subscriptions").
		Name("Subscriptions").
		Description("Active subscriptions for the current user, soonest renewal first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListSubscriptionsHandler == nil {
				return nil, fmt.Errorf("subscription listing requires database connection")
			}
			subs, err := app.ListSubscriptionsHandler.Handle(ctx, queries.ListSubscriptionsQuery{UserID: app.CurrentUserID})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, subs)
		})

	srv.Resource("subslayer://spending").
		Name("Spending").
		Description("Monthly and yearly spend per currency").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.SpendingSummaryHandler == nil {
				return nil, fmt.Errorf("spending summary requires database connection")
			}
			summary, err := app.SpendingSummaryHandler.Handle(ctx, queries.SpendingSummaryQuery{UserID: app.CurrentUserID})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, summary)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
