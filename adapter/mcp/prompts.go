package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common SubSlayer workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("subscription_audit").
		Description("Review active subscriptions and decide which to cancel before they renew.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Subscription Audit",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me audit my subscriptions. Please:

1. Read my active subscriptions from the subslayer://subscriptions resource
2. Read my spending from the subslayer://spending resource

Then:
- Point out anything renewing in the next 3 days
- Flag overlapping services in the same category
- Suggest which subscriptions to cancel, biggest savings first

For each one I agree to cancel, call subscriptions.cancel and give me the
cancellation link it returns.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("import_receipt").
		Description("Turn a pasted receipt email into a tracked subscription.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Import Receipt",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `I will paste a subscription receipt. Call subscriptions.scan with
the email text and save=false, show me what was extracted, and only call
it again with save=true once I confirm the details are right. If the
scan reports a failure_reason, ask me for the missing details and use
subscriptions.add instead.`,
						},
					},
				},
			}, nil
		})

	return nil
}
