package domain

import "context"

// ParsedSubscription is the validated result of one extraction run.
type ParsedSubscription struct {
	ServiceName     string  `json:"service_name" validate:"required"`
	Cost            float64 `json:"cost" validate:"gt=0"`
	Currency        string  `json:"currency" validate:"required,iso4217"`
	RenewalDate     string  `json:"renewal_date" validate:"required,datetime=2006-01-02"`
	CancellationURL *string `json:"cancellation_url" validate:"omitempty,http_url"`
	WebsiteURL      *string `json:"website_url" validate:"omitempty,http_url"`
}

// DefaultCurrency is used when the completion names no valid currency.
const DefaultCurrency = "USD"

// CompletionProvider sends one prompt to an LLM and returns its text.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a function to CompletionProvider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

func (f ProviderFunc) Name() string { return "func" }

func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
