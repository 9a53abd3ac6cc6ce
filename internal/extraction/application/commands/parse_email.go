package commands

import (
	"context"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
)

// Extractor runs one extraction. *services.Pipeline implements it.
type Extractor interface {
	Run(ctx context.Context, emailText string) (*domain.ParsedSubscription, error)
}

// ParseEmailCommand carries the pasted email.
type ParseEmailCommand struct {
	EmailText string
}

// ParseEmailResult holds the extracted subscription.
type ParseEmailResult struct {
	Subscription *domain.ParsedSubscription
}

// ParseEmailHandler extracts a subscription from an email.
type ParseEmailHandler struct {
	extractor Extractor
}

// NewParseEmailHandler builds a handler.
func NewParseEmailHandler(extractor Extractor) *ParseEmailHandler {
	return &ParseEmailHandler{extractor: extractor}
}

// Handle runs the extraction. Errors keep their domain classification.
func (h *ParseEmailHandler) Handle(ctx context.Context, cmd ParseEmailCommand) (*ParseEmailResult, error) {
	parsed, err := h.extractor.Run(ctx, cmd.EmailText)
	if err != nil {
		return nil, err
	}
	return &ParseEmailResult{Subscription: parsed}, nil
}
