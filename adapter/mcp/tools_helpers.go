package mcp

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// parseSubscriptionID accepts the ids printed by subscriptions.list,
// with or without surrounding whitespace or braces.
func parseSubscriptionID(value string) (uuid.UUID, error) {
	value = strings.Trim(strings.TrimSpace(value), "{}")
	if value == "" {
		return uuid.Nil, fmt.Errorf("subscription_id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subscription_id %q: %w", value, err)
	}
	return id, nil
}
