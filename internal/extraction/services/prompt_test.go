package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	email := "Your Netflix plan renews on Jan 15 for $15.99."

	prompt := BuildPrompt(email, now)

	for _, field := range []string{"service_name", "cost", "currency", "renewal_date", "cancellation_url", "website_url"} {
		assert.Contains(t, prompt, field)
	}
	assert.Contains(t, prompt, "Divide yearly prices by 12")
	assert.Contains(t, prompt, "use 2025 or 2026")
	assert.True(t, strings.HasSuffix(prompt, "Email:\n"+email))
	assert.Equal(t, prompt, BuildPrompt(email, now), "prompt must be deterministic")
}
