package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper case json fence", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `  {"a":1}  `, `{"a":1}`},
		{"leading fence only", "```json {\"a\":1}", `{"a":1}`},
		{"trailing fence only", "{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "\n\n```json\n{\"a\":1}\n```\n", `{"a":1}`},
		{"prose is left alone", "Here you go: {\"a\":1}", `Here you go: {"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"service_name\":\"Netflix\"}\n```",
		"```{\"cost\":1}```",
		`{"x":[1,2,3]}`,
		"   {\"y\": \"```\"}   ",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		if !json.Valid([]byte(once)) {
			continue
		}
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}
