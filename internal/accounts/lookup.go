package accounts

import (
	"context"

	"github.com/JillVernus/claude-relay-service/internal/models"
)

// ProviderTypes lists every provider account backend in resolution
// priority order. Untyped resolution tries them in this order and the
// first hit wins.
var ProviderTypes = []string{
	"claude",
	"claude-console",
	"ccr",
	"openai",
	"openai-responses",
	"gemini",
	"gemini-api",
	"droid",
	"bedrock",
	"azure-openai",
}

// TypeNames maps provider account types to display labels for the
// admin view
var TypeNames = map[string]string{
	"claude":           "Claude",
	"claude-console":   "Claude Console",
	"ccr":              "Claude Console Relay",
	"openai":           "OpenAI",
	"openai-responses": "OpenAI Responses",
	"gemini":           "Gemini",
	"gemini-api":       "Gemini API",
	"droid":            "Droid",
	"bedrock":          "AWS Bedrock",
	"azure-openai":     "Azure OpenAI",
	"unknown":          "Unknown",
}

// TypeName returns the display label for an account type
func TypeName(accountType string) string {
	if name, exists := TypeNames[accountType]; exists {
		return name
	}
	return TypeNames["unknown"]
}

// Lookup is one provider account backend. GetAccount returns (nil, nil)
// for "not found here"; errors are treated the same way by the resolver.
type Lookup interface {
	Type() string
	GetAccount(ctx context.Context, id string) (*models.Account, error)
}

// LookupFunc adapts a function to the Lookup interface
type LookupFunc struct {
	ProviderType string
	Fn           func(ctx context.Context, id string) (*models.Account, error)
}

func (l LookupFunc) Type() string {
	return l.ProviderType
}

func (l LookupFunc) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return l.Fn(ctx, id)
}
