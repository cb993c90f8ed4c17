package llms

import (
	"context"

	"github.com/lexweave/gepa/pkg/errors"
)

// LM is the provider-agnostic client interface returned by the factory.
type LM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelID() string
}

// NewLM instantiates a client for the named provider. Currently only
// "anthropic" is supported.
func NewLM(provider, apiKey, model string, opts ...AnthropicOption) (LM, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicLM(apiKey, model, opts...)
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unknown LLM provider"),
			errors.Fields{"provider": provider})
	}
}
