// Package llms provides language model clients satisfying the engine's
// text-to-text contracts. The engine only ever sees Generate; provider
// details stay here.
package llms

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	errs "github.com/lexweave/gepa/pkg/errors"
	"github.com/lexweave/gepa/pkg/logging"
)

// AnthropicLM drives an Anthropic model through the single text-to-text
// operation the engine consumes. It serves as both reflection model and
// task LM.
type AnthropicLM struct {
	client      *anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

// AnthropicOption customizes the client.
type AnthropicOption func(*AnthropicLM)

// WithMaxTokens caps the completion length. Default 1024.
func WithMaxTokens(n int) AnthropicOption {
	return func(l *AnthropicLM) {
		l.maxTokens = int64(n)
	}
}

// WithTemperature sets the sampling temperature. Default 0.7.
func WithTemperature(t float64) AnthropicOption {
	return func(l *AnthropicLM) {
		l.temperature = t
	}
}

// NewAnthropicLM creates a client for the given model.
func NewAnthropicLM(apiKey, model string, opts ...AnthropicOption) (*AnthropicLM, error) {
	if apiKey == "" {
		return nil, errs.New(errs.InvalidInput, "anthropic api key is required")
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	lm := &AnthropicLM{
		client:      &client,
		model:       anthropic.Model(model),
		maxTokens:   1024,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(lm)
	}
	return lm, nil
}

// ModelID returns the configured model identifier.
func (l *AnthropicLM) ModelID() string {
	return string(l.model)
}

// Generate produces a text completion for the given prompt.
func (l *AnthropicLM) Generate(ctx context.Context, prompt string) (string, error) {
	logger := logging.GetLogger()
	ctx = logging.WithModelID(ctx, string(l.model))

	message, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: l.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens:   l.maxTokens,
		Temperature: anthropic.Float(l.temperature),
	})

	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			logger.Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return "", errs.WithFields(
			errs.Wrap(err, errs.ReflectionGenerationFailed, "failed to generate response"),
			errs.Fields{
				"model":      string(l.model),
				"max_tokens": l.maxTokens,
			})
	}

	if message == nil || len(message.Content) == 0 {
		return "", errs.New(errs.ReflectionGenerationFailed, "received empty response from Anthropic API")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	logger.Debug(ctx, "Anthropic response: %d prompt tokens, %d completion tokens",
		message.Usage.InputTokens, message.Usage.OutputTokens)

	return responseText, nil
}
