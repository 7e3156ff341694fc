package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/colmmemedsurv/sentinelnode/pkg/anthropic"
)

// Anthropic completes requests with the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic creates an Anthropic completer.
func NewAnthropic(apiKey, model string, maxTokens int, opts ...anthropic.Option) *Anthropic {
	return NewAnthropicWithClient(anthropic.NewClient(apiKey, opts...), model, maxTokens)
}

// NewAnthropicWithClient wraps an existing client.
func NewAnthropicWithClient(client anthropic.Client, model string, maxTokens int) *Anthropic {
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	temp := 0.0
	msg := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	}
	if req.System != "" {
		msg.System = []anthropic.SystemBlock{{Text: req.System}}
	}

	resp, err := a.client.CreateMessage(ctx, msg)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic complete")
	}
	resp.Usage.LogCost(a.model, "complete")
	return resp.Text(), nil
}
