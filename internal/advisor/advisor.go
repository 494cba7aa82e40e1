// Package advisor asks an OpenAI-compatible model (DeepSeek by default) for
// a rebalancing note when critical alerts are raised.
package advisor

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/camuig/capital-tracker/internal/logger"
)

type Advisor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

func New(apiKey, baseURL, model string, timeout time.Duration, log *logger.Logger) *Advisor {
	ocfg := openai.DefaultConfig(apiKey)
	ocfg.BaseURL = baseURL

	return &Advisor{
		client:  openai.NewClientWithConfig(ocfg),
		model:   model,
		timeout: timeout,
		logger:  log,
	}
}

// Advise returns the parsed suggestions and the raw model response.
func (a *Advisor) Advise(ctx context.Context, req *Request) ([]Suggestion, string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	a.logger.Info("sending rebalancing request",
		"positions", len(req.Positions),
		"alerts", len(req.Alerts))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("advisor API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, "", fmt.Errorf("advisor returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	a.logger.Debug("advisor raw response", "content", raw)

	held := make([]string, 0, len(req.Positions))
	for _, p := range req.Positions {
		held = append(held, p.Symbol)
	}
	suggestions, err := ParseSuggestions(raw, held)
	if err != nil {
		return nil, raw, fmt.Errorf("parse advisor response: %w", err)
	}
	return suggestions, raw, nil
}
