// Package llm adapts the OpenAI chat completion API to the pipeline's
// Generator interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4oMini

// DefaultCallTimeout bounds a single completion attempt.
const DefaultCallTimeout = 60 * time.Second

// Generator issues chat completion calls with a configurable temperature.
type Generator struct {
	client  *openai.Client
	model   openai.ChatModel
	timeout time.Duration
}

// NewGenerator creates a Generator. An empty model falls back to
// DefaultModel, a non-positive timeout to DefaultCallTimeout.
func NewGenerator(client *openai.Client, model string, timeout time.Duration) *Generator {
	m := openai.ChatModel(model)
	if model == "" {
		m = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Generator{client: client, model: m, timeout: timeout}
}

// Generate sends the prompt as a single user message and returns the model's
// reply. Each attempt runs under its own timeout; a timed-out or transient
// attempt is retried once.
func (g *Generator) Generate(ctx context.Context, promptText string, temperature float64) (string, error) {
	var content string

	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		resp, err := g.client.Chat.Completions.New(attemptCtx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(promptText),
			},
			Model:       g.model,
			Temperature: openai.Float(temperature),
		})
		if err != nil {
			if retryable(err, ctx) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("no choices returned"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return content, nil
}

// retryable reports whether an attempt is worth one retry. A per-attempt
// timeout counts only while the caller itself is still waiting; once the
// parent context is done, retrying is pointless.
func retryable(err error, parent context.Context) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return parent.Err() == nil
	}
	return isTransientError(err)
}

// isTransientError reports whether the API error is worth one retry:
// rate limits and server-side failures.
func isTransientError(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}
