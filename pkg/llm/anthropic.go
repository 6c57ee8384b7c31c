package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient is the alternate summarization provider behind the same
// Client interface, selected by configuration.
type AnthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client: &client,
		model:  anthropic.Model(model),
	}
}

func (c *AnthropicClient) Summarize(ctx context.Context, req Request) (*Result, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: bulletsSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(formatItems(req))),
		},
	})
	if err != nil {
		return nil, anthropicAPIError(err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("anthropic: empty response")
	}

	return parseBullets(resp.Content[0].Text, string(c.model))
}

// anthropicAPIError maps an SDK failure onto the shared structured error so
// retry classification and fallback text treat both providers alike.
func anthropicAPIError(err error) error {
	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		apiErr := &APIError{
			Status:  sdkErr.StatusCode,
			Message: sdkErr.Error(),
		}
		if sdkErr.Response != nil {
			apiErr.RequestID = sdkErr.Response.Header.Get("request-id")
		}
		return apiErr
	}
	return &APIError{Status: 0, Message: err.Error()}
}
