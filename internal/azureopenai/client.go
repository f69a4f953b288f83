// Package azureopenai calls an Azure OpenAI chat deployment with a strict JSON
// schema response format.
package azureopenai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrRefused         = errors.New("model refused the request")
	ErrTruncated       = errors.New("response truncated at token limit")
	ErrContentFiltered = errors.New("response blocked by content filter")
	ErrEmptyResponse   = errors.New("empty response content")
)

// JSONSchema names the structured output the model must produce.
type JSONSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	chat       chatClient
	deployment string
	maxTokens  int
}

// NewClient configures go-openai for an Azure resource. The deployment name is
// sent as the model and mapped verbatim into the request path.
func NewClient(endpoint, apiKey, apiVersion, deployment string) *Client {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	cfg.APIVersion = apiVersion
	cfg.AzureModelMapperFunc = func(model string) string { return model }
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	return newClient(openai.NewClientWithConfig(cfg), deployment)
}

func newClient(chat chatClient, deployment string) *Client {
	return &Client{chat: chat, deployment: deployment}
}

// SetMaxCompletionTokens caps the reply length. Zero, the default, leaves the
// parameter out of the request; API versions before 2024-09-01-preview
// reject it.
func (c *Client) SetMaxCompletionTokens(n int) {
	c.maxTokens = max(n, 0)
}

// Deployment returns the model deployment requests are sent to.
func (c *Client) Deployment() string {
	return c.deployment
}

// Complete sends a system and user message and returns the JSON document the
// model produced for schema.
func (c *Client) Complete(ctx context.Context, system, user string, schema JSONSchema) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxCompletionTokens: c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        schema.Name,
				Description: schema.Description,
				Schema:      schema.Schema,
				Strict:      true,
			},
		},
	}

	resp, err := c.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("api call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	choice := resp.Choices[0]

	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: %s", ErrRefused, choice.Message.Refusal)
	}
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		return "", ErrTruncated
	case openai.FinishReasonContentFilter:
		return "", ErrContentFiltered
	}
	if choice.Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return choice.Message.Content, nil
}
