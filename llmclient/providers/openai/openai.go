// Package openai provides the OpenAI llmclient.Client implementation using
// the sashabaranov/go-openai SDK.
//
// Usage:
//
//	import _ "github.com/lookatitude/policyopt/llmclient/providers/openai"
//
//	model, err := llmclient.New("openai:gpt-4o", cfg)
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lookatitude/policyopt/config"
	"github.com/lookatitude/policyopt/llmclient"
	"github.com/lookatitude/policyopt/resilience"
)

func init() {
	llmclient.Register("openai", func(cfg config.ProviderConfig) (llmclient.Client, error) {
		return New(cfg)
	})
}

// Model implements llmclient.Client using the OpenAI chat completions API.
type Model struct {
	client *openai.Client
	model  string
	retry  resilience.RetryPolicy
}

// New creates a new OpenAI Client.
func New(cfg config.ProviderConfig) (*Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	retry := resilience.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	return &Model{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		retry:  retry,
	}, nil
}

// ModelID returns the model identifier.
func (m *Model) ModelID() string { return m.model }

// Complete sends req to OpenAI, retrying transient transport failures.
func (m *Model) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	return resilience.Retry(ctx, m.retry, func(ctx context.Context) (*llmclient.Response, error) {
		return m.complete(ctx, req)
	})
}

func (m *Model) complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: messages,
	}
	if req.ReasoningEffort != "" {
		chatReq.ReasoningEffort = req.ReasoningEffort
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if req.ResponseSchema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "structured_output",
				Schema: jsonSchemaDefinition(req.ResponseSchema),
				Strict: true,
			},
		}
	}

	resp, err := m.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, llmclient.ClassifyTransportError("openai.complete", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response had no choices")
	}

	return &llmclient.Response{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// jsonSchemaDefinition adapts a plain map[string]any JSON Schema into the
// go-openai SDK's typed Definition wrapper.
func jsonSchemaDefinition(schema map[string]any) openai.Definition {
	def := openai.Definition{Type: openai.DataType(stringOr(schema["type"], "object"))}
	if props, ok := schema["properties"].(map[string]any); ok {
		def.Properties = props
	}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				def.Required = append(def.Required, s)
			}
		}
	}
	return def
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
