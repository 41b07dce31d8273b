// Package anthropic provides the Anthropic (Claude) llmclient.Client
// implementation, using the anthropic-sdk-go SDK's Messages API.
//
// Usage:
//
//	import _ "github.com/lookatitude/policyopt/llmclient/providers/anthropic"
//
//	model, err := llmclient.New("anthropic:claude-sonnet-4-5-20250929", cfg)
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lookatitude/policyopt/config"
	"github.com/lookatitude/policyopt/llmclient"
	"github.com/lookatitude/policyopt/resilience"
)

const defaultMaxTokens = 4096

// structuredToolName is the synthetic tool name used to force Claude to
// emit JSON matching a caller-supplied ResponseSchema -- the Messages API
// has no native response_format option, so structured output is obtained
// via a forced single-tool call instead.
const structuredToolName = "emit_structured_output"

func init() {
	llmclient.Register("anthropic", func(cfg config.ProviderConfig) (llmclient.Client, error) {
		return New(cfg)
	})
}

// Model implements llmclient.Client using the Anthropic Messages API.
type Model struct {
	client anthropicSDK.Client
	model  string
	retry  resilience.RetryPolicy
}

// New creates a new Anthropic Client.
func New(cfg config.ProviderConfig) (*Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}
	opts := []anthropicOption.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, anthropicOption.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicOption.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, anthropicOption.WithRequestTimeout(cfg.Timeout))
	}
	// This provider's own Complete is wrapped in resilience.Retry, so the
	// SDK's internal retry logic would double the backoff; disable it.
	opts = append(opts, anthropicOption.WithMaxRetries(0))

	retry := resilience.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	return &Model{
		client: anthropicSDK.NewClient(opts...),
		model:  cfg.Model,
		retry:  retry,
	}, nil
}

// ModelID returns the model identifier.
func (m *Model) ModelID() string { return m.model }

// Complete sends req to Claude, retrying transient transport failures.
func (m *Model) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	return resilience.Retry(ctx, m.retry, func(ctx context.Context) (*llmclient.Response, error) {
		return m.complete(ctx, req)
	})
}

func (m *Model) complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(m.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropicSDK.MessageParam{
			anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropicSDK.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropicSDK.Float(req.Temperature)
	}
	if req.ResponseSchema != nil {
		params.Tools = []anthropicSDK.ToolUnionParam{{
			OfTool: &anthropicSDK.ToolParam{
				Name:        structuredToolName,
				Description: anthropicSDK.String("Emit the requested output as structured arguments."),
				InputSchema: anthropicSDK.ToolInputSchemaParam{
					Properties: req.ResponseSchema["properties"],
					Required:   stringSlice(req.ResponseSchema["required"]),
				},
			},
		}}
		params.ToolChoice = anthropicSDK.ToolChoiceUnionParam{
			OfTool: &anthropicSDK.ToolChoiceToolParam{Name: structuredToolName},
		}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, llmclient.ClassifyTransportError("anthropic.complete", err)
	}

	out := &llmclient.Response{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			if raw, err := json.Marshal(block.Input); err == nil {
				out.Text = string(raw)
			}
		}
	}
	return out, nil
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
