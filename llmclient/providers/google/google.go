// Package google provides the Google Gemini llmclient.Client
// implementation using the google.golang.org/genai SDK.
//
// Usage:
//
//	import _ "github.com/lookatitude/policyopt/llmclient/providers/google"
//
//	model, err := llmclient.New("google:gemini-2.0-flash", cfg)
package google

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/lookatitude/policyopt/config"
	"github.com/lookatitude/policyopt/llmclient"
	"github.com/lookatitude/policyopt/resilience"
)

func init() {
	llmclient.Register("google", func(cfg config.ProviderConfig) (llmclient.Client, error) {
		return New(cfg)
	})
}

// Model implements llmclient.Client using the Gemini GenerateContent API.
type Model struct {
	client *genai.Client
	model  string
	retry  resilience.RetryPolicy
}

// New creates a new Google Gemini Client.
func New(cfg config.ProviderConfig) (*Model, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("google: model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("google: failed to create client: %w", err)
	}

	retry := resilience.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	return &Model{
		client: client,
		model:  cfg.Model,
		retry:  retry,
	}, nil
}

// ModelID returns the model identifier.
func (m *Model) ModelID() string { return m.model }

// Complete sends req to Gemini, retrying transient transport failures.
func (m *Model) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	return resilience.Retry(ctx, m.retry, func(ctx context.Context) (*llmclient.Response, error) {
		return m.complete(ctx, req)
	})
}

func (m *Model) complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	gcConfig := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		gcConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		gcConfig.Temperature = &temp
	}
	if req.ResponseSchema != nil {
		gcConfig.ResponseMIMEType = "application/json"
		gcConfig.ResponseSchema = convertSchema(req.ResponseSchema)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, gcConfig)
	if err != nil {
		return nil, llmclient.ClassifyTransportError("google.complete", err)
	}

	out := &llmclient.Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// convertSchema adapts a plain map[string]any JSON Schema into genai's
// typed Schema, which only understands a fixed set of property types.
func convertSchema(raw map[string]any) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeObject}
	props, _ := raw["properties"].(map[string]any)
	if len(props) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, def := range props {
			if m, ok := def.(map[string]any); ok {
				s.Properties[name] = convertPropertySchema(m)
			}
		}
	}
	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			if str, ok := r.(string); ok {
				s.Required = append(s.Required, str)
			}
		}
	}
	return s
}

func convertPropertySchema(def map[string]any) *genai.Schema {
	t, _ := def["type"].(string)
	switch t {
	case "integer":
		return &genai.Schema{Type: genai.TypeInteger}
	case "number":
		return &genai.Schema{Type: genai.TypeNumber}
	case "boolean":
		return &genai.Schema{Type: genai.TypeBoolean}
	case "array":
		return &genai.Schema{Type: genai.TypeArray}
	case "object":
		return convertSchema(def)
	default:
		return &genai.Schema{Type: genai.TypeString}
	}
}
