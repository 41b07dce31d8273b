// Package llmclient provides the LLM abstraction layer a policy optimization
// run uses to ask a model for a proposed Policy. It defines the Client
// interface every provider implements, a provider registry for dynamic
// instantiation by "provider:model" identifier, structured-output and
// plain-text helpers, and an audit-capturing decorator that records one
// LLMInteraction per call.
//
// Providers register themselves via init() so that importing a provider
// package is sufficient to make it available through the registry:
//
//	import _ "github.com/lookatitude/policyopt/llmclient/providers/anthropic"
//
//	model, err := llmclient.New("anthropic:claude-sonnet-4-5-20250929", cfg)
package llmclient

import "context"

// Request is a single completion request. SystemPrompt and ResponseSchema
// are optional; a nil ResponseSchema means plain-text generation, a non-nil
// one instructs the provider to constrain its output to that JSON Schema.
type Request struct {
	Prompt         string
	SystemPrompt   string
	ResponseSchema map[string]any

	// Temperature is forwarded to the provider's sampling parameter as-is;
	// zero means "use the provider's default", which is indistinguishable
	// from an explicit 0.0 (deterministic sampling is not otherwise
	// representable through this field).
	Temperature float64

	// ThinkingBudget and ReasoningEffort are provider-specific pass-through
	// settings (Anthropic extended thinking token budget, OpenAI reasoning
	// effort level). A provider that does not support one silently ignores
	// it: the openai provider forwards ReasoningEffort, and no provider in
	// this module forwards ThinkingBudget.
	ThinkingBudget  int
	ReasoningEffort string
}

// Response is the result of a single completion request.
type Response struct {
	// Text is the model's raw text output. For a structured request this
	// is the raw JSON text the model produced against ResponseSchema,
	// unparsed -- policy.Parse turns it into a schema.Policy.
	Text string

	PromptTokens     int
	CompletionTokens int
}

// Client is the interface every LLM provider implements. All generation
// goes through the single Complete method; GenerateText and
// GenerateStructured are thin, spec-named wrappers over it.
type Client interface {
	// ModelID returns the identifier of the underlying model
	// (e.g. "claude-sonnet-4-5-20250929").
	ModelID() string

	// Complete sends req to the model and returns its response. The
	// providers in this module retry retryable transport errors inside
	// Complete via resilience.Retry; a single Complete call may therefore
	// make several attempts.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// GenerateText sends prompt (and an optional systemPrompt) to c and returns
// the model's plain-text response.
func GenerateText(ctx context.Context, c Client, prompt, systemPrompt string) (string, error) {
	resp, err := c.Complete(ctx, Request{Prompt: prompt, SystemPrompt: systemPrompt})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateStructured sends prompt to c with respSchema as the required
// output shape and returns the model's raw (unparsed) JSON response. The
// caller -- typically via policy.Parse -- is responsible for parsing and
// validating the result; GenerateStructured itself never retries on parse
// failure, since there is nothing to parse at this layer.
func GenerateStructured(ctx context.Context, c Client, prompt string, respSchema map[string]any, systemPrompt string) (*Response, error) {
	return c.Complete(ctx, Request{
		Prompt:         prompt,
		SystemPrompt:   systemPrompt,
		ResponseSchema: respSchema,
	})
}
