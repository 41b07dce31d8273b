package llmclient

import (
	"context"
	"sync"
	"time"

	"github.com/lookatitude/policyopt/schema"
)

// AuditCapture wraps a Client, recording one schema.LLMInteraction per
// Complete call -- on both the success and failure path -- before the
// error (if any) is returned to the caller. It never alters the wrapped
// client's observable output.
type AuditCapture struct {
	next Client

	mu   sync.Mutex
	last schema.LLMInteraction
	has  bool
}

// NewAuditCapture wraps next in an AuditCapture.
func NewAuditCapture(next Client) *AuditCapture {
	return &AuditCapture{next: next}
}

// ModelID delegates to the wrapped client.
func (a *AuditCapture) ModelID() string { return a.next.ModelID() }

// Complete delegates to the wrapped client and records the interaction
// regardless of outcome.
func (a *AuditCapture) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := a.next.Complete(ctx, req)
	latency := time.Since(start)

	interaction := schema.LLMInteraction{
		SystemPrompt:   req.SystemPrompt,
		UserPrompt:     req.Prompt,
		LatencySeconds: latency.Seconds(),
		Timestamp:      start,
	}
	if err != nil {
		interaction.ParsingError = err.Error()
	} else {
		interaction.RawResponse = resp.Text
		interaction.PromptTokens = resp.PromptTokens
		interaction.CompletionTokens = resp.CompletionTokens
	}

	a.mu.Lock()
	a.last = interaction
	a.has = true
	a.mu.Unlock()

	return resp, err
}

// GetLastInteraction returns the most recently recorded LLMInteraction and
// true, or a zero value and false if Complete has never been called.
func (a *AuditCapture) GetLastInteraction() (schema.LLMInteraction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.has
}
