package llmclient

import (
	"context"
	"testing"
)

type recordingClient struct {
	lastReq Request
	resp    Response
	err     error
}

func (c *recordingClient) ModelID() string { return "recording-model" }
func (c *recordingClient) Complete(ctx context.Context, req Request) (*Response, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &c.resp, nil
}

func TestGenerateText(t *testing.T) {
	client := &recordingClient{resp: Response{Text: "hello"}}

	got, err := GenerateText(context.Background(), client, "prompt", "system")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("GenerateText() = %q, want %q", got, "hello")
	}
	if client.lastReq.ResponseSchema != nil {
		t.Errorf("GenerateText() should not set a ResponseSchema")
	}
	if client.lastReq.SystemPrompt != "system" {
		t.Errorf("SystemPrompt = %q, want %q", client.lastReq.SystemPrompt, "system")
	}
}

func TestGenerateStructured_PassesSchemaAndReturnsRawText(t *testing.T) {
	client := &recordingClient{resp: Response{Text: `{"foo":1}`}}
	reqSchema := map[string]any{"type": "object"}

	resp, err := GenerateStructured(context.Background(), client, "prompt", reqSchema, "")
	if err != nil {
		t.Fatalf("GenerateStructured() error = %v", err)
	}
	if resp.Text != `{"foo":1}` {
		t.Errorf("Text = %q, want raw JSON unparsed", resp.Text)
	}
	if client.lastReq.ResponseSchema == nil {
		t.Errorf("GenerateStructured() did not forward ResponseSchema")
	}
}

func TestGenerateStructured_DoesNotRetryOnMalformedJSON(t *testing.T) {
	// Malformed JSON is not this layer's concern to retry: policy.Parse
	// decides whether proposal_raw parses, and a parse failure there is a
	// first-class rejection, not a transport retry.
	client := &recordingClient{resp: Response{Text: "not json"}}

	resp, err := GenerateStructured(context.Background(), client, "prompt", map[string]any{}, "")
	if err != nil {
		t.Fatalf("GenerateStructured() error = %v, want nil (malformed JSON is not a transport error)", err)
	}
	if resp.Text != "not json" {
		t.Errorf("Text = %q, want passthrough of malformed text", resp.Text)
	}
}
