package llmclient

import (
	"context"
	"errors"
	"testing"
)

func TestAuditCapture_RecordsSuccess(t *testing.T) {
	inner := &recordingClient{resp: Response{Text: "ok", PromptTokens: 10, CompletionTokens: 5}}
	audit := NewAuditCapture(inner)

	resp, err := audit.Complete(context.Background(), Request{Prompt: "p", SystemPrompt: "s"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "ok" {
		t.Fatalf("Complete() = %q, want passthrough of inner response", resp.Text)
	}

	interaction, ok := audit.GetLastInteraction()
	if !ok {
		t.Fatalf("GetLastInteraction() ok = false after a successful call")
	}
	if interaction.UserPrompt != "p" || interaction.SystemPrompt != "s" {
		t.Errorf("interaction prompts = %q/%q, want p/s", interaction.UserPrompt, interaction.SystemPrompt)
	}
	if interaction.RawResponse != "ok" {
		t.Errorf("RawResponse = %q, want %q", interaction.RawResponse, "ok")
	}
	if interaction.ParsingError != "" {
		t.Errorf("ParsingError = %q, want empty on success", interaction.ParsingError)
	}
	if interaction.PromptTokens != 10 || interaction.CompletionTokens != 5 {
		t.Errorf("token counts = %d/%d, want 10/5", interaction.PromptTokens, interaction.CompletionTokens)
	}
}

func TestAuditCapture_RecordsFailureBeforeReturning(t *testing.T) {
	wantErr := errors.New("transport exploded")
	inner := &recordingClient{err: wantErr}
	audit := NewAuditCapture(inner)

	_, err := audit.Complete(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Complete() error = %v, want wrapping %v", err, wantErr)
	}

	interaction, ok := audit.GetLastInteraction()
	if !ok {
		t.Fatalf("GetLastInteraction() ok = false after a failed call")
	}
	if interaction.ParsingError == "" {
		t.Errorf("ParsingError is empty, want the failure message recorded")
	}
}

func TestAuditCapture_GetLastInteraction_EmptyBeforeAnyCall(t *testing.T) {
	audit := NewAuditCapture(&recordingClient{})
	if _, ok := audit.GetLastInteraction(); ok {
		t.Errorf("GetLastInteraction() ok = true before any call")
	}
}
