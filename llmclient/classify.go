package llmclient

import (
	"context"
	"errors"
	"strings"

	"github.com/lookatitude/policyopt/core"
)

// ClassifyTransportError maps a raw provider SDK error to a core.Error with
// a retryable code, so resilience.Retry can tell a rate limit or transient
// server error (retry) apart from an authentication or invalid-request
// error (do not retry). op names the calling provider's method
// (e.g. "anthropic.complete").
func ClassifyTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewError(op, core.ErrTimeout, "request cancelled or timed out", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "429", "rate limit", "too many requests"):
		return core.NewError(op, core.ErrRateLimit, "provider rate limit", err)
	case containsAny(msg, "401", "403", "unauthorized", "invalid api key", "authentication"):
		return core.NewError(op, core.ErrAuth, "provider authentication failed", err)
	case containsAny(msg, "timeout", "deadline exceeded", "context deadline"):
		return core.NewError(op, core.ErrTimeout, "provider request timed out", err)
	case containsAny(msg, "502", "503", "504", "overloaded", "unavailable", "connection refused", "connection reset"):
		return core.NewError(op, core.ErrProviderDown, "provider unavailable", err)
	default:
		return core.NewError(op, core.ErrInvalidInput, "provider request failed", err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
