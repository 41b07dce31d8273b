package core

import "context"

// contextKey is an unexported type used for context keys in this package to
// prevent collisions with keys defined elsewhere.
type contextKey int

const (
	runIDKey contextKey = iota
	iterationKey
)

// WithRunID returns a copy of ctx carrying the given optimization run ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// GetRunID extracts the run ID from ctx. It returns an empty string if no
// run ID is present.
func GetRunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithIteration returns a copy of ctx carrying the current iteration index,
// used by logging and audit capture to tag emitted records without
// threading the value through every call signature.
func WithIteration(ctx context.Context, iteration int) context.Context {
	return context.WithValue(ctx, iterationKey, iteration)
}

// GetIteration extracts the iteration index from ctx. It returns -1 if no
// iteration is present.
func GetIteration(ctx context.Context) int {
	i, ok := ctx.Value(iterationKey).(int)
	if !ok {
		return -1
	}
	return i
}
