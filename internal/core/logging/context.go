package logging

import "context"

type contextKey string

const (
	pushIDKey    contextKey = "push_id"
	rundownIDKey contextKey = "rundown_id"
)

// WithPushID adds a push ID to the context.
func WithPushID(ctx context.Context, pushID string) context.Context {
	return context.WithValue(ctx, pushIDKey, pushID)
}

// WithRundownID adds the destination rundown ID to the context.
func WithRundownID(ctx context.Context, rundownID string) context.Context {
	return context.WithValue(ctx, rundownIDKey, rundownID)
}

// GetPushID retrieves the push ID from the context.
// Returns empty string if not present.
func GetPushID(ctx context.Context) string {
	if id, ok := ctx.Value(pushIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRundownID retrieves the rundown ID from the context.
// Returns empty string if not present.
func GetRundownID(ctx context.Context) string {
	if id, ok := ctx.Value(rundownIDKey).(string); ok {
		return id
	}
	return ""
}
