package agent

import "context"

type sessionIDContext struct{}

// WithSessionID routes Agent runs to a stored session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContext{}, id)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContext{}).(string)
	return id, ok && id != ""
}
