package mailgate

import "context"

type clientKeyContextKey struct{}

// WithClientKey attaches the caller's client key (typically the source
// address) to ctx. The Engine uses it for per-client rate limiting and
// audit logging.
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyContextKey{}, key)
}

func clientKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	key, _ := ctx.Value(clientKeyContextKey{}).(string)
	return key
}
