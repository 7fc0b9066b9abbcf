package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// HeaderUserID carries the authenticated principal set by the upstream gateway.
const HeaderUserID = "X-User-ID"

type ctxKey struct{}

// WithUserID stores the acting principal on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// GetUserID returns the acting principal, falling back to the x-user-id gRPC
// metadata when no middleware populated the context.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey{}).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
