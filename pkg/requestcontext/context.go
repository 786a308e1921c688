// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, tests
// inject them without running the middleware chain.
package requestcontext

import (
	"context"
	"time"
)

type (
	userIDKey      struct{}
	premiumKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientMetaKey  struct{}
)

// ClientMeta carries request client metadata for audit trails.
type ClientMeta struct {
	IP       string
	Platform string
}

// UserID retrieves the authenticated user ID from the context.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Premium reports whether the authenticated user holds a paid entitlement.
func Premium(ctx context.Context) bool {
	v, _ := ctx.Value(premiumKey{}).(bool)
	return v
}

// WithPremium injects the entitlement flag into the context.
func WithPremium(ctx context.Context, premium bool) context.Context {
	return context.WithValue(ctx, premiumKey{}, premium)
}

// RequestID retrieves the per-request correlation ID.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time, falling back to time.Now for
// non-HTTP contexts (workers, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context. Used by tests and batch jobs
// that need a consistent clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Client retrieves client metadata recorded by the middleware.
func Client(ctx context.Context) ClientMeta {
	if m, ok := ctx.Value(clientMetaKey{}).(ClientMeta); ok {
		return m
	}
	return ClientMeta{}
}

// WithClient injects client metadata into the context.
func WithClient(ctx context.Context, meta ClientMeta) context.Context {
	return context.WithValue(ctx, clientMetaKey{}, meta)
}
