package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/access-control-plane/auth"
)

// Context key type to avoid collisions
type contextKey string

// ClaimsKey is the context key for verified session claims
const ClaimsKey contextKey = "session_claims"

// WithClaims adds verified session claims to the context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaimsFromContext retrieves session claims from context; nil when the
// request carries no valid session
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// RequestID returns the chi request ID for log correlation
func RequestID(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}
