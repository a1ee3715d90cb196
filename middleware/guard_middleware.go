package middleware

import (
	"context"
	"net/http"

	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/auth"
	"github.com/upb/access-control-plane/utils"
	"go.uber.org/zap"
)

// SnapshotBuilder assembles the immutable access snapshot for a request.
// Implemented by services/snapshot.
type SnapshotBuilder interface {
	Build(ctx context.Context, claims *auth.Claims) *access.Snapshot
}

// GuardMiddleware runs the route guard chain for each request. This should be
// mounted after WithSession so claims are available.
type GuardMiddleware struct {
	chain     *access.Chain
	snapshots SnapshotBuilder
	logger    *zap.Logger
}

// NewGuardMiddleware creates a GuardMiddleware
func NewGuardMiddleware(chain *access.Chain, snapshots SnapshotBuilder, logger *zap.Logger) *GuardMiddleware {
	return &GuardMiddleware{
		chain:     chain,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Protect blocks requests whose path the guard chain denies, answering with
// the redirect decision. Unauthenticated denials are 401, everything else
// 403; the body always carries the decision so the client knows where to go.
func (m *GuardMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := GetClaimsFromContext(ctx)
		snap := m.snapshots.Build(ctx, claims)

		decision := m.chain.Decide(snap, r.URL.Path)
		if decision.Allow {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Info("request blocked by guard chain",
			zap.String("request_id", RequestID(ctx)),
			zap.String("path", r.URL.Path),
			zap.String("redirect", decision.Redirect.Path),
			zap.String("reason", string(decision.Redirect.Reason)))

		status := http.StatusForbidden
		if decision.Redirect.Reason == access.ReasonUnauthenticated {
			status = http.StatusUnauthorized
		}
		_ = utils.WriteJSON(w, status, decision)
	})
}
