package handlers

import (
	"context"
	"net/http"

	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/auth"
	"github.com/upb/access-control-plane/middleware"
	"github.com/upb/access-control-plane/utils"
	"go.uber.org/zap"
)

// SnapshotBuilder assembles the access snapshot for a request's claims
type SnapshotBuilder interface {
	Build(ctx context.Context, claims *auth.Claims) *access.Snapshot
}

// DecisionResponse carries one route decision plus the resolver states it was
// made under, so the client can tell a settled deny from a still-loading one.
type DecisionResponse struct {
	Path     string          `json:"path"`
	Decision access.Decision `json:"decision"`
	States   ResolverStates  `json:"states"`
}

// ResolverStates summarizes the per-resolver snapshot states
type ResolverStates struct {
	Subscription string `json:"subscription"`
	Permissions  string `json:"permissions"`
	Modules      string `json:"modules"`
	Companies    string `json:"companies"`
}

// AccessHandler answers route access decisions
type AccessHandler struct {
	chain     *access.Chain
	snapshots SnapshotBuilder
	logger    *zap.Logger
}

// NewAccessHandler creates a new AccessHandler
func NewAccessHandler(chain *access.Chain, snapshots SnapshotBuilder, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{
		chain:     chain,
		snapshots: snapshots,
		logger:    logger,
	}
}

// HandleDecision handles GET /api/v1/access/decision?path=/rentals
// The session is optional: an unauthenticated caller gets the login redirect
// decision rather than a bare 401, so clients need no special casing.
func (h *AccessHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path := r.URL.Query().Get("path")
	if path == "" {
		_ = utils.WriteBadRequest(w, "Missing path query parameter", nil)
		return
	}

	claims := middleware.GetClaimsFromContext(ctx)
	snap := h.snapshots.Build(ctx, claims)
	decision := h.chain.Decide(snap, path)

	h.logger.Debug("access decision answered",
		zap.String("request_id", middleware.RequestID(ctx)),
		zap.String("path", path),
		zap.Bool("allow", decision.Allow))

	_ = utils.WriteOK(w, DecisionResponse{
		Path:     path,
		Decision: decision,
		States:   statesOf(snap),
	})
}

// HandleSnapshot handles GET /api/v1/access/snapshot
// Exposes the resolver states and coarse access facts for the current actor.
func (h *AccessHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaimsFromContext(ctx)
	snap := h.snapshots.Build(ctx, claims)

	_ = utils.WriteOK(w, map[string]interface{}{
		"authenticated":       snap.Authenticated,
		"identity":            snap.Identity,
		"tenant":              snap.Tenant.Selection,
		"subscription":        snap.Subscription.Access,
		"active_subscription": snap.HasActiveSubscription(),
		"states":              statesOf(snap),
	})
}

func statesOf(snap *access.Snapshot) ResolverStates {
	return ResolverStates{
		Subscription: snap.Subscription.State.String(),
		Permissions:  snap.Permissions.State.String(),
		Modules:      snap.Modules.State.String(),
		Companies:    snap.Tenant.State.String(),
	}
}
