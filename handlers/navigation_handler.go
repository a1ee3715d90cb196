package handlers

import (
	"net/http"

	"github.com/upb/access-control-plane/middleware"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/navigation"
	"github.com/upb/access-control-plane/utils"
	"go.uber.org/zap"
)

// MenuResponse is the rendered navigation menu for the current actor
type MenuResponse struct {
	Sections []models.MenuSection `json:"sections"`
}

// NavigationHandler serves the filtered navigation tree
type NavigationHandler struct {
	filter    *navigation.Filter
	tree      []models.NavigationNode
	snapshots SnapshotBuilder
	logger    *zap.Logger
}

// NewNavigationHandler creates a new NavigationHandler
func NewNavigationHandler(filter *navigation.Filter, tree []models.NavigationNode, snapshots SnapshotBuilder, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{
		filter:    filter,
		tree:      tree,
		snapshots: snapshots,
		logger:    logger,
	}
}

// HandleMenu handles GET /api/v1/navigation/menu
// Returns the menu sections the actor may see under the current snapshot.
// Mounted behind RequireSession; an unauthenticated caller never reaches it.
func (h *NavigationHandler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaimsFromContext(ctx)
	snap := h.snapshots.Build(ctx, claims)
	sections := h.filter.Sections(snap, h.tree)

	h.logger.Debug("menu rendered",
		zap.String("request_id", middleware.RequestID(ctx)),
		zap.Int("sections", len(sections)))

	_ = utils.WriteOK(w, MenuResponse{Sections: sections})
}
