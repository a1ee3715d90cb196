package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/middleware"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/repositories"
	"github.com/upb/access-control-plane/services"
	"github.com/upb/access-control-plane/utils"
	"go.uber.org/zap"
)

// TokenIssuer mints gateway tokens. Implemented by auth.TokenManager.
type TokenIssuer interface {
	IssueSession(identity models.ActorIdentity, companyID *uuid.UUID) (string, error)
	IssueRefresh(identity models.ActorIdentity, companyID *uuid.UUID) (string, error)
}

// TenantInvalidator drops tenant-scoped resolver state when the selected
// company changes. Implemented by the snapshot builder.
type TenantInvalidator interface {
	OnTenantSwitch(actorID uuid.UUID, previous *uuid.UUID)
}

// CreateSessionRequest represents a request to create a session. The caller
// has already been authenticated by the identity provider in front of this
// service; the gateway only exchanges the asserted email for its own tokens.
type CreateSessionRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SelectCompanyRequest represents a request to switch the selected tenant
type SelectCompanyRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
}

// SessionResponse describes the actor behind the issued session
type SessionResponse struct {
	Identity  models.ActorIdentity `json:"identity"`
	CompanyID *uuid.UUID           `json:"company_id,omitempty"`
}

// SessionHandler handles session lifecycle requests
type SessionHandler struct {
	actors      repositories.ActorRepository
	companies   repositories.CompanyRepository
	tokens      TokenIssuer
	invalidator TenantInvalidator
	logger      *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(
	actors repositories.ActorRepository,
	companies repositories.CompanyRepository,
	tokens TokenIssuer,
	invalidator TenantInvalidator,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		actors:      actors,
		companies:   companies,
		tokens:      tokens,
		invalidator: invalidator,
		logger:      logger,
	}
}

// HandleCreateSession handles POST /api/v1/session
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.RequestID(ctx)

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	actor, err := h.actors.GetByEmail(ctx, req.Email)
	if err != nil {
		// An unknown actor at the auth exchange is a 401, not a 404; the
		// endpoint must not confirm which emails exist.
		if services.IsNotFoundError(err) {
			h.logger.Warn("session requested for unknown actor",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Unknown actor")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	identity := actor.Identity()

	// Seed the token's tenant hint from the stored selection so the first
	// snapshot resolves against the right company.
	var companyID *uuid.UUID
	if directory, err := h.companies.GetCompanies(ctx, actor.ID); err == nil {
		companyID = directory.SelectedID
	}

	session, err := h.tokens.IssueSession(identity, companyID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}
	refresh, err := h.tokens.IssueRefresh(identity, companyID)
	if err != nil {
		h.logger.Error("failed to issue refresh token", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	middleware.SetSessionCookie(w, session)
	middleware.SetRefreshCookie(w, refresh)

	h.logger.Info("session created",
		zap.String("request_id", requestID),
		zap.String("actor_id", actor.ID.String()),
		zap.String("role", string(actor.Role)))

	_ = utils.WriteCreated(w, SessionResponse{
		Identity:  identity,
		CompanyID: companyID,
	})
}

// HandleDeleteSession handles DELETE /api/v1/session
func (h *SessionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookies(w)
	utils.WriteNoContent(w)
}

// HandleMe handles GET /api/v1/session/me
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	identity, err := claims.Identity()
	if err != nil {
		_ = utils.WriteUnauthorized(w, "Invalid session identity")
		return
	}

	_ = utils.WriteOK(w, SessionResponse{
		Identity:  identity,
		CompanyID: claims.CompanyID,
	})
}

// HandleSelectCompany handles PUT /api/v1/session/company
// Switches the selected tenant, invalidates every tenant-scoped resolver
// entry, and reissues the session token with the new tenant hint.
func (h *SessionHandler) HandleSelectCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaimsFromContext(ctx)
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	identity, err := claims.Identity()
	if err != nil {
		_ = utils.WriteUnauthorized(w, "Invalid session identity")
		return
	}

	var req SelectCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.companies.SetSelected(ctx, identity.ActorID, req.CompanyID); err != nil {
		h.logger.Warn("tenant switch rejected",
			zap.String("request_id", middleware.RequestID(ctx)),
			zap.String("actor_id", identity.ActorID.String()),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.invalidator.OnTenantSwitch(identity.ActorID, claims.CompanyID)

	companyID := req.CompanyID
	session, err := h.tokens.IssueSession(identity, &companyID)
	if err != nil {
		h.logger.Error("failed to reissue session token", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}
	middleware.SetSessionCookie(w, session)

	h.logger.Info("selected company switched",
		zap.String("request_id", middleware.RequestID(ctx)),
		zap.String("actor_id", identity.ActorID.String()),
		zap.String("company_id", companyID.String()))

	_ = utils.WriteOK(w, SessionResponse{
		Identity:  identity,
		CompanyID: &companyID,
	})
}
