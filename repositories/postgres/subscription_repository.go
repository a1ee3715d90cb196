package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/repositories"
	"go.uber.org/zap"
)

// expiryWarningWindow is how far ahead of expiry a plan counts as expiring soon
const expiryWarningWindow = 7 * 24 * time.Hour

// SubscriptionRepository implements the repositories.SubscriptionRepository interface
type SubscriptionRepository struct {
	db     *DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DB, logger *zap.Logger) repositories.SubscriptionRepository {
	return &SubscriptionRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// GetAccess retrieves the effective subscription access for an actor. A
// company-scoped plan wins over an actor-level one; (nil, nil) means the actor
// holds no subscription at all.
func (r *SubscriptionRepository) GetAccess(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) (*models.SubscriptionAccess, error) {
	query := `
		SELECT status, expires_at
		FROM subscriptions
		WHERE actor_id = $1
			AND (company_id = $2 OR company_id IS NULL)
		ORDER BY company_id NULLS LAST, created_at DESC
		LIMIT 1
	`

	var status models.SubscriptionStatus
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, actorID, companyID).Scan(&status, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	access := r.buildAccess(status, expiresAt)

	r.logger.Debug("subscription resolved",
		zap.String("actor_id", actorID.String()),
		zap.String("status", string(access.Status)),
		zap.Bool("has_access", access.HasAccess))

	return access, nil
}

// buildAccess derives the access view from the stored row. An active plan past
// its expires_at keeps access (billing flips the status when grace runs out)
// but is flagged expired so the renewal nudge fires.
func (r *SubscriptionRepository) buildAccess(status models.SubscriptionStatus, expiresAt sql.NullTime) *models.SubscriptionAccess {
	access := &models.SubscriptionAccess{
		HasAccess: status == models.SubscriptionActive,
		Status:    status,
	}

	if !expiresAt.Valid {
		return access
	}

	now := r.now()
	until := expiresAt.Time.Sub(now)

	if until <= 0 {
		access.IsExpired = true
		return access
	}

	days := int(until.Hours() / 24)
	access.DaysUntilExpiry = &days
	if until <= expiryWarningWindow {
		access.IsExpiringSoon = true
	}

	return access
}
