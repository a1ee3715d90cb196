package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/repositories"
	"go.uber.org/zap"
)

// PermissionRepository implements the repositories.PermissionRepository interface
type PermissionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *DB, logger *zap.Logger) repositories.PermissionRepository {
	return &PermissionRepository{
		db:     db,
		logger: logger,
	}
}

// GetPermissions retrieves the permission strings granted to the actor.
// Global grants (no company) always apply; company-scoped grants apply only
// when that company is selected.
func (r *PermissionRepository) GetPermissions(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT permission
		FROM permission_grants
		WHERE actor_id = $1
			AND (company_id IS NULL OR company_id = $2)
		ORDER BY permission
	`

	rows, err := r.db.QueryContext(ctx, query, actorID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var permission string
		if err := rows.Scan(&permission); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permission rows: %w", err)
	}

	r.logger.Debug("permissions resolved",
		zap.String("actor_id", actorID.String()),
		zap.Int("count", len(permissions)))

	return permissions, nil
}
