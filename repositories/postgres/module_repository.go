package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/repositories"
	"go.uber.org/zap"
)

// ModuleRepository implements the repositories.ModuleRepository interface
type ModuleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *DB, logger *zap.Logger) repositories.ModuleRepository {
	return &ModuleRepository{
		db:     db,
		logger: logger,
	}
}

// GetModules retrieves the module enablement table for a company. Modules with
// no row are simply absent from the table; gating treats absent as disabled.
func (r *ModuleRepository) GetModules(ctx context.Context, companyID uuid.UUID) (models.ModuleTable, error) {
	query := `
		SELECT module_id, enabled
		FROM company_modules
		WHERE company_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	table := make(models.ModuleTable)
	for rows.Next() {
		var moduleID string
		var enabled bool
		if err := rows.Scan(&moduleID, &enabled); err != nil {
			return nil, fmt.Errorf("failed to scan module row: %w", err)
		}
		table[moduleID] = enabled
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating module rows: %w", err)
	}

	r.logger.Debug("module table resolved",
		zap.String("company_id", companyID.String()),
		zap.Int("count", len(table)))

	return table, nil
}
