package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/repositories"
	"github.com/upb/access-control-plane/services"
	"go.uber.org/zap"
)

// CompanyRepository implements the repositories.CompanyRepository interface
type CompanyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *DB, logger *zap.Logger) repositories.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// GetCompanies retrieves the companies an actor belongs to, including which
// one is currently selected
func (r *CompanyRepository) GetCompanies(ctx context.Context, actorID uuid.UUID) (*models.CompanyDirectory, error) {
	query := `
		SELECT c.id, c.name, m.selected
		FROM companies c
		JOIN company_members m ON m.company_id = c.id
		WHERE m.actor_id = $1
		ORDER BY c.name
	`

	rows, err := r.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	directory := &models.CompanyDirectory{Companies: []models.Company{}}
	for rows.Next() {
		var company models.Company
		var selected bool
		if err := rows.Scan(&company.ID, &company.Name, &selected); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		if selected {
			id := company.ID
			directory.SelectedID = &id
		}
		directory.Companies = append(directory.Companies, company)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}

	r.logger.Debug("company directory resolved",
		zap.String("actor_id", actorID.String()),
		zap.Int("count", len(directory.Companies)))

	return directory, nil
}

// SetSelected marks one of the actor's companies as the selected tenant. The
// actor must already be a member of the target company. Clear and set run in
// one transaction: a rejected switch must leave the previous selection intact.
func (r *CompanyRepository) SetSelected(ctx context.Context, actorID, companyID uuid.UUID) error {
	clear := `
		UPDATE company_members
		SET selected = false
		WHERE actor_id = $1 AND selected
	`

	set := `
		UPDATE company_members
		SET selected = true
		WHERE actor_id = $1 AND company_id = $2
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tenant switch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, clear, actorID); err != nil {
		return fmt.Errorf("failed to clear selected company: %w", err)
	}

	result, err := tx.ExecContext(ctx, set, actorID, companyID)
	if err != nil {
		return fmt.Errorf("failed to set selected company: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", services.ErrCompanyNotFound, companyID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tenant switch: %w", err)
	}

	r.logger.Debug("selected company updated",
		zap.String("actor_id", actorID.String()),
		zap.String("company_id", companyID.String()))

	return nil
}
