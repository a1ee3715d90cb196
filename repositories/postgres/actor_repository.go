package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/repositories"
	"github.com/upb/access-control-plane/services"
	"go.uber.org/zap"
)

// ActorRepository implements the repositories.ActorRepository interface
type ActorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActorRepository creates a new actor repository
func NewActorRepository(db *DB, logger *zap.Logger) repositories.ActorRepository {
	return &ActorRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an actor by ID
func (r *ActorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error) {
	query := `
		SELECT id, email, role, is_owner, can_create_company, created_at, updated_at
		FROM actors
		WHERE id = $1
	`

	return r.scanActor(r.db.QueryRowContext(ctx, query, id), id.String())
}

// GetByEmail retrieves an actor by email
func (r *ActorRepository) GetByEmail(ctx context.Context, email string) (*models.Actor, error) {
	query := `
		SELECT id, email, role, is_owner, can_create_company, created_at, updated_at
		FROM actors
		WHERE email = $1
	`

	return r.scanActor(r.db.QueryRowContext(ctx, query, email), email)
}

func (r *ActorRepository) scanActor(row *sql.Row, key string) (*models.Actor, error) {
	actor := &models.Actor{}
	err := row.Scan(
		&actor.ID,
		&actor.Email,
		&actor.Role,
		&actor.IsOwner,
		&actor.CanCreateCompany,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", services.ErrActorNotFound, key)
		}
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}

	return actor, nil
}
