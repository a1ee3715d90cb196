package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/services"
	"go.uber.org/zap"
)

func newActorRepo(t *testing.T) (*ActorRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := &ActorRepository{
		db:     &DB{DB: db, logger: zap.NewNop()},
		logger: zap.NewNop(),
	}

	return repo, mock, func() { db.Close() }
}

func actorColumns() []string {
	return []string{"id", "email", "role", "is_owner", "can_create_company", "created_at", "updated_at"}
}

func TestActorRepositoryGetByEmail(t *testing.T) {
	t.Run("returns the actor", func(t *testing.T) {
		repo, mock, closeDB := newActorRepo(t)
		defer closeDB()

		actorID := uuid.New()
		now := time.Now()
		mock.ExpectQuery("SELECT id, email, role, is_owner, can_create_company").
			WithArgs("admin@acme.test").
			WillReturnRows(sqlmock.NewRows(actorColumns()).
				AddRow(actorID, "admin@acme.test", "admin", true, true, now, now))

		actor, err := repo.GetByEmail(context.Background(), "admin@acme.test")
		require.NoError(t, err)

		assert.Equal(t, actorID, actor.ID)
		assert.Equal(t, models.RoleAdmin, actor.Role)
		assert.True(t, actor.CanCreateCompany)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email maps to the not-found domain error", func(t *testing.T) {
		repo, mock, closeDB := newActorRepo(t)
		defer closeDB()

		mock.ExpectQuery("SELECT id, email, role, is_owner, can_create_company").
			WithArgs("ghost@acme.test").
			WillReturnRows(sqlmock.NewRows(actorColumns()))

		actor, err := repo.GetByEmail(context.Background(), "ghost@acme.test")
		require.Error(t, err)

		assert.Nil(t, actor)
		assert.ErrorIs(t, err, services.ErrActorNotFound)
		assert.True(t, services.IsNotFoundError(err))
	})

	t.Run("query failure is not a not-found error", func(t *testing.T) {
		repo, mock, closeDB := newActorRepo(t)
		defer closeDB()

		mock.ExpectQuery("SELECT id, email, role, is_owner, can_create_company").
			WithArgs("admin@acme.test").
			WillReturnError(assert.AnError)

		_, err := repo.GetByEmail(context.Background(), "admin@acme.test")
		require.Error(t, err)
		assert.False(t, services.IsNotFoundError(err))
	})
}

func TestActorRepositoryGetByID(t *testing.T) {
	repo, mock, closeDB := newActorRepo(t)
	defer closeDB()

	actorID := uuid.New()
	mock.ExpectQuery("SELECT id, email, role, is_owner, can_create_company").
		WithArgs(actorID).
		WillReturnRows(sqlmock.NewRows(actorColumns()))

	_, err := repo.GetByID(context.Background(), actorID)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrActorNotFound)
	assert.Contains(t, err.Error(), actorID.String())
}
