package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/access-control-plane/models"
)

func newManager() *TokenManager {
	return NewTokenManager([]byte("test-secret"), "access-control-plane", 15*time.Minute, 24*time.Hour)
}

func TestSessionTokens(t *testing.T) {
	m := newManager()
	identity := models.ActorIdentity{
		ActorID:          uuid.New(),
		Role:             models.RoleAdmin,
		IsOwner:          true,
		CanCreateCompany: true,
	}
	companyID := uuid.New()

	t.Run("round trip preserves the identity", func(t *testing.T) {
		token, err := m.IssueSession(identity, &companyID)
		require.NoError(t, err)

		claims, err := m.VerifySession(token)
		require.NoError(t, err)

		got, err := claims.Identity()
		require.NoError(t, err)
		assert.Equal(t, identity, got)
		require.NotNil(t, claims.CompanyID)
		assert.Equal(t, companyID, *claims.CompanyID)
	})

	t.Run("refresh token cannot pass a session check", func(t *testing.T) {
		token, err := m.IssueRefresh(identity, nil)
		require.NoError(t, err)

		_, err = m.VerifySession(token)
		assert.ErrorIs(t, err, ErrWrongKind)
	})

	t.Run("session token cannot pass a refresh check", func(t *testing.T) {
		token, err := m.IssueSession(identity, nil)
		require.NoError(t, err)

		_, err = m.VerifyRefresh(token)
		assert.ErrorIs(t, err, ErrWrongKind)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		short := NewTokenManager([]byte("test-secret"), "access-control-plane", -time.Minute, 24*time.Hour)
		token, err := short.IssueSession(identity, nil)
		require.NoError(t, err)

		_, err = short.VerifySession(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		other := NewTokenManager([]byte("other-secret"), "access-control-plane", 15*time.Minute, 24*time.Hour)
		token, err := other.IssueSession(identity, nil)
		require.NoError(t, err)

		_, err = m.VerifySession(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		other := NewTokenManager([]byte("test-secret"), "someone-else", 15*time.Minute, 24*time.Hour)
		token, err := other.IssueSession(identity, nil)
		require.NoError(t, err)

		_, err = m.VerifySession(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := m.VerifySession("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaimsIdentity(t *testing.T) {
	t.Run("invalid subject fails", func(t *testing.T) {
		claims := &Claims{Kind: KindSession, Role: models.RoleUser}
		claims.Subject = "not-a-uuid"

		_, err := claims.Identity()
		assert.Error(t, err)
	})

	t.Run("invalid role fails", func(t *testing.T) {
		claims := &Claims{Kind: KindSession, Role: "superhero"}
		claims.Subject = uuid.NewString()

		_, err := claims.Identity()
		assert.Error(t, err)
	})
}
