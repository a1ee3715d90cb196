package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/auth"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/services/company"
	"github.com/upb/access-control-plane/services/modules"
	"github.com/upb/access-control-plane/services/permission"
	"github.com/upb/access-control-plane/services/subscription"
	"go.uber.org/zap"
)

type mockSubscriptionRepo struct{ mock.Mock }

func (m *mockSubscriptionRepo) GetAccess(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) (*models.SubscriptionAccess, error) {
	args := m.Called(ctx, actorID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionAccess), args.Error(1)
}

type mockPermissionRepo struct{ mock.Mock }

func (m *mockPermissionRepo) GetPermissions(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) ([]string, error) {
	args := m.Called(ctx, actorID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockModuleRepo struct{ mock.Mock }

func (m *mockModuleRepo) GetModules(ctx context.Context, companyID uuid.UUID) (models.ModuleTable, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.ModuleTable), args.Error(1)
}

type mockCompanyRepo struct{ mock.Mock }

func (m *mockCompanyRepo) GetCompanies(ctx context.Context, actorID uuid.UUID) (*models.CompanyDirectory, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CompanyDirectory), args.Error(1)
}

type builderMocks struct {
	subscriptions *mockSubscriptionRepo
	permissions   *mockPermissionRepo
	modules       *mockModuleRepo
	companies     *mockCompanyRepo
}

func newTestBuilder() (*Builder, *builderMocks) {
	m := &builderMocks{
		subscriptions: new(mockSubscriptionRepo),
		permissions:   new(mockPermissionRepo),
		modules:       new(mockModuleRepo),
		companies:     new(mockCompanyRepo),
	}
	logger := zap.NewNop()
	return NewBuilder(
		subscription.NewService(m.subscriptions, subscription.Options{}, logger),
		permission.NewLoader(m.permissions, 0, logger),
		modules.NewService(m.modules, 0, logger),
		company.NewService(m.companies, 0, logger),
		logger,
	), m
}

func sessionClaims(actorID uuid.UUID, role models.Role, companyID *uuid.UUID) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: actorID.String()},
		Kind:             auth.KindSession,
		Role:             role,
		CompanyID:        companyID,
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("nil claims build an unauthenticated snapshot", func(t *testing.T) {
		b, _ := newTestBuilder()

		snap := b.Build(ctx, nil)
		assert.False(t, snap.Authenticated)
	})

	t.Run("malformed identity counts as unauthenticated", func(t *testing.T) {
		b, _ := newTestBuilder()
		claims := &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
			Kind:             auth.KindSession,
			Role:             models.RoleUser,
		}

		snap := b.Build(ctx, claims)
		assert.False(t, snap.Authenticated)
	})

	t.Run("resolved selection scopes every tenant resolver", func(t *testing.T) {
		b, m := newTestBuilder()
		actorID := uuid.New()
		selected := uuid.New()

		m.companies.On("GetCompanies", mock.Anything, actorID).
			Return(&models.CompanyDirectory{
				SelectedID: &selected,
				Companies:  []models.Company{{ID: selected, Name: "Acme"}},
			}, nil).Once()
		m.subscriptions.On("GetAccess", mock.Anything, actorID, &selected).
			Return(&models.SubscriptionAccess{HasAccess: true, Status: models.SubscriptionActive}, nil).Once()
		m.permissions.On("GetPermissions", mock.Anything, actorID, &selected).
			Return([]string{"client:view", "client:update"}, nil).Once()
		m.modules.On("GetModules", mock.Anything, selected).
			Return(models.ModuleTable{"rentals": true}, nil).Once()

		snap := b.Build(ctx, sessionClaims(actorID, models.RoleUser, nil))

		require.True(t, snap.Authenticated)
		assert.Equal(t, access.StateReady, snap.Tenant.State)
		assert.Equal(t, access.StateReady, snap.Subscription.State)
		assert.True(t, snap.Subscription.Access.HasAccess)
		assert.True(t, snap.Permissions.Set.Has("client:view"))
		assert.True(t, snap.Modules.Table.Enabled("rentals"))
		m.subscriptions.AssertExpectations(t)
		m.modules.AssertExpectations(t)
	})

	t.Run("claims hint scopes resolvers while the directory is unresolved", func(t *testing.T) {
		b, m := newTestBuilder()
		actorID := uuid.New()
		hinted := uuid.New()

		m.companies.On("GetCompanies", mock.Anything, actorID).
			Return(nil, errors.New("backend down")).Once()
		m.subscriptions.On("GetAccess", mock.Anything, actorID, &hinted).
			Return(&models.SubscriptionAccess{HasAccess: true, Status: models.SubscriptionActive}, nil).Once()
		m.permissions.On("GetPermissions", mock.Anything, actorID, &hinted).
			Return([]string{}, nil).Once()
		m.modules.On("GetModules", mock.Anything, hinted).
			Return(models.ModuleTable{}, nil).Once()

		snap := b.Build(ctx, sessionClaims(actorID, models.RoleUser, &hinted))

		assert.Equal(t, access.StateFailed, snap.Tenant.State)
		m.subscriptions.AssertExpectations(t)
	})

	t.Run("confirmed empty directory overrides a stale claims hint", func(t *testing.T) {
		b, m := newTestBuilder()
		actorID := uuid.New()
		stale := uuid.New()

		m.companies.On("GetCompanies", mock.Anything, actorID).
			Return(&models.CompanyDirectory{}, nil).Once()
		m.subscriptions.On("GetAccess", mock.Anything, actorID, (*uuid.UUID)(nil)).
			Return(nil, nil).Once()
		m.permissions.On("GetPermissions", mock.Anything, actorID, (*uuid.UUID)(nil)).
			Return([]string{}, nil).Once()

		snap := b.Build(ctx, sessionClaims(actorID, models.RoleUser, &stale))

		assert.Equal(t, access.StateReady, snap.Tenant.State)
		assert.Nil(t, snap.Tenant.Selection.SelectedCompanyID)
		m.subscriptions.AssertExpectations(t)
		m.modules.AssertNotCalled(t, "GetModules", mock.Anything, stale)
	})
}

func TestOnTenantSwitch(t *testing.T) {
	ctx := context.Background()

	b, m := newTestBuilder()
	actorID := uuid.New()
	previous := uuid.New()

	m.companies.On("GetCompanies", mock.Anything, actorID).
		Return(&models.CompanyDirectory{
			SelectedID: &previous,
			Companies:  []models.Company{{ID: previous, Name: "Acme"}},
		}, nil).Twice()
	m.subscriptions.On("GetAccess", mock.Anything, actorID, &previous).
		Return(&models.SubscriptionAccess{HasAccess: true, Status: models.SubscriptionActive}, nil).Twice()
	m.permissions.On("GetPermissions", mock.Anything, actorID, &previous).
		Return([]string{}, nil).Twice()
	m.modules.On("GetModules", mock.Anything, previous).
		Return(models.ModuleTable{}, nil).Twice()

	claims := sessionClaims(actorID, models.RoleUser, nil)
	b.Build(ctx, claims)
	b.OnTenantSwitch(actorID, &previous)
	b.Build(ctx, claims)

	m.companies.AssertNumberOfCalls(t, "GetCompanies", 2)
	m.subscriptions.AssertNumberOfCalls(t, "GetAccess", 2)
	m.permissions.AssertNumberOfCalls(t, "GetPermissions", 2)
	m.modules.AssertNumberOfCalls(t, "GetModules", 2)
}
