package company

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolved company directory is trusted
const DefaultTTL = 5 * time.Minute

// Repository fetches the tenant directory for an actor
type Repository interface {
	GetCompanies(ctx context.Context, actorID uuid.UUID) (*models.CompanyDirectory, error)
}

type directoryEntry struct {
	directory models.CompanyDirectory
	fetchedAt time.Time
}

// Service resolves tenant presence and selection per actor. The company
// guard treats anything short of a confirmed directory as unknown and lets
// the route render rather than flash a wrong redirect.
type Service struct {
	repo   Repository
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]directoryEntry
}

// NewService creates a company resolver
func NewService(repo Repository, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[uuid.UUID]directoryEntry),
	}
}

// Resolve returns the tenant state for an actor, fetching when nothing fresh
// is cached
func (s *Service) Resolve(ctx context.Context, actorID uuid.UUID) access.TenantState {
	s.mu.Lock()
	entry, ok := s.entries[actorID]
	s.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) <= s.ttl {
		return access.TenantState{State: access.StateReady, Selection: entry.directory.Selection()}
	}

	result, err, _ := s.sf.Do(actorID.String(), func() (interface{}, error) {
		dir, err := s.repo.GetCompanies(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if dir == nil {
			dir = &models.CompanyDirectory{}
		}
		s.mu.Lock()
		s.entries[actorID] = directoryEntry{directory: *dir, fetchedAt: time.Now()}
		s.mu.Unlock()
		return *dir, nil
	})

	if err == nil {
		dir := result.(models.CompanyDirectory)
		return access.TenantState{State: access.StateReady, Selection: dir.Selection()}
	}

	// A stale directory still confirms presence; with nothing cached the
	// presence stays unconfirmed and the guard allows.
	if ok {
		s.logger.Warn("company fetch failed, serving last-known-good",
			zap.String("actor_id", actorID.String()),
			zap.Error(err))
		return access.TenantState{State: access.StateReady, Selection: entry.directory.Selection()}
	}

	s.logger.Error("company fetch failed with no cached directory",
		zap.String("actor_id", actorID.String()),
		zap.Error(err))
	return access.TenantState{State: access.StateFailed}
}

// Invalidate drops the cached directory for an actor. Called when the actor
// creates or switches a tenant.
func (s *Service) Invalidate(actorID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, actorID)
}
