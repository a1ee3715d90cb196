package subscription

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

// Default resolver timings. The refresh interval doubles as the cache TTL;
// the floor keeps rapid repeated evaluations from hammering the backend.
const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultRefetchFloor    = 30 * time.Second
	DefaultCacheSize       = 1024
)

// Repository fetches subscription access info from the backing store
type Repository interface {
	// GetAccess returns the subscription access for an actor, scoped to a
	// tenant when one is selected. A nil result with nil error means no
	// subscription exists.
	GetAccess(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) (*models.SubscriptionAccess, error)
}

// Options tunes the resolver
type Options struct {
	RefreshInterval time.Duration
	RefetchFloor    time.Duration
	CacheSize       int
}

func (o *Options) applyDefaults() {
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
	if o.RefetchFloor <= 0 {
		o.RefetchFloor = DefaultRefetchFloor
	}
	if o.CacheSize <= 0 {
		o.CacheSize = DefaultCacheSize
	}
}

// Service is the subscription resolver. It owns its snapshot: results are
// cached per scope with a TTL, concurrent fetches for the same scope collapse
// into one request, refreshes are scheduled by the service itself, and a
// failed refresh falls back to the last-known-good value.
type Service struct {
	repo   Repository
	cache  *Cache
	sf     singleflight.Group
	logger *zap.Logger

	refreshInterval time.Duration
	refetchFloor    time.Duration

	mu          sync.Mutex
	lastAttempt map[string]time.Time
	generations map[string]uint64
}

// NewService creates a subscription resolver
func NewService(repo Repository, opts Options, logger *zap.Logger) *Service {
	opts.applyDefaults()
	return &Service{
		repo:            repo,
		cache:           NewCache(opts.CacheSize, opts.RefreshInterval),
		logger:          logger,
		refreshInterval: opts.RefreshInterval,
		refetchFloor:    opts.RefetchFloor,
		lastAttempt:     make(map[string]time.Time),
		generations:     make(map[string]uint64),
	}
}

// Peek returns the current snapshot for a scope without fetching. Loading
// when nothing has been resolved yet.
func (s *Service) Peek(scope Scope) access.SubscriptionState {
	if acc, ok := s.cache.GetAny(scope); ok {
		return access.SubscriptionState{State: access.StateReady, Access: acc}
	}
	return access.SubscriptionState{State: access.StateLoading}
}

// Resolve returns the subscription state for the actor, fetching when the
// cache has nothing fresh. Safe to call concurrently; in-flight fetches for
// the same scope are de-duplicated. The returned state is failed only when no
// value, not even a stale one, could be produced.
func (s *Service) Resolve(ctx context.Context, identity models.ActorIdentity, companyID *uuid.UUID) access.SubscriptionState {
	scope := Scope{ActorID: identity.ActorID, CompanyID: companyID}

	if acc, ok := s.cache.Get(scope); ok {
		return access.SubscriptionState{State: access.StateReady, Access: acc}
	}

	// Re-fetch spacing floor: when a recent attempt already ran, serve the
	// stale value rather than fetching again.
	if s.withinFloor(scope) {
		if acc, ok := s.cache.GetAny(scope); ok {
			return access.SubscriptionState{State: access.StateReady, Access: acc}
		}
		return access.SubscriptionState{State: access.StateLoading}
	}

	return s.fetch(ctx, scope, identity)
}

// Invalidate drops the cached result for a scope and bumps its generation so
// an in-flight fetch for the old state is discarded on arrival
func (s *Service) Invalidate(scope Scope) {
	s.mu.Lock()
	s.generations[scope.Key()]++
	delete(s.lastAttempt, scope.Key())
	s.mu.Unlock()
	s.cache.Invalidate(scope)
}

// InvalidateActor drops every cached result for an actor, across tenants.
// Called on re-authentication and tenant switch. Generations are bumped and
// the refetch floor reset so the next evaluation fetches immediately.
func (s *Service) InvalidateActor(actorID uuid.UUID) {
	prefix := actorID.String()
	s.mu.Lock()
	for key := range s.lastAttempt {
		if keyHasActor(key, prefix) {
			s.generations[key]++
			delete(s.lastAttempt, key)
		}
	}
	s.mu.Unlock()
	s.cache.InvalidateActor(actorID)
}

func keyHasActor(key, prefix string) bool {
	return key == prefix || len(key) > len(prefix) && key[:len(prefix)] == prefix && key[len(prefix)] == ':'
}

// Stats returns cache statistics
func (s *Service) Stats() CacheStats {
	return s.cache.Stats()
}

// StartRefreshWorker refreshes entries older than the refresh interval on a
// timer, independent of any request. Blocks until stopCh closes; run it in
// its own goroutine.
func (s *Service) StartRefreshWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshStale()
		case <-stopCh:
			return
		}
	}
}

func (s *Service) refreshStale() {
	for _, entry := range s.cache.staleEntries(s.refreshInterval) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s.fetch(ctx, entry.scope, entry.identity)
		cancel()
	}
}

// withinFloor records and checks the last fetch attempt for a scope
func (s *Service) withinFloor(scope Scope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastAttempt[scope.Key()]
	return ok && time.Since(last) < s.refetchFloor
}

func (s *Service) markAttempt(scope Scope) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttempt[scope.Key()] = time.Now()
	return s.generations[scope.Key()]
}

func (s *Service) currentGeneration(scope Scope) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[scope.Key()]
}

// fetch resolves the scope through the backend, collapsing concurrent callers
// into a single request
func (s *Service) fetch(ctx context.Context, scope Scope, identity models.ActorIdentity) access.SubscriptionState {
	key := scope.Key()
	gen := s.markAttempt(scope)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		acc, err := s.resolveBackend(ctx, scope, identity)
		if err != nil {
			return nil, err
		}
		// Discard if the scope was invalidated while the fetch was in
		// flight; the result belongs to a superseded tenant/session state.
		if s.currentGeneration(scope) != gen {
			s.logger.Debug("discarding stale subscription result",
				zap.String("scope", key))
			return nil, errStaleResult
		}
		s.cache.Set(scope, identity, acc)
		return acc, nil
	})

	if err == nil {
		return access.SubscriptionState{State: access.StateReady, Access: result.(models.SubscriptionAccess)}
	}
	if err == errStaleResult {
		return access.SubscriptionState{State: access.StateLoading}
	}

	// Last-known-good beats an error. Without one the state is failed: the
	// guards render permissively on it, but paid-feature gating stays closed
	// through the module table.
	if acc, ok := s.cache.GetAny(scope); ok {
		s.logger.Warn("subscription refresh failed, serving last-known-good",
			zap.String("scope", key),
			zap.Error(err))
		return access.SubscriptionState{State: access.StateReady, Access: acc}
	}

	s.logger.Error("subscription fetch failed with no cached value",
		zap.String("scope", key),
		zap.Error(err))
	return access.SubscriptionState{State: access.StateFailed}
}

// resolveBackend performs the actual backend call. Master short-circuits to
// an always-active result: the real subscription when one exists, else a
// synthetic full-access one. Master must never be locked out by subscription
// plumbing.
func (s *Service) resolveBackend(ctx context.Context, scope Scope, identity models.ActorIdentity) (models.SubscriptionAccess, error) {
	acc, err := s.repo.GetAccess(ctx, scope.ActorID, scope.CompanyID)

	if identity.Role == models.RoleMaster {
		if err == nil && acc != nil && acc.HasAccess {
			return *acc, nil
		}
		if err != nil {
			s.logger.Warn("subscription backend unavailable for master, synthesizing full access",
				zap.String("scope", scope.Key()),
				zap.Error(err))
		}
		return models.FullAccess(), nil
	}

	if err != nil {
		return models.SubscriptionAccess{}, err
	}
	if acc == nil {
		return models.SubscriptionAccess{HasAccess: false, Status: models.SubscriptionNone}, nil
	}
	return *acc, nil
}

// errStaleResult marks a fetch whose scope was invalidated mid-flight
var errStaleResult = staleError{}

type staleError struct{}

func (staleError) Error() string { return "stale subscription result discarded" }
