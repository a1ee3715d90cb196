package permission

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

// DefaultTTL is how long a loaded permission set is trusted. Permission sets
// are otherwise immutable until re-authentication or tenant change.
const DefaultTTL = 10 * time.Minute

// Repository fetches the permission strings granted to an actor
type Repository interface {
	GetPermissions(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) ([]string, error)
}

type setEntry struct {
	set       models.PermissionSet
	fetchedAt time.Time
}

// Loader owns the PermissionSet snapshot: loaded once per session/tenant
// change, published read-only, replaced wholesale on reload.
type Loader struct {
	repo   Repository
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]setEntry
}

// NewLoader creates a permission set loader
func NewLoader(repo Repository, ttl time.Duration, logger *zap.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]setEntry),
	}
}

func scopeKey(actorID uuid.UUID, companyID *uuid.UUID) string {
	if companyID != nil {
		return actorID.String() + ":" + companyID.String()
	}
	return actorID.String()
}

// Resolve returns the permission state for an actor within the selected
// tenant, loading it on first use
func (l *Loader) Resolve(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) access.PermissionState {
	key := scopeKey(actorID, companyID)

	l.mu.Lock()
	entry, ok := l.entries[key]
	l.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) <= l.ttl {
		return access.PermissionState{State: access.StateReady, Set: entry.set}
	}

	result, err, _ := l.sf.Do(key, func() (interface{}, error) {
		perms, err := l.repo.GetPermissions(ctx, actorID, companyID)
		if err != nil {
			return nil, err
		}
		set := models.NewPermissionSet(perms)
		l.mu.Lock()
		l.entries[key] = setEntry{set: set, fetchedAt: time.Now()}
		l.mu.Unlock()
		return set, nil
	})

	if err == nil {
		return access.PermissionState{State: access.StateReady, Set: result.(models.PermissionSet)}
	}

	if ok {
		l.logger.Warn("permission reload failed, serving last-known-good",
			zap.String("scope", key),
			zap.Error(err))
		return access.PermissionState{State: access.StateReady, Set: entry.set}
	}

	l.logger.Error("permission load failed with no cached set",
		zap.String("scope", key),
		zap.Error(err))
	return access.PermissionState{State: access.StateFailed}
}

// Invalidate drops every loaded set for an actor. Called on tenant switch and
// re-authentication.
func (l *Loader) Invalidate(actorID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := actorID.String()
	for key := range l.entries {
		if key == prefix || len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(l.entries, key)
		}
	}
}
