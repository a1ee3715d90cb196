package modules

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

// DefaultTTL is how long a tenant's module table is trusted before refetch
const DefaultTTL = 5 * time.Minute

// Repository fetches the enabled-module table for a tenant
type Repository interface {
	GetModules(ctx context.Context, companyID uuid.UUID) (models.ModuleTable, error)
}

// DefaultAliases maps canonical module identifiers to the legacy identifiers
// that also satisfy them. Alias resolution is table-driven; call sites only
// ever see canonical identifiers.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		"integrations": {"zapier", "webhooks", "external-api"},
	}
}

type tableEntry struct {
	table     models.ModuleTable
	fetchedAt time.Time
}

// Service is the module availability resolver. Tables are scoped per tenant
// and reloaded on tenant switch; the evaluators fail closed while a table is
// loading or missing.
type Service struct {
	repo    Repository
	aliases map[string][]string
	ttl     time.Duration
	sf      singleflight.Group
	logger  *zap.Logger

	mu          sync.Mutex
	entries     map[uuid.UUID]tableEntry
	generations map[uuid.UUID]uint64
}

// NewService creates a module resolver with the default alias table
func NewService(repo Repository, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:        repo,
		aliases:     DefaultAliases(),
		ttl:         ttl,
		logger:      logger,
		entries:     make(map[uuid.UUID]tableEntry),
		generations: make(map[uuid.UUID]uint64),
	}
}

// Resolve returns the module state for the selected tenant. No selected
// tenant resolves to an empty table: every module-gated predicate is false,
// everything else renders normally.
func (s *Service) Resolve(ctx context.Context, companyID *uuid.UUID) access.ModuleState {
	if companyID == nil {
		return access.ModuleState{State: access.StateReady, Table: models.ModuleTable{}}
	}

	if table, ok := s.cached(*companyID); ok {
		return access.ModuleState{State: access.StateReady, Table: table}
	}
	return s.fetch(ctx, *companyID)
}

// Peek returns the current state without fetching
func (s *Service) Peek(companyID *uuid.UUID) access.ModuleState {
	if companyID == nil {
		return access.ModuleState{State: access.StateReady, Table: models.ModuleTable{}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[*companyID]; ok {
		return access.ModuleState{State: access.StateReady, Table: entry.table}
	}
	return access.ModuleState{State: access.StateLoading}
}

// Invalidate drops the table for a tenant and discards any in-flight fetch
// result for it. Called when the actor switches tenants or modules change.
func (s *Service) Invalidate(companyID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[companyID]++
	delete(s.entries, companyID)
}

func (s *Service) cached(companyID uuid.UUID) (models.ModuleTable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[companyID]
	if !ok || time.Since(entry.fetchedAt) > s.ttl {
		return nil, false
	}
	return entry.table, true
}

func (s *Service) fetch(ctx context.Context, companyID uuid.UUID) access.ModuleState {
	s.mu.Lock()
	gen := s.generations[companyID]
	s.mu.Unlock()

	result, err, _ := s.sf.Do(companyID.String(), func() (interface{}, error) {
		table, err := s.repo.GetModules(ctx, companyID)
		if err != nil {
			return nil, err
		}
		table = s.normalize(table)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generations[companyID] != gen {
			// Tenant switched while the fetch was in flight; this table
			// belongs to a superseded selection.
			s.logger.Debug("discarding stale module table",
				zap.String("company_id", companyID.String()))
			return nil, errStaleTable
		}
		s.entries[companyID] = tableEntry{table: table, fetchedAt: time.Now()}
		return table, nil
	})

	if err == nil {
		return access.ModuleState{State: access.StateReady, Table: result.(models.ModuleTable)}
	}
	if err == errStaleTable {
		return access.ModuleState{State: access.StateLoading}
	}

	// Last-known-good even when expired; otherwise fail closed.
	s.mu.Lock()
	entry, ok := s.entries[companyID]
	s.mu.Unlock()
	if ok {
		s.logger.Warn("module fetch failed, serving last-known-good",
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		return access.ModuleState{State: access.StateReady, Table: entry.table}
	}

	s.logger.Error("module fetch failed with no cached table",
		zap.String("company_id", companyID.String()),
		zap.Error(err))
	return access.ModuleState{State: access.StateFailed}
}

// normalize applies the alias table: a canonical module is enabled when the
// canonical flag or any of its legacy aliases is enabled
func (s *Service) normalize(table models.ModuleTable) models.ModuleTable {
	out := table.Clone()
	for canonical, aliases := range s.aliases {
		if out[canonical] {
			continue
		}
		for _, alias := range aliases {
			if out[alias] {
				out[canonical] = true
				break
			}
		}
	}
	return out
}

var errStaleTable = staleError{}

type staleError struct{}

func (staleError) Error() string { return "stale module table discarded" }
