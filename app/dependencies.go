package app

import (
	"fmt"

	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/auth"
	"github.com/upb/access-control-plane/config"
	"github.com/upb/access-control-plane/handlers"
	"github.com/upb/access-control-plane/middleware"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/navigation"
	"github.com/upb/access-control-plane/repositories"
	"github.com/upb/access-control-plane/repositories/postgres"
	"github.com/upb/access-control-plane/services/company"
	"github.com/upb/access-control-plane/services/modules"
	"github.com/upb/access-control-plane/services/permission"
	"github.com/upb/access-control-plane/services/snapshot"
	"github.com/upb/access-control-plane/services/subscription"
	"go.uber.org/zap"
)

// Dependencies wires the application object graph
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Factory      *postgres.RepositoryFactory
	Repositories *repositories.Repositories

	TokenManager  *auth.TokenManager
	Subscriptions *subscription.Service
	Permissions   *permission.Loader
	Modules       *modules.Service
	Companies     *company.Service
	Snapshots     *snapshot.Builder

	Chain  *access.Chain
	Filter *navigation.Filter
	Tree   []models.NavigationNode

	SessionMiddleware *middleware.SessionMiddleware
	GuardMiddleware   *middleware.GuardMiddleware

	AccessHandler     *handlers.AccessHandler
	NavigationHandler *handlers.NavigationHandler
	SessionHandler    *handlers.SessionHandler
	HealthHandler     *handlers.HealthHandler
}

// NewDependencies constructs the full dependency graph from configuration
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	repos := factory.NewRepositories()

	tokens := auth.NewTokenManager(
		[]byte(cfg.Auth.JWTSecret),
		cfg.Auth.Issuer,
		cfg.Auth.SessionTTL,
		cfg.Auth.RefreshTTL,
	)

	subscriptions := subscription.NewService(repos.Subscriptions, subscription.Options{
		RefreshInterval: cfg.Resolvers.SubscriptionRefreshInterval,
		RefetchFloor:    cfg.Resolvers.SubscriptionRefetchFloor,
		CacheSize:       cfg.Resolvers.SubscriptionCacheSize,
	}, logger)
	permissions := permission.NewLoader(repos.Permissions, cfg.Resolvers.PermissionTTL, logger)
	moduleSvc := modules.NewService(repos.Modules, cfg.Resolvers.ModuleTTL, logger)
	companies := company.NewService(repos.Companies, cfg.Resolvers.CompanyTTL, logger)

	snapshots := snapshot.NewBuilder(subscriptions, permissions, moduleSvc, companies, logger)

	// One evaluator behind both the guard chain and the menu filter, so a
	// route decision can never disagree with menu visibility.
	evaluator := access.NewEvaluator(permission.NewEvaluator(logger))
	tree := navigation.DefaultTree()
	chain := access.NewChain(evaluator, navigation.Routes(tree), logger)
	filter := navigation.NewFilter(evaluator, logger)

	sessionMw := middleware.NewSessionMiddleware(tokens, logger)
	guardMw := middleware.NewGuardMiddleware(chain, snapshots, logger)

	deps := &Dependencies{
		Config:            cfg,
		Logger:            logger,
		Factory:           factory,
		Repositories:      repos,
		TokenManager:      tokens,
		Subscriptions:     subscriptions,
		Permissions:       permissions,
		Modules:           moduleSvc,
		Companies:         companies,
		Snapshots:         snapshots,
		Chain:             chain,
		Filter:            filter,
		Tree:              tree,
		SessionMiddleware: sessionMw,
		GuardMiddleware:   guardMw,
		AccessHandler:     handlers.NewAccessHandler(chain, snapshots, logger),
		NavigationHandler: handlers.NewNavigationHandler(filter, tree, snapshots, logger),
		SessionHandler:    handlers.NewSessionHandler(repos.Actors, repos.Companies, tokens, snapshots, logger),
		HealthHandler:     handlers.NewHealthHandler(factory.GetDB().DB, logger),
	}

	return deps, nil
}

// Close releases held resources
func (d *Dependencies) Close() error {
	if d.Factory != nil {
		return d.Factory.Close()
	}
	return nil
}
