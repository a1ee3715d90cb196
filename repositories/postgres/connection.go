package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/access-control-plane/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Actors table
		CREATE TABLE IF NOT EXISTS actors (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			role VARCHAR(50) NOT NULL,
			is_owner BOOLEAN NOT NULL DEFAULT false,
			can_create_company BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Companies table
		CREATE TABLE IF NOT EXISTS companies (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Company membership, with at most one selected company per actor
		CREATE TABLE IF NOT EXISTS company_members (
			actor_id UUID NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			selected BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (actor_id, company_id)
		);

		-- Subscriptions table; company_id NULL means an actor-level plan
		CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			actor_id UUID NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
			company_id UUID REFERENCES companies(id) ON DELETE CASCADE,
			status VARCHAR(50) NOT NULL,
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Permission grants; company_id NULL means a global grant
		CREATE TABLE IF NOT EXISTS permission_grants (
			actor_id UUID NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
			company_id UUID REFERENCES companies(id) ON DELETE CASCADE,
			permission VARCHAR(100) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Module enablement per company
		CREATE TABLE IF NOT EXISTS company_modules (
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			module_id VARCHAR(100) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT false,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (company_id, module_id)
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_company_members_actor_id ON company_members(actor_id);
		CREATE INDEX IF NOT EXISTS idx_company_members_company_id ON company_members(company_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_company_members_selected
			ON company_members(actor_id) WHERE selected;

		CREATE INDEX IF NOT EXISTS idx_subscriptions_actor_id ON subscriptions(actor_id);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_company_id ON subscriptions(company_id);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status);

		CREATE INDEX IF NOT EXISTS idx_permission_grants_actor_id ON permission_grants(actor_id);
		CREATE INDEX IF NOT EXISTS idx_permission_grants_company_id ON permission_grants(company_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_permission_grants_unique
			ON permission_grants(actor_id, permission, COALESCE(company_id, '00000000-0000-0000-0000-000000000000'::uuid));

		CREATE INDEX IF NOT EXISTS idx_company_modules_company_id ON company_modules(company_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
