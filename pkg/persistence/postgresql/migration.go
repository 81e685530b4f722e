package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow definitions. Steps, trigger, and context are stored as
			-- JSONB documents: the canvas owns their shape and the database
			-- only needs to hand them back byte-for-byte.
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				steps JSONB NOT NULL DEFAULT '[]',
				entry_step VARCHAR(255) NOT NULL DEFAULT '',
				context JSONB,
				trigger JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_name ON workflows(name);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at);

			-- Agents steps reference by id.
			CREATE TABLE agents (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				agent_type VARCHAR(50) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_agents_name ON agents(name);
			CREATE INDEX idx_agents_agent_type ON agents(agent_type);
		`,
	}
}

// runMigrations creates the schema_migrations bookkeeping table and applies
// every pending migration in version order, one transaction each.
func (p *Persistence) runMigrations(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Starting database migrations")

	createMigrationsSQL := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`

	_, err := p.db.ExecContext(ctx, createMigrationsSQL)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var currentVersion int

	err = p.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to query current schema version: %w", err)
	}

	p.logger.InfoContext(ctx, "Current schema version", "version", currentVersion)

	pending := migrations()

	versions := make([]int, 0, len(pending))
	for version := range pending {
		versions = append(versions, version)
	}

	sort.Ints(versions)

	for _, version := range versions {
		if version <= currentVersion {
			continue
		}

		p.logger.InfoContext(ctx, "Applying migration", "version", version)

		err = p.applyMigration(ctx, version, pending[version])
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
	}

	return nil
}

func (p *Persistence) applyMigration(ctx context.Context, version int, migration string) error {
	transaction, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = transaction.ExecContext(ctx, migration)
	if err != nil {
		return rollback(transaction, err)
	}

	_, err = transaction.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
	if err != nil {
		return rollback(transaction, err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

func rollback(transaction *sql.Tx, cause error) error {
	err := transaction.Rollback()
	if err != nil {
		return fmt.Errorf("rollback failed: %w (after: %w)", err, cause)
	}

	return cause
}
