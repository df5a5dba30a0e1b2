package checkers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxChecker pings a pgx connection pool.
type PgxChecker struct {
	pool *pgxpool.Pool
	name string
}

// NewPgxChecker builds a checker for the given pool. An empty name
// defaults to "postgres".
func NewPgxChecker(pool *pgxpool.Pool, name string) *PgxChecker {
	if name == "" {
		name = "postgres"
	}
	return &PgxChecker{pool: pool, name: name}
}

func (p *PgxChecker) Name() string { return p.name }

// Check fails when the pool cannot reach the database.
func (p *PgxChecker) Check(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
