package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists nodes in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, pings the server and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS nodes (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		external_id BIGINT NOT NULL UNIQUE,
		colour TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		pantone_value TEXT NOT NULL DEFAULT '',
		published BOOLEAN NOT NULL DEFAULT FALSE,
		changed TIMESTAMPTZ NOT NULL
	)`)
	return err
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, extID int) (*Node, error) {
	var node Node
	err := s.pool.QueryRow(ctx, `
		SELECT id, type, title, external_id, colour, year, pantone_value, published, changed
		FROM nodes WHERE external_id = $1
	`, extID).Scan(&node.ID, &node.Type, &node.Title, &node.ExternalID, &node.Colour,
		&node.Year, &node.PantoneValue, &node.Published, &node.Changed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query node: %w", err)
	}
	return &node, nil
}

func (s *PostgresStore) Save(ctx context.Context, node *Node) error {
	if node.ID == 0 {
		err := s.pool.QueryRow(ctx, `
			INSERT INTO nodes (type, title, external_id, colour, year, pantone_value, published, changed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, node.Type, node.Title, node.ExternalID, node.Colour, node.Year, node.PantoneValue, node.Published, node.Changed).Scan(&node.ID)
		if err != nil {
			return fmt.Errorf("insert node: %w", err)
		}
		return nil
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE nodes
		SET type = $1, title = $2, external_id = $3, colour = $4, year = $5, pantone_value = $6, published = $7, changed = $8
		WHERE id = $9
	`, node.Type, node.Title, node.ExternalID, node.Colour, node.Year, node.PantoneValue, node.Published, node.Changed, node.ID)
	if err != nil {
		return fmt.Errorf("update node %d: %w", node.ID, err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
