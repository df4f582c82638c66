package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists nodes in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. ":memory:" yields a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		external_id INTEGER NOT NULL UNIQUE,
		colour TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		pantone_value TEXT NOT NULL DEFAULT '',
		published INTEGER NOT NULL DEFAULT 0,
		changed TEXT NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) FindByExternalID(ctx context.Context, extID int) (*Node, error) {
	var (
		node    Node
		changed string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, title, external_id, colour, year, pantone_value, published, changed
		FROM nodes WHERE external_id = ?
	`, extID).Scan(&node.ID, &node.Type, &node.Title, &node.ExternalID, &node.Colour,
		&node.Year, &node.PantoneValue, &node.Published, &changed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query node: %w", err)
	}

	if node.Changed, err = time.Parse(time.RFC3339Nano, changed); err != nil {
		return nil, fmt.Errorf("parse changed: %w", err)
	}
	return &node, nil
}

func (s *SQLiteStore) Save(ctx context.Context, node *Node) error {
	changed := node.Changed.UTC().Format(time.RFC3339Nano)

	if node.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO nodes (type, title, external_id, colour, year, pantone_value, published, changed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, node.Type, node.Title, node.ExternalID, node.Colour, node.Year, node.PantoneValue, node.Published, changed)
		if err != nil {
			return fmt.Errorf("insert node: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert node id: %w", err)
		}
		node.ID = id
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE nodes
		SET type = ?, title = ?, external_id = ?, colour = ?, year = ?, pantone_value = ?, published = ?, changed = ?
		WHERE id = ?
	`, node.Type, node.Title, node.ExternalID, node.Colour, node.Year, node.PantoneValue, node.Published, changed, node.ID)
	if err != nil {
		return fmt.Errorf("update node %d: %w", node.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
