package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/chrissnell/startracker/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps the search cache in a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the cache at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrations, _ := fs.Sub(migrationFiles, "migrations")
	if err := migrate.Apply(db, migrations, "catalog_migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate search cache: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, query string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT query, identifier, ra, dec, resolved_at FROM searches WHERE query = ?`, query)

	var e Entry
	var resolved int64
	if err := row.Scan(&e.Query, &e.Identifier, &e.RightAscension, &e.Declination, &resolved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("failed to query search %q: %w", query, err)
	}
	e.ResolvedAt = time.Unix(resolved, 0).UTC()
	return e, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (query, identifier, ra, dec, resolved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET
			identifier = excluded.identifier,
			ra = excluded.ra,
			dec = excluded.dec,
			resolved_at = excluded.resolved_at`,
		e.Query, e.Identifier, e.RightAscension, e.Declination, e.ResolvedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store search %q: %w", e.Query, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT query FROM searches ORDER BY query`)
	if err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
