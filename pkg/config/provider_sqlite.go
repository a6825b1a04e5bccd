package config

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/chrissnell/startracker/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteProvider layers writable saved locations, kept in a SQLite file, over
// a base configuration. The first open seeds the table from the base.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
	base   ConfigData
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string, base *ConfigData) (*SQLiteProvider, error) {
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
	if err := migrate.Apply(db, migrations, "config_migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate locations: %w", err)
	}

	s := &SQLiteProvider{db: db, dbPath: dbPath, base: *base}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteProvider) seed() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM locations`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count locations: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, l := range s.base.Locations {
		if err := s.SaveLocation(l); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig returns the base configuration with the stored locations.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	locations, err := s.GetLocations()
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}

	config := s.base
	config.Locations = locations
	if _, ok := config.FindLocation(config.Observer.Location); !ok && len(locations) > 0 {
		config.Observer.Location = locations[0].Name
	}
	return &config, nil
}

// GetLocations returns saved locations in the order they were added.
func (s *SQLiteProvider) GetLocations() ([]LocationData, error) {
	rows, err := s.db.Query(`SELECT name, latitude, longitude FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []LocationData
	for rows.Next() {
		var l LocationData
		if err := rows.Scan(&l.Name, &l.Latitude, &l.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// SaveLocation adds l, or moves the existing location of the same name.
func (s *SQLiteProvider) SaveLocation(l LocationData) error {
	if l.Name == "" {
		return fmt.Errorf("location name is required")
	}
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("location %q has invalid coordinates (%v, %v)", l.Name, l.Latitude, l.Longitude)
	}

	_, err := s.db.Exec(`
		INSERT INTO locations (name, latitude, longitude) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET latitude = excluded.latitude, longitude = excluded.longitude`,
		l.Name, l.Latitude, l.Longitude)
	if err != nil {
		return fmt.Errorf("failed to save location %q: %w", l.Name, err)
	}
	return nil
}

// DeleteLocation removes the named location. The last location cannot be
// removed.
func (s *SQLiteProvider) DeleteLocation(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM locations`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count locations: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM locations WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete location %q: %w", name, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("location %q not found", name)
	}
	if n <= 1 {
		return ErrLastLocation
	}

	return tx.Commit()
}

// IsReadOnly returns false since locations can be written
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
