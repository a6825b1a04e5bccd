package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/chrissnell/startracker/internal/log"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func init() {
	log.SetLogger(zap.NewNop())
}

var testMigrations = fstest.MapFS{
	"001_create_things.up.sql":   {Data: []byte(`CREATE TABLE things (id INTEGER PRIMARY KEY)`)},
	"001_create_things.down.sql": {Data: []byte(`DROP TABLE things`)},
	"002_add_name.up.sql":        {Data: []byte(`ALTER TABLE things ADD COLUMN name TEXT`)},
	"002_add_name.down.sql":      {Data: []byte(`ALTER TABLE things DROP COLUMN name`)},
	"README.md":                  {Data: []byte(`not a migration`)},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testMigrations, "").GetMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	for _, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is missing a direction", m.Version)
		}
		if m.Version == 2 && m.Name != "add name" {
			t.Errorf("name = %q", m.Name)
		}
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, ""))

	pending, err := m.Pending()
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %v, %v", pending, err)
	}

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
	if _, err := db.Exec(`INSERT INTO things (id, name) VALUES (1, 'a')`); err != nil {
		t.Fatalf("schema not applied: %v", err)
	}

	// A second run is a no-op.
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}

	if err := m.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1): %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}
	if _, err := db.Exec(`INSERT INTO things (id, name) VALUES (2, 'b')`); err == nil {
		t.Error("column survived the rollback")
	}

	if err := m.MigrateDown(1); err == nil {
		t.Error("MigrateDown to the current version should fail")
	}
	if err := Apply(db, testMigrations, ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 2 {
		t.Errorf("version after re-apply = %d, want 2", v)
	}
}

func TestMissingDown(t *testing.T) {
	db := openDB(t)
	fsys := fstest.MapFS{"001_only_up.up.sql": {Data: []byte(`CREATE TABLE x (id INTEGER)`)}}
	m := NewMigrator(db, NewFSProvider(fsys, "versions"))
	if err := m.MigrateUp(); err != nil {
		t.Fatal(err)
	}
	if err := m.MigrateTo(0); err == nil {
		t.Error("rolling back a migration without down SQL should fail")
	}
}
