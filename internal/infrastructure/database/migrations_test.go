package database

import (
	"context"
	"errors"
	"slices"
	"testing"
	"testing/fstest"
)

var testSchema = fstest.MapFS{
	"20261001_090000_create_runs.up.sql": {
		Data: []byte("CREATE TABLE runs (id TEXT PRIMARY KEY, beamline TEXT NOT NULL);"),
	},
	"20261001_090000_create_runs.down.sql": {
		Data: []byte("DROP TABLE runs;"),
	},
	"20261002_100000_add_failures.up.sql": {
		Data: []byte("CREATE TABLE failures (run_id TEXT NOT NULL, device TEXT NOT NULL);"),
	},
	"README.md": {Data: []byte("ignored")},
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	if err := db.Migrate(ctx, testSchema); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"runs", "failures", "schema_migrations"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s missing after Migrate()", table)
		}
	}

	// Idempotent.
	if err := db.Migrate(ctx, testSchema); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	st, err := db.Status(ctx, testSchema)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if want := []string{"20261001_090000", "20261002_100000"}; !slices.Equal(st.Applied, want) {
		t.Errorf("Applied = %v, want %v", st.Applied, want)
	}
	if len(st.Pending) != 0 {
		t.Errorf("Pending = %v, want none", st.Pending)
	}
}

func TestMigrate_StopsAtFailure(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	schema := fstest.MapFS{
		"20261001_090000_good.up.sql": {Data: []byte("CREATE TABLE good (id INTEGER);")},
		"20261002_090000_bad.up.sql":  {Data: []byte("CREATE TABLE nope (")},
		"20261003_090000_later.up.sql": {Data: []byte("CREATE TABLE later (id INTEGER);")},
	}
	if err := db.Migrate(ctx, schema); err == nil {
		t.Fatal("Migrate() should fail on broken SQL")
	}
	if !tableExists(t, db, "good") {
		t.Error("migrations before the failure should stay applied")
	}
	if tableExists(t, db, "later") {
		t.Error("migrations after the failure should not run")
	}

	st, err := db.Status(ctx, schema)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if want := []string{"20261002_090000", "20261003_090000"}; !slices.Equal(st.Pending, want) {
		t.Errorf("Pending = %v, want %v", st.Pending, want)
	}
}

func TestRollback(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	// Nothing applied yet.
	if err := db.Rollback(ctx, testSchema); err != nil {
		t.Fatalf("Rollback() on empty database error = %v", err)
	}

	if err := db.Migrate(ctx, testSchema); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// The latest migration has no down script.
	if err := db.Rollback(ctx, testSchema); !errors.Is(err, ErrNoDownMigration) {
		t.Fatalf("Rollback() error = %v, want ErrNoDownMigration", err)
	}

	first := fstest.MapFS{
		"20261001_090000_create_runs.up.sql":   testSchema["20261001_090000_create_runs.up.sql"],
		"20261001_090000_create_runs.down.sql": testSchema["20261001_090000_create_runs.down.sql"],
	}
	db2 := openTemp(t)
	if err := db2.Migrate(ctx, first); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db2.Rollback(ctx, first); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if tableExists(t, db2, "runs") {
		t.Error("runs table should be dropped")
	}
	st, err := db2.Status(ctx, first)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(st.Applied) != 0 || len(st.Pending) != 1 {
		t.Errorf("Status() = %+v, want nothing applied and one pending", st)
	}
}

func TestLoadMigrations(t *testing.T) {
	got, err := LoadMigrations(testSchema)
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadMigrations() = %d migrations, want 2", len(got))
	}
	if got[0].Name != "create_runs" || got[0].Down == "" {
		t.Errorf("first migration = %+v", got[0])
	}
	if got[1].Version != "20261002_100000" || got[1].Down != "" {
		t.Errorf("second migration = %+v", got[1])
	}

	if got, err := LoadMigrations(nil); err != nil || got != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v", got, err)
	}

	orphan := fstest.MapFS{"20261001_090000_x.down.sql": {Data: []byte("DROP TABLE x;")}}
	if _, err := LoadMigrations(orphan); err == nil {
		t.Error("a down script without an up script should fail")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		file        string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOK      bool
	}{
		{"20261001_090000_connect_history.up.sql", "20261001_090000", "connect_history", true, true},
		{"20261001_090000_connect_history.down.sql", "20261001_090000", "connect_history", false, true},
		{"20261001_090000.up.sql", "20261001_090000", "", true, true},
		{"20261001_090000_x.sql", "", "", false, false},
		{"20261001_090000_x.up.txt", "", "", false, false},
		{"2026_0900_x.up.sql", "", "", false, false},
		{"schema.up.sql", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.file)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)",
					version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}
