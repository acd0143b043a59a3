package migrate

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAvailable_Ordered(t *testing.T) {
	all, err := Available()
	if err != nil {
		t.Fatalf("Available() err = %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("Available() = %d migrations; want at least 2", len(all))
	}
	if all[0].Version != "0001" || all[0].Name != "schema" {
		t.Errorf("first migration = %s_%s; want 0001_schema", all[0].Version, all[0].Name)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Version >= all[i].Version {
			t.Errorf("migrations out of order: %s before %s", all[i-1].Version, all[i].Version)
		}
	}
}

func TestRun_AppliesOnce(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	ran, err := Run(ctx, db, quietLogger())
	if err != nil {
		t.Fatalf("Run() err = %v", err)
	}
	all, _ := Available()
	if len(ran) != len(all) {
		t.Fatalf("first Run applied %d; want %d", len(ran), len(all))
	}

	ran, err = Run(ctx, db, quietLogger())
	if err != nil {
		t.Fatalf("second Run() err = %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("second Run applied %d; want 0", len(ran))
	}

	applied, err := Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied() err = %v", err)
	}
	if len(applied) != len(all) || applied[0].AppliedAt == "" {
		t.Errorf("Applied() = %+v", applied)
	}

	for _, table := range []string{"devices", "readings", "sessions"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
	if _, err := db.Exec(`SELECT style, batch_size_l, srm, ibu FROM sessions`); err != nil {
		t.Errorf("session recipe columns missing: %v", err)
	}
}
