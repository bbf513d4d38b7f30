package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestNewMigratesToRequiredVersion(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Filename: filepath.Join(t.TempDir(), "fresh.sqlite")}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { Close(cfg) })

	version, err := SchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}

	if version != RequiredVersion() {
		t.Fatalf("version = %d, want %d", version, RequiredVersion())
	}

	for _, table := range []string{"history", "templates", "settings"} {
		var name string

		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestNewReturnsSharedHandle(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Filename: filepath.Join(t.TempDir(), "shared.sqlite")}

	first, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { Close(cfg) })

	second, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("second New: %v", err)
	}

	if first != second {
		t.Fatal("expected the same handle for the same file")
	}
}

func TestUpgradeKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "old.sqlite")

	raw, err := sql.Open("sqlite", filename)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// an install from before templates existed
	for num := 1; num <= 2; num++ {
		if err := execMigration(ctx, raw, num); err != nil {
			t.Fatalf("migration %d: %v", num, err)
		}
	}

	_, err = raw.ExecContext(ctx, `INSERT INTO history (id, timestamp, prompt, negative_prompt, style, ratio, lighting, mood,
resolution, image_base64, filename, generation_time_ms) VALUES ('keep', 1, 'p', '', '', '1:1', '', '', '1K', 'AA==', 'f', 0)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	raw.Close()

	cfg := Config{Filename: filename}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { Close(cfg) })

	var prompt string
	var groupID sql.NullString

	err = db.QueryRowContext(ctx, `SELECT prompt, group_id FROM history WHERE id = 'keep'`).Scan(&prompt, &groupID)
	if err != nil {
		t.Fatalf("row lost after upgrade: %v", err)
	}

	if prompt != "p" || groupID.Valid {
		t.Fatalf("unexpected row after upgrade: prompt=%q group=%v", prompt, groupID)
	}

	version, err := SchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}

	if version != RequiredVersion() {
		t.Fatalf("version = %d, want %d", version, RequiredVersion())
	}
}
