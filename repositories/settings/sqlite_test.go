package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pixel_forge/databases/sqlite"
	"pixel_forge/repositories"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()

	cfg := sqlite.Config{Filename: filepath.Join(t.TempDir(), "settings.sqlite")}

	db, err := sqlite.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { sqlite.Close(cfg) })

	repo, err := NewRepository(&Config{DB: db})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	return repo
}

func TestSetGetDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "gemini_api_key"); !errors.Is(err, &repositories.NotFoundError{}) {
		t.Fatalf("expected NotFoundError for unset key, got %v", err)
	}

	if err := repo.Set(ctx, "gemini_api_key", "first"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := repo.Set(ctx, "gemini_api_key", "second"); err != nil {
		t.Fatalf("Set again: %v", err)
	}

	value, err := repo.Get(ctx, "gemini_api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if value != "second" {
		t.Fatalf("value = %q, want second", value)
	}

	if err := repo.Delete(ctx, "gemini_api_key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.Get(ctx, "gemini_api_key"); !errors.Is(err, &repositories.NotFoundError{}) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Set(context.Background(), "", "value"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
