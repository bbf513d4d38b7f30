package sqlite

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const dbFile string = "pixel_forge.sqlite"

const getCurrentMigration string = `PRAGMA user_version;`
const setCurrentMigration string = `PRAGMA user_version = ?;`

const createHistoryTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS history (
id TEXT NOT NULL PRIMARY KEY,
timestamp INTEGER NOT NULL,
prompt TEXT NOT NULL,
negative_prompt TEXT NOT NULL,
style TEXT NOT NULL,
ratio TEXT NOT NULL,
lighting TEXT NOT NULL,
mood TEXT NOT NULL,
resolution TEXT NOT NULL,
image_base64 TEXT NOT NULL,
filename TEXT NOT NULL,
generation_time_ms INTEGER NOT NULL
);`

const createHistoryTimestampIndexIfNotExistsQuery string = `
CREATE INDEX IF NOT EXISTS history_timestamp_index
ON history(timestamp);
`

const createTemplatesTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS templates (
id TEXT NOT NULL PRIMARY KEY,
name TEXT NOT NULL,
prompt TEXT NOT NULL,
category TEXT NOT NULL,
created_at INTEGER NOT NULL
);`

const createTemplatesCategoryIndexIfNotExistsQuery string = `
CREATE INDEX IF NOT EXISTS templates_category_index
ON templates(category);
`

const createTemplatesCreatedAtIndexIfNotExistsQuery string = `
CREATE INDEX IF NOT EXISTS templates_created_at_index
ON templates(created_at);
`

const addHistoryVariationColumnsQuery string = `
ALTER TABLE history ADD COLUMN group_id TEXT;
ALTER TABLE history ADD COLUMN variation_index INTEGER;
CREATE INDEX IF NOT EXISTS history_group_index ON history(group_id);
`

const createSettingsTableIfNotExistsQuery string = `
CREATE TABLE IF NOT EXISTS settings (
key TEXT NOT NULL PRIMARY KEY,
value TEXT NOT NULL
);`

type migration struct {
	migrationName  string
	migrationQuery string
}

// Migrations only ever add tables, columns and indexes. Never edit or remove an
// entry: the position in this list is the schema version.
var migrations = []migration{
	{migrationName: "create history table", migrationQuery: createHistoryTableIfNotExistsQuery},
	{migrationName: "add history timestamp index", migrationQuery: createHistoryTimestampIndexIfNotExistsQuery},
	{migrationName: "create templates table", migrationQuery: createTemplatesTableIfNotExistsQuery},
	{migrationName: "add templates category index", migrationQuery: createTemplatesCategoryIndexIfNotExistsQuery},
	{migrationName: "add templates created_at index", migrationQuery: createTemplatesCreatedAtIndexIfNotExistsQuery},
	{migrationName: "add history variation columns", migrationQuery: addHistoryVariationColumnsQuery},
	{migrationName: "create settings table", migrationQuery: createSettingsTableIfNotExistsQuery},
}

type Config struct {
	// Filename of the database. Empty means pixel_forge.sqlite in the working directory.
	Filename string
}

var (
	openMu sync.Mutex
	openDB = map[string]*sql.DB{}
)

// New opens (creating and upgrading when needed) the database file. Calling it
// again for the same file returns the handle that is already open.
func New(ctx context.Context, cfg Config) (*sql.DB, error) {
	filename, err := resolveFilename(cfg.Filename)
	if err != nil {
		return nil, err
	}

	openMu.Lock()
	defer openMu.Unlock()

	if db, ok := openDB[filename]; ok {
		return db, nil
	}

	err = touchDBFile(filename)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}

	// one connection: every caller shares it and SQLite serialises the writes
	db.SetMaxOpenConns(1)

	err = migrate(ctx, db)
	if err != nil {
		db.Close()

		return nil, err
	}

	openDB[filename] = db

	return db, nil
}

// Close closes the shared handle of a file opened with New.
func Close(cfg Config) error {
	filename, err := resolveFilename(cfg.Filename)
	if err != nil {
		return err
	}

	openMu.Lock()
	defer openMu.Unlock()

	db, ok := openDB[filename]
	if !ok {
		return nil
	}

	delete(openDB, filename)

	return db.Close()
}

// RequiredVersion is the schema version this build migrates to.
func RequiredVersion() int {
	return len(migrations)
}

func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int

	err := db.QueryRowContext(ctx, getCurrentMigration).Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	currentMigration, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	requiredMigration := RequiredVersion()

	log.Printf("Current DB version: %v, required DB version: %v\n", currentMigration, requiredMigration)

	for migrationNum := currentMigration + 1; migrationNum <= requiredMigration; migrationNum++ {
		err = execMigration(ctx, db, migrationNum)
		if err != nil {
			log.Printf("Error running migration %v '%v'\n", migrationNum, migrations[migrationNum-1].migrationName)

			return err
		}
	}

	return nil
}

func execMigration(ctx context.Context, db *sql.DB, migrationNum int) error {
	log.Printf("Running migration %v '%v'\n", migrationNum, migrations[migrationNum-1].migrationName)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	//nolint
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, migrations[migrationNum-1].migrationQuery)
	if err != nil {
		return err
	}

	setQuery := strings.Replace(setCurrentMigration, "?", strconv.Itoa(migrationNum), 1)

	_, err = tx.ExecContext(ctx, setQuery)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func resolveFilename(filename string) (string, error) {
	if filename == "" {
		return DBFilename()
	}

	return filepath.Abs(filename)
}

func DBFilename() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, dbFile), nil
}

func touchDBFile(filename string) error {
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		file, createErr := os.Create(filename)
		if createErr != nil {
			return createErr
		}

		closeErr := file.Close()
		if closeErr != nil {
			return closeErr
		}
	}

	return nil
}
