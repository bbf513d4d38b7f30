package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pixel_forge/repositories"
)

const upsertSetting string = `
INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?);
`

const getSettingByKey string = `
SELECT value FROM settings WHERE key = ?;
`

const deleteSettingByKey string = `
DELETE FROM settings WHERE key = ?;
`

type sqliteRepo struct {
	dbConn *sql.DB
}

type Config struct {
	DB *sql.DB
}

func NewRepository(cfg *Config) (Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("missing DB parameter")
	}

	return &sqliteRepo{
		dbConn: cfg.DB,
	}, nil
}

func (repo *sqliteRepo) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("missing setting key")
	}

	_, err := repo.dbConn.ExecContext(ctx, upsertSetting, key, value)

	return repositories.NewStorageError("set setting", err)
}

func (repo *sqliteRepo) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := repo.dbConn.QueryRowContext(ctx, getSettingByKey, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repositories.NewNotFoundError(fmt.Sprintf("setting %s", key))
		}

		return "", repositories.NewStorageError("get setting", err)
	}

	return value, nil
}

func (repo *sqliteRepo) Delete(ctx context.Context, key string) error {
	_, err := repo.dbConn.ExecContext(ctx, deleteSettingByKey, key)

	return repositories.NewStorageError("delete setting", err)
}
