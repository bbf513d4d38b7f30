package image_records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pixel_forge/entities"
	"pixel_forge/repositories"
)

const recordColumns string = `id, timestamp, prompt, negative_prompt, style, ratio, lighting, mood, resolution,
image_base64, filename, generation_time_ms, group_id, variation_index`

const upsertRecordQuery string = `
INSERT INTO history (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
timestamp = excluded.timestamp, prompt = excluded.prompt, negative_prompt = excluded.negative_prompt,
style = excluded.style, ratio = excluded.ratio, lighting = excluded.lighting, mood = excluded.mood,
resolution = excluded.resolution, image_base64 = excluded.image_base64, filename = excluded.filename,
generation_time_ms = excluded.generation_time_ms, group_id = excluded.group_id,
variation_index = excluded.variation_index;
`

// rowid keeps insertion order for records created in the same millisecond
const getAllRecordsQuery string = `
SELECT ` + recordColumns + ` FROM history ORDER BY timestamp DESC, rowid DESC;
`

const getRecordByIDQuery string = `
SELECT ` + recordColumns + ` FROM history WHERE id = ?;
`

const getRecordsByGroupQuery string = `
SELECT ` + recordColumns + ` FROM history WHERE group_id = ? ORDER BY variation_index ASC;
`

const deleteRecordQuery string = `
DELETE FROM history WHERE id = ?;
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

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, conn execer, record *entities.ImageRecord) error {
	var groupID sql.NullString
	var variationIndex sql.NullInt64

	if record.Variation != nil {
		groupID = sql.NullString{String: record.Variation.GroupID, Valid: true}
		variationIndex = sql.NullInt64{Int64: int64(record.Variation.Index), Valid: true}
	}

	_, err := conn.ExecContext(ctx, upsertRecordQuery,
		record.ID, record.Timestamp, record.Prompt, record.NegativePrompt, record.Style,
		record.Ratio, record.Lighting, record.Mood, record.Resolution, record.ImageBase64,
		record.Filename, record.GenerationTimeMs, groupID, variationIndex)

	return err
}

func (repo *sqliteRepo) Put(ctx context.Context, record *entities.ImageRecord) error {
	if record == nil {
		return errors.New("missing record")
	}

	return repositories.NewStorageError("put record", upsert(ctx, repo.dbConn, record))
}

func (repo *sqliteRepo) PutMany(ctx context.Context, records []*entities.ImageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := repo.dbConn.BeginTx(ctx, nil)
	if err != nil {
		return repositories.NewStorageError("put records", err)
	}

	//nolint
	defer tx.Rollback()

	for _, record := range records {
		err = upsert(ctx, tx, record)
		if err != nil {
			return repositories.NewStorageError("put records", fmt.Errorf("record %s: %w", record.ID, err))
		}
	}

	return repositories.NewStorageError("put records", tx.Commit())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*entities.ImageRecord, error) {
	var record entities.ImageRecord
	var groupID sql.NullString
	var variationIndex sql.NullInt64

	err := row.Scan(&record.ID, &record.Timestamp, &record.Prompt, &record.NegativePrompt,
		&record.Style, &record.Ratio, &record.Lighting, &record.Mood, &record.Resolution,
		&record.ImageBase64, &record.Filename, &record.GenerationTimeMs, &groupID, &variationIndex)
	if err != nil {
		return nil, err
	}

	if groupID.Valid && variationIndex.Valid {
		record.Variation = &entities.Variation{
			GroupID: groupID.String,
			Index:   int(variationIndex.Int64),
		}
	}

	return &record, nil
}

func (repo *sqliteRepo) query(ctx context.Context, op, query string, args ...any) ([]*entities.ImageRecord, error) {
	rows, err := repo.dbConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repositories.NewStorageError(op, err)
	}
	defer rows.Close()

	records := make([]*entities.ImageRecord, 0)

	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, repositories.NewStorageError(op, scanErr)
		}

		records = append(records, record)
	}

	return records, repositories.NewStorageError(op, rows.Err())
}

func (repo *sqliteRepo) GetAll(ctx context.Context) ([]*entities.ImageRecord, error) {
	return repo.query(ctx, "get all records", getAllRecordsQuery)
}

func (repo *sqliteRepo) GetByID(ctx context.Context, id string) (*entities.ImageRecord, error) {
	record, err := scanRecord(repo.dbConn.QueryRowContext(ctx, getRecordByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NewNotFoundError(fmt.Sprintf("image record %s", id))
		}

		return nil, repositories.NewStorageError("get record", err)
	}

	return record, nil
}

func (repo *sqliteRepo) GetByGroupID(ctx context.Context, groupID string) ([]*entities.ImageRecord, error) {
	return repo.query(ctx, "get group", getRecordsByGroupQuery, groupID)
}

func (repo *sqliteRepo) Delete(ctx context.Context, id string) error {
	_, err := repo.dbConn.ExecContext(ctx, deleteRecordQuery, id)

	return repositories.NewStorageError("delete record", err)
}
