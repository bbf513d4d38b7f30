package prompt_templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pixel_forge/clock"
	"pixel_forge/entities"
	"pixel_forge/repositories"
)

// created_at is left out of the update clause: it is written once.
const upsertTemplateQuery string = `
INSERT INTO templates (id, name, prompt, category, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, prompt = excluded.prompt, category = excluded.category;
`

const getAllTemplatesQuery string = `
SELECT id, name, prompt, category, created_at FROM templates ORDER BY created_at DESC, rowid DESC;
`

const getTemplateByIDQuery string = `
SELECT id, name, prompt, category, created_at FROM templates WHERE id = ?;
`

const getTemplatesByCategoryQuery string = `
SELECT id, name, prompt, category, created_at FROM templates WHERE category = ? ORDER BY created_at DESC, rowid DESC;
`

const deleteTemplateQuery string = `
DELETE FROM templates WHERE id = ?;
`

type sqliteRepo struct {
	dbConn *sql.DB
	clock  clock.Clock
}

type Config struct {
	DB    *sql.DB
	Clock clock.Clock
}

func NewRepository(cfg *Config) (Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("missing DB parameter")
	}

	newRepo := &sqliteRepo{
		dbConn: cfg.DB,
		clock:  cfg.Clock,
	}

	if newRepo.clock == nil {
		newRepo.clock = clock.NewClock()
	}

	return newRepo, nil
}

// Put inserts the template or updates name, prompt and category of an existing
// one. The returned template carries the stored creation time.
func (repo *sqliteRepo) Put(ctx context.Context, template *entities.PromptTemplate) (*entities.PromptTemplate, error) {
	if template == nil {
		return nil, errors.New("missing template")
	}

	if template.CreatedAt == 0 {
		template.CreatedAt = clock.Millis(repo.clock)
	}

	_, err := repo.dbConn.ExecContext(ctx, upsertTemplateQuery,
		template.ID, template.Name, template.Prompt, template.Category, template.CreatedAt)
	if err != nil {
		return nil, repositories.NewStorageError("put template", err)
	}

	return repo.GetByID(ctx, template.ID)
}

func scanTemplate(row interface{ Scan(dest ...any) error }) (*entities.PromptTemplate, error) {
	var template entities.PromptTemplate

	err := row.Scan(&template.ID, &template.Name, &template.Prompt, &template.Category, &template.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &template, nil
}

func (repo *sqliteRepo) list(ctx context.Context, op, query string, args ...any) ([]*entities.PromptTemplate, error) {
	rows, err := repo.dbConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repositories.NewStorageError(op, err)
	}
	defer rows.Close()

	templates := make([]*entities.PromptTemplate, 0)

	for rows.Next() {
		template, scanErr := scanTemplate(rows)
		if scanErr != nil {
			return nil, repositories.NewStorageError(op, scanErr)
		}

		templates = append(templates, template)
	}

	return templates, repositories.NewStorageError(op, rows.Err())
}

func (repo *sqliteRepo) GetAll(ctx context.Context) ([]*entities.PromptTemplate, error) {
	return repo.list(ctx, "get templates", getAllTemplatesQuery)
}

func (repo *sqliteRepo) GetByCategory(ctx context.Context, category string) ([]*entities.PromptTemplate, error) {
	return repo.list(ctx, "get templates by category", getTemplatesByCategoryQuery, category)
}

func (repo *sqliteRepo) GetByID(ctx context.Context, id string) (*entities.PromptTemplate, error) {
	template, err := scanTemplate(repo.dbConn.QueryRowContext(ctx, getTemplateByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.NewNotFoundError(fmt.Sprintf("template %s", id))
		}

		return nil, repositories.NewStorageError("get template", err)
	}

	return template, nil
}

func (repo *sqliteRepo) Delete(ctx context.Context, id string) error {
	_, err := repo.dbConn.ExecContext(ctx, deleteTemplateQuery, id)

	return repositories.NewStorageError("delete template", err)
}
