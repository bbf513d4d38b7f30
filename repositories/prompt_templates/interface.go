package prompt_templates

import (
	"context"
	"pixel_forge/entities"
)

type Repository interface {
	Put(ctx context.Context, template *entities.PromptTemplate) (*entities.PromptTemplate, error)
	GetAll(ctx context.Context) ([]*entities.PromptTemplate, error)
	GetByID(ctx context.Context, id string) (*entities.PromptTemplate, error)
	GetByCategory(ctx context.Context, category string) ([]*entities.PromptTemplate, error)
	Delete(ctx context.Context, id string) error
}
