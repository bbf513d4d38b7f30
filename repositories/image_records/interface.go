package image_records

import (
	"context"
	"pixel_forge/entities"
)

type Repository interface {
	Put(ctx context.Context, record *entities.ImageRecord) error
	PutMany(ctx context.Context, records []*entities.ImageRecord) error
	GetAll(ctx context.Context) ([]*entities.ImageRecord, error)
	GetByID(ctx context.Context, id string) (*entities.ImageRecord, error)
	GetByGroupID(ctx context.Context, groupID string) ([]*entities.ImageRecord, error)
	Delete(ctx context.Context, id string) error
}
