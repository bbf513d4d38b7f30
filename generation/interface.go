package generation

import (
	"context"

	"pixel_forge/entities"
)

type ImageAPI interface {
	GenerateImages(ctx context.Context, apiKey string, req *entities.ImageRequest) ([]string, error)
}

type TextAPI interface {
	CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error)
}

// CredentialSource returns the stored API key of a provider, or "" when none is set.
type CredentialSource interface {
	Credential(ctx context.Context, provider string) (string, error)
}

type RecordStore interface {
	PutMany(ctx context.Context, records []*entities.ImageRecord) error
}

// Listener receives the progress and the result of a generation.
type Listener interface {
	SetProcessingStatus(status string)
	AddToHistory(records ...*entities.ImageRecord)
	SetCurrent(record *entities.ImageRecord)
}

type Generator interface {
	Generate(ctx context.Context, opts entities.GenerationOptions, listener Listener) ([]*entities.ImageRecord, error)
	IsGenerating() bool
}
