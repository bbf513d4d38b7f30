package openai_api

import (
	"context"

	"pixel_forge/entities"
)

type OpenAIAPI interface {
	GenerateImages(ctx context.Context, apiKey string, req *entities.ImageRequest) ([]string, error)
	CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error)
}
