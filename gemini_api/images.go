package gemini_api

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"

	"google.golang.org/genai"

	"pixel_forge/entities"
)

// Both messages are built with apiError, never ClassifyAPIMessage: the first
// one mentions safety and would be reported as a ContentSafetyError.
const (
	noImageDataMessage      = "Generation Failed: No image data returned. (Possible safety block)"
	noValidImageDataMessage = "Generation Failed: No valid image data returned."
)

// GenerateImages returns 1..req.Variations base64 encoded images. The predict
// endpoint honours the variation count; generateContent returns what the model
// produced for a single turn. The Gemini API has no negative prompt
// parameter, so the negative prompt is folded into the prompt text.
func (api *apiImpl) GenerateImages(ctx context.Context, apiKey string, req *entities.ImageRequest) ([]string, error) {
	if req == nil {
		return nil, errors.New("missing request")
	}

	if apiKey == "" {
		return nil, &entities.ConfigurationError{Provider: entities.ProviderGemini}
	}

	model := req.Model
	if model == "" {
		model = api.imageModel
	}

	client, err := api.client(ctx, apiKey, "v1beta")
	if err != nil {
		return nil, err
	}

	if api.imageEndpoint == EndpointGenerateContent {
		return api.generateContentImages(ctx, client, apiKey, model, req)
	}

	return api.predictImages(ctx, client, apiKey, model, req)
}

func (api *apiImpl) imageFailure(ctx context.Context, err error, apiKey string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	status, message := sdkFailure(err, apiKey)

	log.Printf("Error with Gemini image request: %s", message)

	if status == 0 {
		return apiError(0, message)
	}

	return entities.ClassifyAPIMessage(entities.ProviderGemini, status, message)
}

func (api *apiImpl) predictImages(
	ctx context.Context, client *genai.Client, apiKey, model string, req *entities.ImageRequest,
) ([]string, error) {
	variations := req.Variations
	if variations < entities.MinVariations {
		variations = entities.MinVariations
	}

	ratio := req.Ratio
	if ratio == "" {
		ratio = entities.DefaultRatio
	}

	resolution := req.Resolution
	if resolution == "" {
		resolution = entities.DefaultResolution
	}

	response, err := client.Models.GenerateImages(ctx, model, req.PromptWithNegative(), &genai.GenerateImagesConfig{
		NumberOfImages:   int32(variations),
		AspectRatio:      ratio,
		ImageSize:        resolution,
		IncludeRAIReason: true,
	})
	if err != nil {
		return nil, api.imageFailure(ctx, err, apiKey)
	}

	if response == nil || len(response.GeneratedImages) == 0 {
		return nil, apiError(0, noImageDataMessage)
	}

	images := make([]string, 0, len(response.GeneratedImages))
	reasons := make([]string, 0)

	for _, generated := range response.GeneratedImages {
		if generated == nil {
			continue
		}

		if generated.Image != nil && len(generated.Image.ImageBytes) > 0 {
			images = append(images, base64.StdEncoding.EncodeToString(generated.Image.ImageBytes))
			continue
		}

		if generated.RAIFilteredReason != "" {
			reasons = append(reasons, generated.RAIFilteredReason)
		}
	}

	if len(images) == 0 {
		if len(reasons) > 0 {
			return nil, &entities.ContentSafetyError{Message: strings.Join(reasons, "; ")}
		}

		return nil, apiError(0, noValidImageDataMessage)
	}

	return images, nil
}

func (api *apiImpl) generateContentImages(
	ctx context.Context, client *genai.Client, apiKey, model string, req *entities.ImageRequest,
) ([]string, error) {
	response, err := client.Models.GenerateContent(ctx, model, genai.Text(req.PromptWithNegative()), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return nil, api.imageFailure(ctx, err, apiKey)
	}

	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, apiError(0, noImageDataMessage)
	}

	images := make([]string, 0)
	for _, part := range response.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}

		if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			continue
		}

		images = append(images, base64.StdEncoding.EncodeToString(part.InlineData.Data))
	}

	if len(images) == 0 {
		return nil, apiError(0, noValidImageDataMessage)
	}

	return images, nil
}
