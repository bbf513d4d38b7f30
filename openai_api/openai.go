package openai_api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"pixel_forge/entities"
)

const (
	DefaultImageModel = openai.CreateImageModelDallE3
	DefaultTextModel  = openai.GPT4oMini
)

type apiImpl struct {
	baseURL    string
	imageModel string
	textModel  string
	httpClient *http.Client
}

type Config struct {
	// BaseURL overrides the public API endpoint, e.g. for a compatible proxy.
	BaseURL    string
	ImageModel string
	TextModel  string
	HTTPClient *http.Client
}

func New(cfg Config) (OpenAIAPI, error) {
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}

	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}

	return &apiImpl{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		imageModel: cfg.ImageModel,
		textModel:  cfg.TextModel,
		httpClient: cfg.HTTPClient,
	}, nil
}

// client is built per call because the key lives in the settings store and
// may change between calls.
func (api *apiImpl) client(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)

	if api.baseURL != "" {
		config.BaseURL = api.baseURL
	}

	if api.httpClient != nil {
		config.HTTPClient = api.httpClient
	}

	return openai.NewClientWithConfig(config)
}

// SizeForRatio maps an aspect ratio onto the closest size DALL-E 3 accepts.
func SizeForRatio(ratio string) string {
	switch ratio {
	case "16:9", "4:3", "3:2":
		return openai.CreateImageSize1792x1024
	case "9:16", "3:4", "2:3":
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}

// GenerateImages asks for req.Variations images. DALL-E 3 only produces one
// image per request, so its variations are requested one after another.
func (api *apiImpl) GenerateImages(ctx context.Context, apiKey string, req *entities.ImageRequest) ([]string, error) {
	if req == nil {
		return nil, errors.New("missing request")
	}

	if apiKey == "" {
		return nil, &entities.ConfigurationError{Provider: entities.ProviderOpenAI}
	}

	model := req.Model
	if model == "" {
		model = api.imageModel
	}

	variations := req.Variations
	if variations < entities.MinVariations {
		variations = entities.MinVariations
	}

	imageReq := openai.ImageRequest{
		Prompt:         req.PromptWithNegative(),
		Model:          model,
		N:              variations,
		Size:           SizeForRatio(req.Ratio),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	calls := 1
	if model == openai.CreateImageModelDallE3 {
		imageReq.N = 1
		calls = variations
	}

	client := api.client(apiKey)
	images := make([]string, 0, variations)

	for i := 0; i < calls; i++ {
		resp, err := client.CreateImage(ctx, imageReq)
		if err != nil {
			// keep what earlier calls produced; the count is not guaranteed
			if len(images) > 0 && ctx.Err() == nil {
				log.Printf("Error creating variation %d, keeping %d images: %v", i+1, len(images), err)
				break
			}

			return nil, classify(err)
		}

		for _, data := range resp.Data {
			if data.B64JSON != "" {
				images = append(images, data.B64JSON)
			}
		}
	}

	if len(images) == 0 {
		return nil, &entities.APIError{Provider: entities.ProviderOpenAI, Message: "Generation Failed: No image data returned."}
	}

	return images, nil
}

func (api *apiImpl) CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error) {
	if apiKey == "" {
		return "", &entities.ConfigurationError{Provider: entities.ProviderOpenAI}
	}

	resp, err := api.client(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: api.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &entities.APIError{Provider: entities.ProviderOpenAI, Message: "no completion returned"}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &entities.APIError{Provider: entities.ProviderOpenAI, Message: "no completion returned"}
	}

	return text, nil
}

// classify turns go-openai errors into domain errors. A rejected prompt
// carries the content_policy_violation code.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "content_policy_violation" {
			return &entities.ContentSafetyError{Message: apiErr.Message}
		}

		return entities.ClassifyAPIMessage(entities.ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &entities.APIError{Provider: entities.ProviderOpenAI, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return &entities.APIError{Provider: entities.ProviderOpenAI, Message: err.Error()}
}
