package gemini_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"pixel_forge/entities"
)

const DefaultImageModel = "imagen-4.0-generate-001"

// Endpoint selects the request shape used for image generation.
type Endpoint string

const (
	EndpointPredict         Endpoint = "predict"
	EndpointGenerateContent Endpoint = "generateContent"
)

type apiImpl struct {
	host          string
	imageModel    string
	imageEndpoint Endpoint
	candidates    []TextCandidate
	httpClient    *http.Client
}

type Config struct {
	// Host overrides the SDK's base URL.
	Host          string
	ImageModel    string
	ImageEndpoint Endpoint
	// TextCandidates overrides DefaultTextCandidates.
	TextCandidates []TextCandidate
	HTTPClient     *http.Client
}

func New(cfg Config) (GeminiAPI, error) {
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}

	switch cfg.ImageEndpoint {
	case "":
		cfg.ImageEndpoint = EndpointPredict
	case EndpointPredict, EndpointGenerateContent:
	default:
		return nil, fmt.Errorf("unknown image endpoint %q", cfg.ImageEndpoint)
	}

	if cfg.TextCandidates == nil {
		cfg.TextCandidates = DefaultTextCandidates
	}

	if len(cfg.TextCandidates) == 0 {
		return nil, errors.New("missing text candidates")
	}

	return &apiImpl{
		host:          cfg.Host,
		imageModel:    cfg.ImageModel,
		imageEndpoint: cfg.ImageEndpoint,
		candidates:    cfg.TextCandidates,
		httpClient:    cfg.HTTPClient,
	}, nil
}

// client returns an SDK client bound to one API version. The SDK sends the
// key in the x-goog-api-key header.
func (api *apiImpl) client(ctx context.Context, apiKey, version string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: api.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    api.host,
			APIVersion: version,
		},
	})
	if err != nil {
		return nil, apiError(0, redact(err.Error(), apiKey))
	}

	return client, nil
}

// sdkFailure returns the status code and message of a failed SDK call with
// the key removed. Transport failures have status 0.
func sdkFailure(err error, apiKey string) (int, string) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Status
		}

		if message == "" {
			message = http.StatusText(apiErr.Code)
		}

		return apiErr.Code, redact(message, apiKey)
	}

	return 0, redact(err.Error(), apiKey)
}

func redact(message, apiKey string) string {
	if apiKey == "" {
		return message
	}

	return strings.ReplaceAll(message, apiKey, "[redacted]")
}

func apiError(statusCode int, message string) error {
	return &entities.APIError{Provider: entities.ProviderGemini, StatusCode: statusCode, Message: message}
}
