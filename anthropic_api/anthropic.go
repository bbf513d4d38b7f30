package anthropic_api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"pixel_forge/entities"
)

const (
	DefaultModel = "claude-haiku-4-5"

	defaultMaxTokens = 1024
)

// AnthropicAPI only produces text: titles and random prompts.
type AnthropicAPI interface {
	CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error)
}

type apiImpl struct {
	model      string
	maxTokens  int64
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

type Config struct {
	Model      string
	MaxTokens  int64
	BaseURL    string
	HTTPClient *http.Client
	// MaxRetries is passed to the SDK; negative keeps the SDK default.
	MaxRetries int
}

func New(cfg Config) (AnthropicAPI, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	return &apiImpl{
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (api *apiImpl) client(apiKey string) anthropic.Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}

	if api.baseURL != "" {
		opts = append(opts, option.WithBaseURL(api.baseURL))
	}

	if api.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(api.httpClient))
	}

	if api.maxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(api.maxRetries))
	}

	return anthropic.NewClient(opts...)
}

func (api *apiImpl) CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error) {
	if apiKey == "" {
		return "", &entities.ConfigurationError{Provider: entities.ProviderAnthropic}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(api.model),
		MaxTokens: api.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	if systemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemInstruction},
		}
	}

	client := api.client(apiKey)

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", &entities.APIError{Provider: entities.ProviderAnthropic, Message: "no text returned"}
	}

	return text, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return entities.ClassifyAPIMessage(entities.ProviderAnthropic, apiErr.StatusCode, apiErr.Error())
	}

	return &entities.APIError{Provider: entities.ProviderAnthropic, Message: err.Error()}
}
