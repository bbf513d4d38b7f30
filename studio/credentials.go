package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pixel_forge/entities"
	"pixel_forge/repositories"
	"pixel_forge/repositories/settings"
)

// Credentials keeps provider API keys in the settings store.
type Credentials struct {
	settings settings.Repository
}

func NewCredentials(repo settings.Repository) (*Credentials, error) {
	if repo == nil {
		return nil, errors.New("missing settings repository")
	}

	return &Credentials{settings: repo}, nil
}

func knownProvider(provider string) bool {
	switch provider {
	case entities.ProviderGemini, entities.ProviderOpenAI, entities.ProviderAnthropic:
		return true
	default:
		return false
	}
}

// Credential returns the stored key of provider, or "" when none is set.
func (c *Credentials) Credential(ctx context.Context, provider string) (string, error) {
	value, err := c.settings.Get(ctx, entities.CredentialKey(provider))
	if errors.Is(err, &repositories.NotFoundError{}) {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return value, nil
}

// SetCredential stores the key of provider. A blank key removes it.
func (c *Credentials) SetCredential(ctx context.Context, provider, apiKey string) error {
	if !knownProvider(provider) {
		return &entities.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", provider)}
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return c.settings.Delete(ctx, entities.CredentialKey(provider))
	}

	return c.settings.Set(ctx, entities.CredentialKey(provider), apiKey)
}

// Configured lists the providers that have a key.
func (c *Credentials) Configured(ctx context.Context) (map[string]bool, error) {
	out := make(map[string]bool, 3)

	for _, provider := range []string{entities.ProviderGemini, entities.ProviderOpenAI, entities.ProviderAnthropic} {
		value, err := c.Credential(ctx, provider)
		if err != nil {
			return nil, err
		}

		out[provider] = value != ""
	}

	return out, nil
}
