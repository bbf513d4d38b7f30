package randomizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"

	"pixel_forge/entities"
)

type Mode string

const (
	ModePromptOnly Mode = "prompt-only"
	ModeStyleOnly  Mode = "style-only"
	ModeEverything Mode = "everything"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModePromptOnly, ModeStyleOnly, ModeEverything:
		return Mode(value), nil
	case "":
		return ModeEverything, nil
	default:
		return "", &entities.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown randomize mode %q", value)}
	}
}

const CategoryAny = "ANY"

var Categories = []entities.Option{
	{Label: "Surprise Me (Any)", Value: CategoryAny},
	{Label: "Character/Creature", Value: "CHARACTER"},
	{Label: "Location/Setting", Value: "LOCATION"},
	{Label: "Object/Artifact", Value: "OBJECT"},
	{Label: "Weapon/Armor", Value: "WEAPON"},
	{Label: "Vehicle/Mech", Value: "VEHICLE"},
	{Label: "Food/Drink", Value: "FOOD"},
}

// FallbackPrompt replaces the scene description when the text API fails.
const FallbackPrompt = "A mysterious object floating in space (API Error Fallback)."

type TextAPI interface {
	CompleteText(ctx context.Context, apiKey, systemInstruction, userPrompt string) (string, error)
}

type CredentialSource interface {
	Credential(ctx context.Context, provider string) (string, error)
}

type Randomizer interface {
	// Randomize returns current with the fields chosen by mode replaced.
	Randomize(ctx context.Context, mode Mode, category string, current entities.GenerationOptions) (entities.GenerationOptions, error)
}

type randomizerImpl struct {
	textAPI      TextAPI
	textProvider string
	credentials  CredentialSource

	mu   sync.Mutex
	rand *rand.Rand
}

type Config struct {
	TextAPI      TextAPI
	TextProvider string
	Credentials  CredentialSource
	// Rand is seeded randomly when nil.
	Rand *rand.Rand
}

func New(cfg Config) (Randomizer, error) {
	if cfg.TextAPI != nil && cfg.TextProvider == "" {
		return nil, errors.New("missing text provider")
	}

	if cfg.TextAPI != nil && cfg.Credentials == nil {
		return nil, errors.New("missing credential source")
	}

	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &randomizerImpl{
		textAPI:      cfg.TextAPI,
		textProvider: cfg.TextProvider,
		credentials:  cfg.Credentials,
		rand:         cfg.Rand,
	}, nil
}

func (r *randomizerImpl) Randomize(
	ctx context.Context, mode Mode, category string, current entities.GenerationOptions,
) (entities.GenerationOptions, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return current, err
	}

	if mode == "" {
		mode = ModeEverything
	}

	if category == "" {
		category = CategoryAny
	}

	if !knownCategory(category) {
		return current, &entities.ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", category)}
	}

	var apiKey string
	if mode != ModeStyleOnly {
		key, err := r.credential(ctx)
		if err != nil {
			return current, err
		}

		apiKey = key
	}

	out := current

	if mode != ModePromptOnly {
		out.Style = r.pick(entities.Styles)
		out.Ratio = r.pick(entities.Ratios)
		out.Lighting = r.pick(entities.Lighting)
		out.Mood = r.pick(entities.Moods)
	}

	if mode != ModeStyleOnly {
		out.Prompt = r.randomPrompt(ctx, apiKey, category)
	}

	return out, nil
}

func knownCategory(category string) bool {
	for _, option := range Categories {
		if option.Value == category {
			return true
		}
	}

	return false
}

func (r *randomizerImpl) credential(ctx context.Context) (string, error) {
	if r.textAPI == nil {
		return "", &entities.ConfigurationError{Provider: "text"}
	}

	apiKey, err := r.credentials.Credential(ctx, r.textProvider)
	if err != nil {
		return "", err
	}

	if apiKey == "" {
		return "", &entities.ConfigurationError{Provider: r.textProvider}
	}

	return apiKey, nil
}

func (r *randomizerImpl) pick(options []entities.Option) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return options[r.rand.IntN(len(options))].Value
}

func (r *randomizerImpl) randomPrompt(ctx context.Context, apiKey, category string) string {
	prompt, err := r.textAPI.CompleteText(ctx, apiKey, SystemInstruction(category), "Hallucinate a new visual scene now.")
	if err != nil || prompt == "" {
		log.Printf("Error generating random prompt, using fallback: %v", err)

		return FallbackPrompt
	}

	return prompt
}
