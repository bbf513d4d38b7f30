package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"pixel_forge/clock"
	"pixel_forge/entities"
)

const (
	StatusDreaming = "Dreaming up image..."
	StatusTitle    = "Generating title..."
	StatusSaving   = "Saving to gallery..."
)

// ErrGenerationInProgress rejects a generation submitted while another one is
// still running.
var ErrGenerationInProgress = errors.New("a generation is already in progress")

func generatingStatus(variations int) string {
	if variations > 1 {
		return fmt.Sprintf("Generating %d images...", variations)
	}

	return "Generating 1 image..."
}

type generatorImpl struct {
	imageAPI      ImageAPI
	imageProvider string
	imageModel    string
	textAPI       TextAPI
	textProvider  string
	credentials   CredentialSource
	records       RecordStore
	clock         clock.Clock
	newID         func() string
	generating    atomic.Bool
}

type Config struct {
	ImageAPI      ImageAPI
	ImageProvider string
	ImageModel    string
	// TextAPI is optional. Without it every record gets a fallback filename.
	TextAPI      TextAPI
	TextProvider string
	Credentials  CredentialSource
	Records      RecordStore
	Clock        clock.Clock
	NewID        func() string
}

func New(cfg Config) (Generator, error) {
	if cfg.ImageAPI == nil {
		return nil, errors.New("missing image API")
	}

	if cfg.ImageProvider == "" {
		return nil, errors.New("missing image provider")
	}

	if cfg.Credentials == nil {
		return nil, errors.New("missing credential source")
	}

	if cfg.Records == nil {
		return nil, errors.New("missing record store")
	}

	if cfg.TextAPI != nil && cfg.TextProvider == "" {
		return nil, errors.New("missing text provider")
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.NewClock()
	}

	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &generatorImpl{
		imageAPI:      cfg.ImageAPI,
		imageProvider: cfg.ImageProvider,
		imageModel:    cfg.ImageModel,
		textAPI:       cfg.TextAPI,
		textProvider:  cfg.TextProvider,
		credentials:   cfg.Credentials,
		records:       cfg.Records,
		clock:         cfg.Clock,
		newID:         cfg.NewID,
	}, nil
}

func (g *generatorImpl) IsGenerating() bool {
	return g.generating.Load()
}

// Generate runs one generation end to end and returns the persisted records.
// Nothing is persisted or added to history unless every required step succeeds.
func (g *generatorImpl) Generate(ctx context.Context, opts entities.GenerationOptions, listener Listener) ([]*entities.ImageRecord, error) {
	if listener == nil {
		listener = nopListener{}
	}

	apiKey, err := g.credential(ctx, g.imageProvider)
	if err != nil {
		return nil, err
	}

	if !opts.HasPrompt() {
		return nil, &entities.ValidationError{Field: "prompt", Message: "prompt is empty"}
	}

	if !g.generating.CompareAndSwap(false, true) {
		return nil, ErrGenerationInProgress
	}
	defer g.generating.Store(false)

	defer listener.SetProcessingStatus("")

	opts = opts.Normalized()
	start := g.clock.Now()

	listener.SetProcessingStatus(StatusDreaming)
	listener.SetProcessingStatus(generatingStatus(opts.Variations))

	images, err := g.imageAPI.GenerateImages(ctx, apiKey, &entities.ImageRequest{
		Prompt:         opts.Prompt,
		Modifiers:      opts.Modifiers(),
		Ratio:          opts.Ratio,
		NegativePrompt: opts.NegativePrompt,
		Resolution:     opts.Resolution,
		Variations:     opts.Variations,
		Model:          g.imageModel,
	})
	if err != nil {
		log.Printf("Error generating images: %v", err)

		return nil, err
	}

	if len(images) == 0 {
		return nil, &entities.APIError{Provider: g.imageProvider, Message: "Generation Failed: No image data returned."}
	}

	listener.SetProcessingStatus(StatusTitle)

	baseFilename := g.title(ctx, opts.Prompt)

	listener.SetProcessingStatus(StatusSaving)

	records := g.buildRecords(opts, images, baseFilename, g.clock.Now().Sub(start).Milliseconds())

	err = g.records.PutMany(ctx, records)
	if err != nil {
		log.Printf("Error saving generated images: %v", err)

		return nil, err
	}

	listener.AddToHistory(records...)
	listener.SetCurrent(records[0])

	return records, nil
}

func (g *generatorImpl) credential(ctx context.Context, provider string) (string, error) {
	apiKey, err := g.credentials.Credential(ctx, provider)
	if err != nil {
		return "", err
	}

	if apiKey == "" {
		return "", &entities.ConfigurationError{Provider: provider}
	}

	return apiKey, nil
}

// title never fails: on any error the timestamp fallback is returned.
func (g *generatorImpl) title(ctx context.Context, prompt string) string {
	fallback := FallbackFilename(clock.Millis(g.clock))

	if g.textAPI == nil {
		return fallback
	}

	apiKey, err := g.credential(ctx, g.textProvider)
	if err != nil {
		log.Printf("Filename generation skipped, using default: %v", err)

		return fallback
	}

	title, err := GenerateTitle(ctx, g.textAPI, apiKey, prompt)
	if err != nil {
		log.Printf("Filename generation failed, using default: %v", err)

		return fallback
	}

	return title
}

func (g *generatorImpl) buildRecords(
	opts entities.GenerationOptions, images []string, baseFilename string, elapsedMs int64,
) []*entities.ImageRecord {
	timestamp := clock.Millis(g.clock)

	groupID := ""
	if len(images) > 1 {
		groupID = g.newID()
	}

	records := make([]*entities.ImageRecord, 0, len(images))

	for i, image := range images {
		record := &entities.ImageRecord{
			ID:               g.newID(),
			Timestamp:        timestamp,
			Prompt:           opts.Prompt,
			NegativePrompt:   opts.NegativePrompt,
			Style:            opts.Style,
			Ratio:            opts.Ratio,
			Lighting:         opts.Lighting,
			Mood:             opts.Mood,
			Resolution:       opts.Resolution,
			ImageBase64:      image,
			Filename:         baseFilename,
			GenerationTimeMs: elapsedMs,
		}

		if groupID != "" {
			record.Filename = fmt.Sprintf("%s-%d", baseFilename, i+1)
			record.Variation = &entities.Variation{GroupID: groupID, Index: i}
		}

		records = append(records, record)
	}

	return records
}

type nopListener struct{}

func (nopListener) SetProcessingStatus(string) {}

func (nopListener) AddToHistory(...*entities.ImageRecord) {}

func (nopListener) SetCurrent(*entities.ImageRecord) {}
