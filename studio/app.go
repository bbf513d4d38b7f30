package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixel_forge/clock"
	"pixel_forge/composite_renderer"
	"pixel_forge/entities"
	"pixel_forge/export"
	"pixel_forge/generation"
	"pixel_forge/history"
	"pixel_forge/png_metadata"
	"pixel_forge/randomizer"
	"pixel_forge/repositories"
	"pixel_forge/repositories/image_records"
	"pixel_forge/repositories/prompt_templates"
	"pixel_forge/selection"
)

// ErrUploadsDisabled is returned by uploads when no object storage is configured.
var ErrUploadsDisabled = errors.New("object storage is not configured")

// App is the application state shared by the front ends.
type App struct {
	records     image_records.Repository
	templates   prompt_templates.Repository
	credentials *Credentials
	generator   generation.Generator
	randomizer  randomizer.Randomizer
	renderer    composite_renderer.Renderer
	uploader    export.Uploader
	clock       clock.Clock
	newID       func() string

	history   *history.Manager
	selection *selection.Coordinator

	mu        sync.RWMutex
	current   *entities.ImageRecord
	status    string
	lastError string
}

type Config struct {
	Records     image_records.Repository
	Templates   prompt_templates.Repository
	Credentials *Credentials
	Generator   generation.Generator
	// Randomizer defaults to one without a text API, which only supports
	// style-only mode.
	Randomizer randomizer.Randomizer
	Renderer   composite_renderer.Renderer
	// Uploader is optional.
	Uploader       export.Uploader
	Clock          clock.Clock
	NewID          func() string
	SearchDebounce time.Duration
}

func New(cfg Config) (*App, error) {
	if cfg.Records == nil {
		return nil, errors.New("missing image record repository")
	}

	if cfg.Templates == nil {
		return nil, errors.New("missing prompt template repository")
	}

	if cfg.Credentials == nil {
		return nil, errors.New("missing credentials")
	}

	if cfg.Generator == nil {
		return nil, errors.New("missing generator")
	}

	if cfg.Randomizer == nil {
		random, err := randomizer.New(randomizer.Config{})
		if err != nil {
			return nil, err
		}

		cfg.Randomizer = random
	}

	if cfg.Renderer == nil {
		renderer, err := composite_renderer.New(composite_renderer.Config{})
		if err != nil {
			return nil, err
		}

		cfg.Renderer = renderer
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.NewClock()
	}

	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	if cfg.SearchDebounce == 0 {
		cfg.SearchDebounce = history.DefaultSearchDebounce
	}

	manager, err := history.New(history.Config{Store: cfg.Records, SearchDebounce: cfg.SearchDebounce})
	if err != nil {
		return nil, err
	}

	coordinator, err := selection.New(manager)
	if err != nil {
		return nil, err
	}

	return &App{
		records:     cfg.Records,
		templates:   cfg.Templates,
		credentials: cfg.Credentials,
		generator:   cfg.Generator,
		randomizer:  cfg.Randomizer,
		renderer:    cfg.Renderer,
		uploader:    cfg.Uploader,
		clock:       cfg.Clock,
		newID:       cfg.NewID,
		history:     manager,
		selection:   coordinator,
	}, nil
}

func (a *App) Close() {
	a.history.Close()
}

func (a *App) History() *history.Manager {
	return a.history
}

func (a *App) Selection() *selection.Coordinator {
	return a.selection
}

// Refresh reloads the history from the store.
func (a *App) Refresh(ctx context.Context) error {
	err := a.history.Refresh(ctx)
	if err != nil {
		log.Printf("Error loading history: %v", err)
		a.setError(err)
	}

	return err
}

// SetProcessingStatus, AddToHistory and SetCurrent receive generation progress.

func (a *App) SetProcessingStatus(status string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.status = status
}

func (a *App) AddToHistory(records ...*entities.ImageRecord) {
	a.history.Add(records...)
}

func (a *App) SetCurrent(record *entities.ImageRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = record.Clone()
}

func (a *App) ProcessingStatus() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.status
}

func (a *App) IsGenerating() bool {
	return a.generator.IsGenerating()
}

// Current is the displayed image, nil when there is none.
func (a *App) Current() *entities.ImageRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.current.Clone()
}

// LastError is the message of the last failed user action.
func (a *App) LastError() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.lastError
}

func (a *App) ClearError() {
	a.setError(nil)
}

func (a *App) setError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err == nil {
		a.lastError = ""
		return
	}

	a.lastError = err.Error()
}

func (a *App) Generate(ctx context.Context, opts entities.GenerationOptions) ([]*entities.ImageRecord, error) {
	a.ClearError()

	records, err := a.generator.Generate(ctx, opts, a)
	if err != nil {
		var configErr *entities.ConfigurationError
		if !errors.As(err, &configErr) {
			a.setError(err)
		}

		return nil, err
	}

	return records, nil
}

// Regenerate runs the options of a stored record again, with as many
// variations as its group had.
func (a *App) Regenerate(ctx context.Context, id string) ([]*entities.ImageRecord, error) {
	record, err := a.Record(ctx, id)
	if err != nil {
		return nil, err
	}

	opts := entities.OptionsFromRecord(*record)

	if groupID := record.GroupID(); groupID != "" {
		opts.Variations = len(a.history.Variations(groupID))
	}

	return a.Generate(ctx, opts)
}

// Record looks up id in the history, then in the store.
func (a *App) Record(ctx context.Context, id string) (*entities.ImageRecord, error) {
	if record, ok := a.history.Record(id); ok {
		return record, nil
	}

	return a.records.GetByID(ctx, id)
}

// Show makes the record with id the current image.
func (a *App) Show(ctx context.Context, id string) (*entities.ImageRecord, error) {
	record, err := a.Record(ctx, id)
	if err != nil {
		return nil, err
	}

	a.SetCurrent(record)

	return record, nil
}

// Variations returns the members of a group ordered by variation index.
func (a *App) Variations(ctx context.Context, groupID string) ([]*entities.ImageRecord, error) {
	group := a.history.Variations(groupID)
	if len(group) > 0 {
		return group, nil
	}

	group, err := a.records.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if len(group) == 0 {
		return nil, repositories.NewNotFoundError("variation group")
	}

	return group, nil
}

// DeleteRecord deletes one record. A record that belongs to a variation group
// takes the whole group with it. It returns the ids that were deleted.
func (a *App) DeleteRecord(ctx context.Context, id string) ([]string, error) {
	record, err := a.Record(ctx, id)
	if err != nil {
		return nil, err
	}

	if groupID := record.GroupID(); groupID != "" {
		return a.DeleteGroup(ctx, groupID)
	}

	err = a.records.Delete(ctx, id)
	if err != nil {
		log.Printf("Error deleting record %s: %v", id, err)
		a.setError(err)

		return nil, err
	}

	a.forget(id)

	return []string{id}, nil
}

// DeleteGroup deletes every member of a group. Members that fail to delete
// stay in the history and their errors are joined.
func (a *App) DeleteGroup(ctx context.Context, groupID string) ([]string, error) {
	members, err := a.records.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return nil, repositories.NewNotFoundError("variation group")
	}

	deleted := make([]string, 0, len(members))
	var errs []error

	for _, member := range members {
		err := a.records.Delete(ctx, member.ID)
		if err != nil {
			log.Printf("Error deleting record %s of group %s: %v", member.ID, groupID, err)
			errs = append(errs, fmt.Errorf("deleting %s: %w", member.ID, err))

			continue
		}

		deleted = append(deleted, member.ID)
	}

	a.forget(deleted...)

	err = errors.Join(errs...)
	if err != nil {
		a.setError(err)
	}

	return deleted, err
}

// BulkDelete deletes the selected rows of the displayed list, each grouped row
// with its whole group, and leaves selection mode.
func (a *App) BulkDelete(ctx context.Context) ([]string, error) {
	selected := a.selection.Selected()

	deleted := make([]string, 0, len(selected))
	var errs []error

	for _, record := range selected {
		ids, err := a.DeleteRecord(ctx, record.ID)
		deleted = append(deleted, ids...)

		if err != nil {
			errs = append(errs, err)
		}
	}

	a.selection.LeaveMode()

	err := errors.Join(errs...)
	if err != nil {
		a.setError(err)
	}

	return deleted, err
}

func (a *App) forget(ids ...string) {
	if len(ids) == 0 {
		return
	}

	a.history.Remove(ids...)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return
	}

	for _, id := range ids {
		if a.current.ID == id {
			a.current = nil
			return
		}
	}
}

// expand replaces each grouped row with every member of its group.
func (a *App) expand(ctx context.Context, rows []*entities.ImageRecord) ([]*entities.ImageRecord, error) {
	out := make([]*entities.ImageRecord, 0, len(rows))

	for _, row := range rows {
		if row.GroupID() == "" {
			out = append(out, row)
			continue
		}

		group, err := a.Variations(ctx, row.GroupID())
		if err != nil {
			return nil, err
		}

		out = append(out, group...)
	}

	return out, nil
}

// ExportSelected writes the selected rows, groups expanded, as a zip archive
// and returns its file name.
func (a *App) ExportSelected(ctx context.Context, w io.Writer) (string, error) {
	selected := a.selection.Selected()
	if len(selected) == 0 {
		return "", &entities.ValidationError{Field: "selection", Message: "nothing is selected"}
	}

	records, err := a.expand(ctx, selected)
	if err != nil {
		return "", err
	}

	err = export.WriteArchive(w, records)
	if err != nil {
		return "", err
	}

	return export.BatchArchiveName, nil
}

func (a *App) ExportGroup(ctx context.Context, groupID string, w io.Writer) (string, error) {
	group, err := a.Variations(ctx, groupID)
	if err != nil {
		return "", err
	}

	err = export.WriteArchive(w, group)
	if err != nil {
		return "", err
	}

	return export.GroupArchiveName(group), nil
}

func (a *App) ExportMetadata(ctx context.Context, id string, w io.Writer) (string, error) {
	record, err := a.Record(ctx, id)
	if err != nil {
		return "", err
	}

	total := 1
	if groupID := record.GroupID(); groupID != "" {
		group, err := a.Variations(ctx, groupID)
		if err != nil {
			return "", err
		}

		total = len(group)
	}

	err = export.WriteMetadata(w, record, total)
	if err != nil {
		return "", err
	}

	return export.MetadataFilename(record), nil
}

// UploadSelected exports the selection and stores the archive in object storage.
func (a *App) UploadSelected(ctx context.Context) (*export.Upload, error) {
	if a.uploader == nil {
		return nil, ErrUploadsDisabled
	}

	var buf bytes.Buffer

	name, err := a.ExportSelected(ctx, &buf)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%d-%s", clock.Millis(a.clock), name)

	return a.uploader.Upload(ctx, key, buf.Bytes(), "application/zip")
}

// ContactSheet tiles the images of a group into one PNG.
func (a *App) ContactSheet(ctx context.Context, groupID string) ([]byte, error) {
	group, err := a.Variations(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return a.sheet(group)
}

func (a *App) sheet(records []*entities.ImageRecord) ([]byte, error) {
	if len(records) > composite_renderer.MaxImages {
		records = records[:composite_renderer.MaxImages]
	}

	bufs := make([]*bytes.Buffer, 0, len(records))

	for _, record := range records {
		data, err := export.DecodeImage(record)
		if err != nil {
			return nil, err
		}

		bufs = append(bufs, bytes.NewBuffer(data))
	}

	sheet, err := a.renderer.TileImages(bufs)
	if err != nil {
		return nil, err
	}

	return sheet.Bytes(), nil
}

// ImageOf returns the decoded image of a single record.
func (a *App) ImageOf(ctx context.Context, id string) ([]byte, *entities.ImageRecord, error) {
	record, err := a.Record(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := export.DecodeImage(record)
	if err != nil {
		return nil, nil, err
	}

	return data, record, nil
}

// Templates lists saved prompt templates, newest first. An empty category
// lists all of them.
func (a *App) Templates(ctx context.Context, category string) ([]*entities.PromptTemplate, error) {
	if category == "" {
		return a.templates.GetAll(ctx)
	}

	return a.templates.GetByCategory(ctx, category)
}

// SaveTemplate creates or updates a template. Updates keep CreatedAt.
func (a *App) SaveTemplate(ctx context.Context, template *entities.PromptTemplate) (*entities.PromptTemplate, error) {
	if template.Name == "" {
		return nil, &entities.ValidationError{Field: "name", Message: "template name is empty"}
	}

	if template.Prompt == "" {
		return nil, &entities.ValidationError{Field: "prompt", Message: "template prompt is empty"}
	}

	saved := *template
	if saved.ID == "" {
		saved.ID = a.newID()
	}

	return a.templates.Put(ctx, &saved)
}

func (a *App) DeleteTemplate(ctx context.Context, id string) error {
	return a.templates.Delete(ctx, id)
}

func (a *App) Credential(ctx context.Context, provider string) (string, error) {
	return a.credentials.Credential(ctx, provider)
}

func (a *App) SetCredential(ctx context.Context, provider, apiKey string) error {
	return a.credentials.SetCredential(ctx, provider, apiKey)
}

func (a *App) ConfiguredProviders(ctx context.Context) (map[string]bool, error) {
	return a.credentials.Configured(ctx)
}

func (a *App) Randomize(
	ctx context.Context, mode randomizer.Mode, category string, current entities.GenerationOptions,
) (entities.GenerationOptions, error) {
	return a.randomizer.Randomize(ctx, mode, category, current)
}

// ImportPNG reads the generation parameters embedded in an exported PNG.
func (a *App) ImportPNG(data []byte) (entities.GenerationOptions, error) {
	info, err := png_metadata.Read(data)
	if errors.Is(err, png_metadata.ErrNotPNG) {
		return entities.GenerationOptions{}, &entities.ValidationError{Field: "image", Message: "not a PNG file"}
	}

	if err != nil {
		return entities.GenerationOptions{}, err
	}

	return png_metadata.Parse(info.Parameters)
}
