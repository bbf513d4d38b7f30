package entities

import "strings"

const (
	DefaultRatio      = "1:1"
	DefaultResolution = "1K"

	MinVariations = 1
	MaxVariations = 4
)

// GenerationOptions is what the user filled in before pressing generate.
type GenerationOptions struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Style          string `json:"style"`
	Ratio          string `json:"ratio"`
	Lighting       string `json:"lighting"`
	Mood           string `json:"mood"`
	Resolution     string `json:"resolution,omitempty"`
	Variations     int    `json:"variations,omitempty"`
}

// Normalized fills defaults and clamps the variation count to the supported range.
func (o GenerationOptions) Normalized() GenerationOptions {
	if o.Ratio == "" {
		o.Ratio = DefaultRatio
	}

	if o.Resolution == "" {
		o.Resolution = DefaultResolution
	}

	if o.Variations < MinVariations {
		o.Variations = MinVariations
	}

	if o.Variations > MaxVariations {
		o.Variations = MaxVariations
	}

	return o
}

// Modifiers concatenates the style, lighting and mood fragments. Each fragment
// is complete on its own, including its leading separator.
func (o GenerationOptions) Modifiers() string {
	return o.Style + o.Lighting + o.Mood
}

func (o GenerationOptions) HasPrompt() bool {
	return strings.TrimSpace(o.Prompt) != ""
}

// OptionsFromRecord rebuilds the options that produced a record.
func OptionsFromRecord(r ImageRecord) GenerationOptions {
	ratio := r.Ratio
	if ratio == "" {
		ratio = DefaultRatio
	}

	return GenerationOptions{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Style:          r.Style,
		Ratio:          ratio,
		Lighting:       r.Lighting,
		Mood:           r.Mood,
		Resolution:     r.Resolution,
		Variations:     1,
	}
}

// ImageRequest is the provider-neutral request sent to an image API.
type ImageRequest struct {
	Prompt         string
	Modifiers      string
	Ratio          string
	NegativePrompt string
	Resolution     string
	Variations     int
	Model          string
}

// FullPrompt joins the base prompt and the modifier fragments.
func (r ImageRequest) FullPrompt() string {
	if r.Modifiers == "" {
		return r.Prompt
	}

	return r.Prompt + " " + r.Modifiers
}

// PromptWithNegative is FullPrompt with the negative prompt appended, for
// APIs that take no separate negative prompt.
func (r ImageRequest) PromptWithNegative() string {
	if r.NegativePrompt == "" {
		return r.FullPrompt()
	}

	return r.FullPrompt() + ". Avoid: " + r.NegativePrompt + "."
}
