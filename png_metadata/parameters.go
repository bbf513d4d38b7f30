package png_metadata

import (
	"fmt"
	"regexp"
	"strings"

	"pixel_forge/entities"
)

const negativePrefix = "Negative prompt: "

var settingsLine = regexp.MustCompile(`^Style: (.*), Lighting: (.*), Mood: (.*), Ratio: (.*), Resolution: (.*)$`)

// FormatParameters renders generation options as parameters text: the prompt,
// an optional negative prompt line and one settings line using table labels.
func FormatParameters(opts entities.GenerationOptions) string {
	var b strings.Builder

	b.WriteString(opts.Prompt)

	if opts.NegativePrompt != "" {
		b.WriteString("\n" + negativePrefix + opts.NegativePrompt)
	}

	ratio := opts.Ratio
	if ratio == "" {
		ratio = entities.DefaultRatio
	}

	resolution := opts.Resolution
	if resolution == "" {
		resolution = entities.DefaultResolution
	}

	fmt.Fprintf(&b, "\nStyle: %s, Lighting: %s, Mood: %s, Ratio: %s, Resolution: %s",
		entities.LabelFor(entities.Styles, opts.Style, ""),
		entities.LabelFor(entities.Lighting, opts.Lighting, ""),
		entities.LabelFor(entities.Moods, opts.Mood, ""),
		ratio,
		resolution)

	return b.String()
}

// Parse turns parameters text back into generation options. Text without a
// settings line is taken as a bare prompt.
func Parse(text string) (entities.GenerationOptions, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return entities.GenerationOptions{}, &entities.ValidationError{Field: "parameters", Message: "no generation parameters found"}
	}

	lines := strings.Split(text, "\n")
	opts := entities.GenerationOptions{Variations: 1}

	if match := settingsLine.FindStringSubmatch(lines[len(lines)-1]); match != nil {
		opts.Style = fragmentFor(entities.Styles, match[1])
		opts.Lighting = fragmentFor(entities.Lighting, match[2])
		opts.Mood = fragmentFor(entities.Moods, match[3])
		opts.Ratio = match[4]
		opts.Resolution = match[5]
		lines = lines[:len(lines)-1]
	}

	promptLines := make([]string, 0, len(lines))

	for _, line := range lines {
		if negative, ok := strings.CutPrefix(line, negativePrefix); ok {
			opts.NegativePrompt = negative
			continue
		}

		promptLines = append(promptLines, line)
	}

	opts.Prompt = strings.TrimSpace(strings.Join(promptLines, "\n"))

	return opts.Normalized(), nil
}

// fragmentFor maps a label back to its prompt fragment. Unknown labels are
// taken as the fragment itself.
func fragmentFor(options []entities.Option, label string) string {
	if value, ok := entities.ValueFor(options, label); ok {
		return value
	}

	return label
}
