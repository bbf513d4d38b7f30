package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"pixel_forge/entities"
)

// Metadata is the exported description of one record.
type Metadata struct {
	Prompt          string  `json:"prompt"`
	NegativePrompt  string  `json:"negativePrompt"`
	Style           string  `json:"style"`
	Ratio           string  `json:"ratio"`
	Lighting        string  `json:"lighting"`
	Mood            string  `json:"mood"`
	Resolution      string  `json:"resolution"`
	Filename        string  `json:"filename"`
	Timestamp       string  `json:"timestamp"`
	GenerationTime  *string `json:"generationTime"`
	GroupID         *string `json:"groupId"`
	VariationIndex  *int    `json:"variationIndex"`
	TotalVariations *int    `json:"totalVariations"`
}

// FormatGenerationTime renders a duration as 850ms, 12.3s or 2m 5s.
func FormatGenerationTime(ms int64) string {
	if ms <= 0 {
		return "N/A"
	}

	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	seconds := float64(ms) / 1000
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	return fmt.Sprintf("%dm %ds", ms/60000, (ms/1000)%60)
}

// MetadataFor describes record. totalVariations is the size of its group and
// is ignored for single images.
func MetadataFor(record *entities.ImageRecord, totalVariations int) Metadata {
	metadata := Metadata{
		Prompt:         record.Prompt,
		NegativePrompt: record.NegativePrompt,
		Style:          record.Style,
		Ratio:          record.Ratio,
		Lighting:       record.Lighting,
		Mood:           record.Mood,
		Resolution:     record.Resolution,
		Filename:       record.Filename,
		Timestamp:      time.UnixMilli(record.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	if record.GenerationTimeMs > 0 {
		formatted := FormatGenerationTime(record.GenerationTimeMs)
		metadata.GenerationTime = &formatted
	}

	if record.Variation != nil {
		groupID := record.Variation.GroupID
		index := record.Variation.Index
		total := totalVariations

		metadata.GroupID = &groupID
		metadata.VariationIndex = &index
		metadata.TotalVariations = &total
	}

	return metadata
}

// MetadataFilename is the download name of a record's metadata file.
func MetadataFilename(record *entities.ImageRecord) string {
	name := record.Filename
	if name == "" {
		name = "pixelforge"
	}

	return name + "-metadata.json"
}

func WriteMetadata(w io.Writer, record *entities.ImageRecord, totalVariations int) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(MetadataFor(record, totalVariations))
}
