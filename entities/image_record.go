package entities

import (
	"encoding/json"
	"errors"
)

// Variation marks a record as one member of a multi-image generation. A record
// without a Variation is a single generation.
type Variation struct {
	GroupID string
	Index   int
}

type ImageRecord struct {
	ID               string
	Timestamp        int64
	Prompt           string
	NegativePrompt   string
	Style            string
	Ratio            string
	Lighting         string
	Mood             string
	Resolution       string
	ImageBase64      string
	Filename         string
	GenerationTimeMs int64
	Variation        *Variation
}

// GroupID returns the variation group of the record, or "" for single images.
func (r ImageRecord) GroupID() string {
	if r.Variation == nil {
		return ""
	}

	return r.Variation.GroupID
}

func (r ImageRecord) IsVariation() bool {
	return r.Variation != nil
}

// Clone returns a copy that shares nothing mutable with r.
func (r *ImageRecord) Clone() *ImageRecord {
	if r == nil {
		return nil
	}

	out := *r
	if r.Variation != nil {
		variation := *r.Variation
		out.Variation = &variation
	}

	return &out
}

type imageRecordJSON struct {
	ID               string `json:"id"`
	Timestamp        int64  `json:"timestamp"`
	Prompt           string `json:"prompt"`
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	Style            string `json:"style"`
	Ratio            string `json:"ratio"`
	Lighting         string `json:"lighting"`
	Mood             string `json:"mood"`
	Resolution       string `json:"resolution,omitempty"`
	ImageBase64      string `json:"base64"`
	Filename         string `json:"filename"`
	GenerationTimeMs int64  `json:"generationTime,omitempty"`
	GroupID          string `json:"groupId,omitempty"`
	VariationIndex   *int   `json:"variationIndex,omitempty"`
}

func (r ImageRecord) MarshalJSON() ([]byte, error) {
	out := imageRecordJSON{
		ID:               r.ID,
		Timestamp:        r.Timestamp,
		Prompt:           r.Prompt,
		NegativePrompt:   r.NegativePrompt,
		Style:            r.Style,
		Ratio:            r.Ratio,
		Lighting:         r.Lighting,
		Mood:             r.Mood,
		Resolution:       r.Resolution,
		ImageBase64:      r.ImageBase64,
		Filename:         r.Filename,
		GenerationTimeMs: r.GenerationTimeMs,
	}

	if r.Variation != nil {
		idx := r.Variation.Index
		out.GroupID = r.Variation.GroupID
		out.VariationIndex = &idx
	}

	return json.Marshal(out)
}

func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	var in imageRecordJSON

	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if (in.GroupID == "") != (in.VariationIndex == nil) {
		return errors.New("groupId and variationIndex must be set together")
	}

	*r = ImageRecord{
		ID:               in.ID,
		Timestamp:        in.Timestamp,
		Prompt:           in.Prompt,
		NegativePrompt:   in.NegativePrompt,
		Style:            in.Style,
		Ratio:            in.Ratio,
		Lighting:         in.Lighting,
		Mood:             in.Mood,
		Resolution:       in.Resolution,
		ImageBase64:      in.ImageBase64,
		Filename:         in.Filename,
		GenerationTimeMs: in.GenerationTimeMs,
	}

	if in.VariationIndex != nil {
		r.Variation = &Variation{GroupID: in.GroupID, Index: *in.VariationIndex}
	}

	return nil
}
