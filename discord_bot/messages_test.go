package discord_bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"pixel_forge/entities"
	"pixel_forge/generation"
)

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func TestImagineOptionsMapsChoicesToFragments(t *testing.T) {
	opts := imagineOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		stringOption("prompt", "a fox"),
		stringOption("style", "Oil Painting"),
		stringOption("lighting", "Golden Hour"),
		stringOption("ratio", "Landscape (16:9)"),
		stringOption("negative", "blur"),
		{Name: "variations", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
	})

	if opts.Prompt != "a fox" || opts.NegativePrompt != "blur" {
		t.Fatalf("opts = %+v", opts)
	}

	if opts.Style != ", oil painting, textured" || opts.Lighting != ", golden hour, warm sunset lighting" {
		t.Fatalf("fragments = %q %q", opts.Style, opts.Lighting)
	}

	if opts.Ratio != "16:9" || opts.Variations != 3 {
		t.Fatalf("ratio %q, variations %d", opts.Ratio, opts.Variations)
	}
}

func TestImagineOptionsDefaults(t *testing.T) {
	opts := imagineOptions([]*discordgo.ApplicationCommandInteractionDataOption{stringOption("prompt", "x")})

	if opts.Variations != 1 || opts.Ratio != entities.DefaultRatio {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestChoicesStayWithinDiscordLimits(t *testing.T) {
	for _, table := range [][]entities.Option{entities.Styles, entities.Lighting, entities.Moods, entities.Ratios} {
		choices := choicesFor(table)

		if len(choices) > 25 {
			t.Fatalf("%d choices, Discord allows 25", len(choices))
		}

		for _, choice := range choices {
			if choice.Value == "" {
				t.Fatalf("choice %q has an empty value", choice.Name)
			}
		}
	}
}

func TestDeleteButtonID(t *testing.T) {
	id, ok := parseDeleteButtonID(deleteButtonID("abc-123"))
	if !ok || id != "abc-123" {
		t.Fatalf("parsed %q, %v", id, ok)
	}

	for _, customID := range []string{"delete_", "imagine_reroll", ""} {
		if _, ok := parseDeleteButtonID(customID); ok {
			t.Errorf("%q parsed as a delete button", customID)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&entities.ContentSafetyError{}, "safety filters"},
		{&entities.ConfigurationError{Provider: "gemini"}, "No API key"},
		{generation.ErrGenerationInProgress, "already dreaming"},
		{errors.New("boom"), "boom"},
	}

	for _, test := range tests {
		if got := errorMessage(test.err); !strings.Contains(got, test.want) {
			t.Errorf("errorMessage(%v) = %q", test.err, got)
		}
	}
}

func TestHistoryMessage(t *testing.T) {
	rows := make([]*entities.ImageRecord, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, &entities.ImageRecord{ID: "r", Filename: "Title", Prompt: "p"})
	}

	rows[0].Variation = &entities.Variation{GroupID: "g", Index: 2}

	message := historyMessage(rows, func(string) int { return 3 })

	if !strings.HasPrefix(message, "1. **Title** - p (3 variations)") {
		t.Fatalf("message = %q", message)
	}

	if !strings.HasSuffix(message, "...and 2 more") {
		t.Fatalf("message = %q", message)
	}

	if historyMessage(nil, nil) != "Nothing in the gallery matches that." {
		t.Fatal("empty history message")
	}
}
