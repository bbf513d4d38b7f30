package discord_bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"pixel_forge/entities"
	"pixel_forge/generation"
)

const (
	deleteButtonPrefix = "delete_"

	historyLimit = 10
)

func deleteButtonID(recordID string) string {
	return deleteButtonPrefix + recordID
}

func parseDeleteButtonID(customID string) (string, bool) {
	id, ok := strings.CutPrefix(customID, deleteButtonPrefix)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// choicesFor turns a modifier table into command choices. Discord rejects empty
// choice values, so the label is sent and mapped back with ValueFor.
func choicesFor(options []entities.Option) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(options))

	for _, option := range options {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  option.Label,
			Value: option.Label,
		})
	}

	return choices
}

func fragmentFor(options []entities.Option, label string) string {
	value, _ := entities.ValueFor(options, label)

	return value
}

func imagineOptions(options []*discordgo.ApplicationCommandInteractionDataOption) entities.GenerationOptions {
	opts := entities.GenerationOptions{Variations: 1}

	for _, option := range options {
		switch option.Name {
		case "prompt":
			opts.Prompt = option.StringValue()
		case "negative":
			opts.NegativePrompt = option.StringValue()
		case "style":
			opts.Style = fragmentFor(entities.Styles, option.StringValue())
		case "lighting":
			opts.Lighting = fragmentFor(entities.Lighting, option.StringValue())
		case "mood":
			opts.Mood = fragmentFor(entities.Moods, option.StringValue())
		case "ratio":
			opts.Ratio = fragmentFor(entities.Ratios, option.StringValue())
		case "variations":
			opts.Variations = int(option.IntValue())
		}
	}

	return opts.Normalized()
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, &entities.ContentSafetyError{}):
		return "That prompt triggered the safety filters. Try rephrasing it."
	case errors.Is(err, &entities.ConfigurationError{}):
		return "No API key is configured for image generation yet. Set one in the studio settings."
	case errors.Is(err, generation.ErrGenerationInProgress):
		return "I'm already dreaming something up. Try again in a moment."
	case errors.Is(err, &entities.ValidationError{}):
		return fmt.Sprintf("I can't imagine that: %v", err)
	default:
		return fmt.Sprintf("Something went wrong while imagining that: %v", err)
	}
}

func finishedMessage(userID string, records []*entities.ImageRecord) string {
	record := records[0]

	title := record.Filename
	if record.GroupID() != "" {
		title = strings.TrimSuffix(title, "-1")
	}

	return fmt.Sprintf("<@%s> asked me to imagine \"%s\", here is **%s** (%d image(s)):",
		userID, record.Prompt, title, len(records))
}

func historyMessage(rows []*entities.ImageRecord, variations func(groupID string) int) string {
	if len(rows) == 0 {
		return "Nothing in the gallery matches that."
	}

	var b strings.Builder

	for i, row := range rows {
		if i == historyLimit {
			fmt.Fprintf(&b, "...and %d more", len(rows)-historyLimit)
			break
		}

		fmt.Fprintf(&b, "%d. **%s** - %s", i+1, row.Filename, row.Prompt)

		if groupID := row.GroupID(); groupID != "" {
			fmt.Fprintf(&b, " (%d variations)", variations(groupID))
		}

		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
