package discord_bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"pixel_forge/entities"
	"pixel_forge/history"
	"pixel_forge/studio"
)

const DefaultGenerationTimeout = 2 * time.Minute

type botImpl struct {
	botSession         *discordgo.Session
	guildID            string
	app                *studio.App
	removeCommands     bool
	generationTimeout  time.Duration
	registeredCommands []*discordgo.ApplicationCommand
}

type Config struct {
	BotToken string
	// GuildID is optional. Without it commands are registered globally.
	GuildID           string
	App               *studio.App
	RemoveCommands    bool
	GenerationTimeout time.Duration
}

func New(cfg Config) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("missing bot token")
	}

	if cfg.App == nil {
		return nil, errors.New("missing app")
	}

	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}

	botSession, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}

	botSession.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})

	err = botSession.Open()
	if err != nil {
		return nil, err
	}

	bot := &botImpl{
		botSession:         botSession,
		guildID:            cfg.GuildID,
		app:                cfg.App,
		removeCommands:     cfg.RemoveCommands,
		generationTimeout:  cfg.GenerationTimeout,
		registeredCommands: make([]*discordgo.ApplicationCommand, 0),
	}

	for _, command := range []*discordgo.ApplicationCommand{imagineCommand(), historyCommand()} {
		err = bot.addCommand(command)
		if err != nil {
			botSession.Close()

			return nil, err
		}
	}

	botSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			switch i.ApplicationCommandData().Name {
			case "imagine":
				bot.processImagineCommand(s, i)
			case "history":
				bot.processHistoryCommand(s, i)
			default:
				log.Printf("Unknown command '%v'", i.ApplicationCommandData().Name)
			}
		case discordgo.InteractionMessageComponent:
			customID := i.MessageComponentData().CustomID

			if id, ok := parseDeleteButtonID(customID); ok {
				bot.processDeleteButton(s, i, id)
			} else {
				log.Printf("Unknown message component '%v'", customID)
			}
		}
	})

	return bot, nil
}

func (b *botImpl) Start(ctx context.Context) error {
	<-ctx.Done()

	return b.teardown()
}

func (b *botImpl) teardown() error {
	if b.removeCommands {
		for _, cmd := range b.registeredCommands {
			log.Printf("Removing command '%v'...", cmd.Name)

			err := b.botSession.ApplicationCommandDelete(b.botSession.State.User.ID, b.guildID, cmd.ID)
			if err != nil {
				log.Printf("Error removing command '%v': %v", cmd.Name, err)
			}
		}
	}

	return b.botSession.Close()
}

func imagineCommand() *discordgo.ApplicationCommand {
	minVariations := float64(entities.MinVariations)

	return &discordgo.ApplicationCommand{
		Name:        "imagine",
		Description: "Ask the studio to imagine something",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prompt",
				Description: "The text prompt to imagine",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "style",
				Description: "Art style",
				Choices:     choicesFor(entities.Styles),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "lighting",
				Description: "Lighting",
				Choices:     choicesFor(entities.Lighting),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mood",
				Description: "Mood",
				Choices:     choicesFor(entities.Moods),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "ratio",
				Description: "Aspect ratio",
				Choices:     choicesFor(entities.Ratios),
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "variations",
				Description: "How many images to generate",
				MinValue:    &minVariations,
				MaxValue:    float64(entities.MaxVariations),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "negative",
				Description: "Things to keep out of the image",
			},
		},
	}
}

func historyCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "history",
		Description: "List recent images in the gallery",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "search",
				Description: "Search prompts, titles and styles",
			},
		},
	}
}

func (b *botImpl) addCommand(command *discordgo.ApplicationCommand) error {
	log.Printf("Adding command '%s'...", command.Name)

	cmd, err := b.botSession.ApplicationCommandCreate(b.botSession.State.User.ID, b.guildID, command)
	if err != nil {
		log.Printf("Error creating '%s' command: %v", command.Name, err)

		return err
	}

	b.registeredCommands = append(b.registeredCommands, cmd)

	return nil
}

func (b *botImpl) processImagineCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := imagineOptions(i.ApplicationCommandData().Options)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)

		return
	}

	go b.imagine(s, i.Interaction, opts)
}

func interactionUserID(interaction *discordgo.Interaction) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}

	if interaction.User != nil {
		return interaction.User.ID
	}

	return ""
}

func (b *botImpl) imagine(s *discordgo.Session, interaction *discordgo.Interaction, opts entities.GenerationOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), b.generationTimeout)
	defer cancel()

	records, err := b.app.Generate(ctx, opts)
	if err != nil {
		log.Printf("Error imagining %q: %v", opts.Prompt, err)

		content := errorMessage(err)

		_, err = s.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{Content: &content})
		if err != nil {
			log.Printf("Error editing the interaction: %v", err)
		}

		return
	}

	image, err := b.attachment(ctx, records)
	if err != nil {
		log.Printf("Error rendering attachment: %v", err)
	}

	content := finishedMessage(interactionUserID(interaction), records)

	edit := &discordgo.WebhookEdit{
		Content: &content,
		Components: &[]discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Delete",
						Style:    discordgo.DangerButton,
						CustomID: deleteButtonID(records[0].ID),
					},
				},
			},
		},
	}

	if image != nil {
		edit.Files = []*discordgo.File{
			{
				ContentType: "image/png",
				Name:        "imagine.png",
				Reader:      bytes.NewReader(image),
			},
		}
	}

	_, err = s.InteractionResponseEdit(interaction, edit)
	if err != nil {
		log.Printf("Error editing the interaction: %v", err)
	}
}

// attachment is the contact sheet of a group or the single image.
func (b *botImpl) attachment(ctx context.Context, records []*entities.ImageRecord) ([]byte, error) {
	if groupID := records[0].GroupID(); groupID != "" {
		return b.app.ContactSheet(ctx, groupID)
	}

	data, _, err := b.app.ImageOf(ctx, records[0].ID)

	return data, err
}

func (b *botImpl) processHistoryCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	search := ""
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == "search" {
			search = option.StringValue()
		}
	}

	manager := b.app.History()
	rows := manager.Query(history.View{SearchTerm: search})

	content := historyMessage(rows, func(groupID string) int {
		return len(manager.Variations(groupID))
	})

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

func (b *botImpl) processDeleteButton(s *discordgo.Session, i *discordgo.InteractionCreate, recordID string) {
	deleted, err := b.app.DeleteRecord(context.Background(), recordID)

	content := fmt.Sprintf("Deleted %d image(s) from the gallery.", len(deleted))
	if err != nil {
		log.Printf("Error deleting %s: %v", recordID, err)

		content = fmt.Sprintf("Could not delete that: %v", err)
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}
