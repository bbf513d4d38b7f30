package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pixel_forge/anthropic_api"
	"pixel_forge/config"
	"pixel_forge/databases/sqlite"
	"pixel_forge/discord_bot"
	"pixel_forge/entities"
	"pixel_forge/export"
	"pixel_forge/gemini_api"
	"pixel_forge/generation"
	"pixel_forge/http_api"
	"pixel_forge/openai_api"
	"pixel_forge/randomizer"
	"pixel_forge/repositories/image_records"
	"pixel_forge/repositories/prompt_templates"
	"pixel_forge/repositories/settings"
	"pixel_forge/studio"
)

// Front-end switches
var (
	envFile     = flag.String("env", ".env", "Path of an optional dotenv file")
	httpFlag    = flag.Bool("http", true, "Serve the HTTP API")
	discordFlag = flag.Bool("discord", false, "Run the Discord bot")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if !*httpFlag && !*discordFlag {
		log.Fatalf("Nothing to run: enable -http or -discord")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConfig := sqlite.Config{Filename: cfg.DBFile}

	sqliteDB, err := sqlite.New(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to create sqlite database: %v", err)
	}
	defer sqlite.Close(dbConfig)

	recordRepo, err := image_records.NewRepository(&image_records.Config{DB: sqliteDB})
	if err != nil {
		log.Fatalf("Failed to create image record repository: %v", err)
	}

	templateRepo, err := prompt_templates.NewRepository(&prompt_templates.Config{DB: sqliteDB})
	if err != nil {
		log.Fatalf("Failed to create prompt template repository: %v", err)
	}

	settingsRepo, err := settings.NewRepository(&settings.Config{DB: sqliteDB})
	if err != nil {
		log.Fatalf("Failed to create settings repository: %v", err)
	}

	credentials, err := studio.NewCredentials(settingsRepo)
	if err != nil {
		log.Fatalf("Failed to create credential store: %v", err)
	}

	for provider, key := range cfg.APIKeys() {
		err = credentials.SetCredential(ctx, provider, key)
		if err != nil {
			log.Fatalf("Failed to store %s API key: %v", provider, err)
		}

		log.Printf("Stored %s API key from the environment", provider)
	}

	imageAPI, textAPI := buildClients(cfg)

	generator, err := generation.New(generation.Config{
		ImageAPI:      imageAPI,
		ImageProvider: cfg.Image.Provider,
		ImageModel:    cfg.Image.Model,
		TextAPI:       textAPI,
		TextProvider:  textProvider(cfg),
		Credentials:   credentials,
		Records:       recordRepo,
	})
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	random, err := randomizer.New(randomizer.Config{
		TextAPI:      textAPI,
		TextProvider: textProvider(cfg),
		Credentials:  credentials,
	})
	if err != nil {
		log.Fatalf("Failed to create randomizer: %v", err)
	}

	app, err := studio.New(studio.Config{
		Records:        recordRepo,
		Templates:      templateRepo,
		Credentials:    credentials,
		Generator:      generator,
		Randomizer:     random,
		Uploader:       buildUploader(ctx, cfg),
		SearchDebounce: cfg.SearchDebounce,
	})
	if err != nil {
		log.Fatalf("Failed to create studio: %v", err)
	}
	defer app.Close()

	err = app.Refresh(ctx)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}

	log.Printf("Loaded %d images from the gallery", app.History().Len())

	var wg sync.WaitGroup

	if *httpFlag {
		server, err := http_api.New(http_api.Config{App: app, Addr: cfg.HTTPAddr})
		if err != nil {
			log.Fatalf("Failed to create HTTP API: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			err := server.Start()
			if err != nil {
				log.Printf("HTTP API stopped: %v", err)
				stop()
			}
		}()

		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			err := server.Shutdown(shutdownCtx)
			if err != nil {
				log.Printf("Error shutting down HTTP API: %v", err)
			}
		}()
	}

	if *discordFlag {
		bot, err := discord_bot.New(discord_bot.Config{
			BotToken:          cfg.Discord.Token,
			GuildID:           cfg.Discord.Guild,
			App:               app,
			RemoveCommands:    cfg.Discord.RemoveCommands,
			GenerationTimeout: cfg.GenerationTimeout,
		})
		if err != nil {
			log.Fatalf("Error creating Discord bot: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			err := bot.Start(ctx)
			if err != nil {
				log.Printf("Error tearing down bot: %v", err)
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()

	log.Println("Gracefully shutting down.")
}

func textProvider(cfg *config.Config) string {
	if cfg.Text.Provider == "none" {
		return ""
	}

	return cfg.Text.Provider
}

func buildClients(cfg *config.Config) (generation.ImageAPI, generation.TextAPI) {
	var gemini gemini_api.GeminiAPI
	var openai openai_api.OpenAIAPI

	geminiClient := func() gemini_api.GeminiAPI {
		if gemini != nil {
			return gemini
		}

		geminiCfg := gemini_api.Config{ImageEndpoint: gemini_api.Endpoint(cfg.Image.Endpoint)}
		if cfg.Image.Provider == entities.ProviderGemini {
			geminiCfg.ImageModel = cfg.Image.Model
		}

		if cfg.Text.Provider == entities.ProviderGemini && cfg.Text.Model != "" {
			geminiCfg.TextCandidates = []gemini_api.TextCandidate{
				{Model: cfg.Text.Model, APIVersion: "v1", Shape: gemini_api.PayloadMerged},
				{Model: cfg.Text.Model, APIVersion: "v1beta", Shape: gemini_api.PayloadSystemInstruction},
			}
		}

		client, err := gemini_api.New(geminiCfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini API: %v", err)
		}

		gemini = client

		return gemini
	}

	openaiClient := func() openai_api.OpenAIAPI {
		if openai != nil {
			return openai
		}

		openaiCfg := openai_api.Config{}
		if cfg.Image.Provider == entities.ProviderOpenAI {
			openaiCfg.ImageModel = cfg.Image.Model
		}

		if cfg.Text.Provider == entities.ProviderOpenAI {
			openaiCfg.TextModel = cfg.Text.Model
		}

		client, err := openai_api.New(openaiCfg)
		if err != nil {
			log.Fatalf("Failed to create OpenAI API: %v", err)
		}

		openai = client

		return openai
	}

	var imageAPI generation.ImageAPI

	switch cfg.Image.Provider {
	case entities.ProviderOpenAI:
		imageAPI = openaiClient()
	default:
		imageAPI = geminiClient()
	}

	var textAPI generation.TextAPI

	switch cfg.Text.Provider {
	case entities.ProviderGemini:
		textAPI = geminiClient()
	case entities.ProviderOpenAI:
		textAPI = openaiClient()
	case entities.ProviderAnthropic:
		client, err := anthropic_api.New(anthropic_api.Config{Model: cfg.Text.Model, MaxRetries: -1})
		if err != nil {
			log.Fatalf("Failed to create Anthropic API: %v", err)
		}

		textAPI = client
	}

	return imageAPI, textAPI
}

// buildUploader returns nil when object storage is not configured or not reachable.
func buildUploader(ctx context.Context, cfg *config.Config) export.Uploader {
	if !cfg.S3.Enabled() {
		return nil
	}

	uploader, err := export.NewUploader(export.UploaderConfig{
		Host:      cfg.S3.Host,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		log.Printf("Object storage disabled: %v", err)

		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = uploader.CheckBucket(checkCtx)
	if err != nil {
		log.Printf("Object storage disabled: %v", err)

		return nil
	}

	return uploader
}
