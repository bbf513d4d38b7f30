package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "PIXELFORGE"

// Keys are read with the PIXELFORGE_ prefix only. An envconfig tag would also
// match the bare name, so fields are named after their keys instead.
type Config struct {
	// DBFile defaults to pixel_forge.sqlite in the working directory.
	DBFile            string        `split_words:"true"`
	HTTPAddr          string        `split_words:"true" default:":8080"`
	SearchDebounce    time.Duration `split_words:"true" default:"300ms"`
	GenerationTimeout time.Duration `split_words:"true" default:"2m"`

	Image ImageConfig
	Text  TextConfig

	// API keys are seeded into the settings store on start when set.
	GeminiAPIKey    string `split_words:"true"`
	OpenaiAPIKey    string `split_words:"true"`
	AnthropicAPIKey string `split_words:"true"`

	Discord DiscordConfig
	S3      S3Config
}

type ImageConfig struct {
	Provider string `default:"gemini"`
	Model    string
	Endpoint string `default:"predict"`
}

type TextConfig struct {
	// Provider is gemini, openai, anthropic or none.
	Provider string `default:"gemini"`
	Model    string
}

type DiscordConfig struct {
	Token          string
	Guild          string
	RemoveCommands bool `split_words:"true" default:"false"`
}

type S3Config struct {
	Host      string
	AccessKey string `split_words:"true"`
	SecretKey string `split_words:"true"`
	Bucket    string `default:"images"`
	UseSSL    bool   `split_words:"true" default:"false"`
}

func (c S3Config) Enabled() bool {
	return c.Host != ""
}

// Load reads envFile when it exists, then the PIXELFORGE_ environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Image.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported image provider %q", c.Image.Provider)
	}

	switch c.Image.Endpoint {
	case "predict", "generateContent":
	default:
		return fmt.Errorf("unsupported image endpoint %q", c.Image.Endpoint)
	}

	switch c.Text.Provider {
	case "gemini", "openai", "anthropic", "none":
	default:
		return fmt.Errorf("unsupported text provider %q", c.Text.Provider)
	}

	if c.S3.Enabled() && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return errors.New("S3 host is set without access and secret keys")
	}

	if c.Discord.Guild != "" && c.Discord.Token == "" {
		return errors.New("discord guild is set without a token")
	}

	return nil
}

// APIKeys maps providers to the keys given in the environment.
func (c *Config) APIKeys() map[string]string {
	keys := make(map[string]string, 3)

	for provider, key := range map[string]string{
		"gemini":    c.GeminiAPIKey,
		"openai":    c.OpenaiAPIKey,
		"anthropic": c.AnthropicAPIKey,
	} {
		if key != "" {
			keys[provider] = key
		}
	}

	return keys
}
