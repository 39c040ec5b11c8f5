// /internal/config/config.go
package config

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken          string        `env:"DISCORD_TOKEN,required,notEmpty"`
	StoragePath           string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	DeveloperID           string        `env:"DEVELOPER_ID"`
	DiscordGuildBlacklist []string      `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool          `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	CommandCachePath      string        `env:"COMMAND_CACHE_PATH" envDefault:"data/commands"`
	InputTimeout          time.Duration `env:"INPUT_TIMEOUT" envDefault:"120s"`
	EditorIdle            time.Duration `env:"EDITOR_IDLE" envDefault:"10m"`
	Timezone              string        `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	ImageFetchTimeout     time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"10s"`
	AutosaveInterval      time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"10s"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.InputTimeout <= 0 {
		return nil, fmt.Errorf("INPUT_TIMEOUT must be positive, got %s", cfg.InputTimeout)
	}
	return &cfg, nil
}

// New is Load for entrypoints that cannot run without a valid config.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Location returns the reference timezone used for time input.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && cfg.DeveloperID == userID
}

func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(c.DiscordGuildBlacklist, guildID)
}
