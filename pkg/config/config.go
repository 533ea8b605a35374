// Package config loads gemchat settings. Values are layered, later layers
// winning: Defaults, the TOML config file, a .env file, the process
// environment, and finally command line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/gemchat/pkg/gemini"
	"github.com/papercomputeco/gemchat/pkg/media"
)

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New("no API key configured: set GEMINI_API_KEY or api_key in the config file")

// Config is the full gemchat configuration.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint"`
	Chat     ChatConfig     `toml:"chat"`
	Server   ServerConfig   `toml:"server"`

	Debug   bool   `toml:"debug" env:"GEMCHAT_DEBUG"`
	LogFile string `toml:"log_file" env:"GEMCHAT_LOG_FILE"` // Where the interactive chat writes logs; empty discards them
}

// EndpointConfig describes the generative-content endpoint.
type EndpointConfig struct {
	BaseURL string        `toml:"base_url" env:"GEMINI_BASE_URL"`
	Model   string        `toml:"model" env:"GEMINI_MODEL"`
	APIKey  string        `toml:"api_key" env:"GEMINI_API_KEY"`
	Timeout time.Duration `toml:"timeout" env:"GEMCHAT_TIMEOUT"` // Zero waits for as long as the endpoint takes
}

// ChatConfig tunes the conversation.
type ChatConfig struct {
	MaxImageBytes int64  `toml:"max_image_bytes" env:"GEMCHAT_MAX_IMAGE_BYTES"`
	FailureText   string `toml:"failure_text" env:"GEMCHAT_FAILURE_TEXT"`
}

// ServerConfig configures `gemchat serve`.
type ServerConfig struct {
	ListenAddr string `toml:"listen" env:"GEMCHAT_LISTEN"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			BaseURL: gemini.DefaultBaseURL,
			Model:   gemini.DefaultModel,
			// LLM requests can be slow, especially with images
			Timeout: 5 * time.Minute,
		},
		Chat: ChatConfig{
			MaxImageBytes: media.MaxImageBytes,
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
	}
}

// DefaultPath returns ~/.config/gemchat/config.toml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gemchat", "config.toml")
}

// Load builds a Config from Defaults, the TOML file at path, a .env file in
// the working directory, and the environment. An empty path means
// DefaultPath; a missing file at the default path is not an error, a missing
// file at an explicit path is.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("could not read config file %s: %w", path, err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("could not parse environment: %w", err)
	}

	return cfg, nil
}

// Validate reports settings that would make every request fail.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(c.Endpoint.Model) == "" {
		return errors.New("no model configured")
	}
	if c.Chat.MaxImageBytes <= 0 {
		return fmt.Errorf("max_image_bytes must be positive, got %d", c.Chat.MaxImageBytes)
	}
	return nil
}

// GeminiConfig maps the endpoint settings onto the transport configuration.
func (c *Config) GeminiConfig() gemini.Config {
	return gemini.Config{
		BaseURL: c.Endpoint.BaseURL,
		Model:   c.Endpoint.Model,
		APIKey:  c.Endpoint.APIKey,
		Timeout: c.Endpoint.Timeout,
	}
}
