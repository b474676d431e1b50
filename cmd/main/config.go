package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/markovbot/pkg/chatbot"
	"github.com/CTAG07/markovbot/pkg/markov"
	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP API, storage and corpus.
type ServerConfig struct {
	ApiAddr           string   `json:"api_addr" env:"MARKOV_API_ADDR"`
	ApiKey            string   `json:"api_key" env:"MARKOV_API_KEY"`
	LogLevel          string   `json:"log_level" env:"MARKOV_LOG_LEVEL"`
	DataDir           string   `json:"data_dir" env:"MARKOV_DATA_DIR"`
	StatsDatabasePath string   `json:"stats_database_path" env:"MARKOV_STATS_DB"`
	CorpusPaths       []string `json:"corpus_paths" env:"MARKOV_CORPUS" envSeparator:","`
	Tokenizer         string   `json:"tokenizer" env:"MARKOV_TOKENIZER"`
	// DiscordToken is only ever read from the environment.
	DiscordToken string `json:"-" env:"DISCORD_TOKEN"`
}

// GenerateConfig holds the synthesis limits used by the HTTP API and the CLI.
type GenerateConfig struct {
	MaxLength int  `json:"max_length" env:"MARKOV_MAX_LENGTH"`
	Truncate  bool `json:"truncate" env:"MARKOV_TRUNCATE"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server   *ServerConfig   `json:"server_config"`
	Bot      *chatbot.Config `json:"bot_config"`
	Generate *GenerateConfig `json:"generate_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:           ":7278",
		LogLevel:          "info",
		DataDir:           "./data",
		StatsDatabasePath: "./data/markovbot_stats.db?_journal_mode=WAL&_busy_timeout=5000",
		CorpusPaths:       []string{},
		Tokenizer:         "whitespace",
	}
}

// DefaultGenerateConfig creates a generation configuration with default values.
func DefaultGenerateConfig() *GenerateConfig {
	return &GenerateConfig{
		MaxLength: markov.DefaultMaxLength,
		Truncate:  true,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := &Config{
		Server:   DefaultServerConfig(),
		Bot:      chatbot.DefaultConfig(),
		Generate: DefaultGenerateConfig(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		// For other errors (e.g., permission denied), return the error.
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// A file may leave whole sections out.
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Bot == nil {
		config.Bot = chatbot.DefaultConfig()
	}
	if config.Generate == nil {
		config.Generate = DefaultGenerateConfig()
	}

	return config, nil
}

// ApplyEnv overrides configuration values with any matching environment
// variables. Credentials are only taken from here.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config.Server); err != nil {
		return fmt.Errorf("parse server env: %w", err)
	}
	if err := env.Parse(config.Generate); err != nil {
		return fmt.Errorf("parse generate env: %w", err)
	}
	return nil
}

// parseLogLevel maps a configured level name onto a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newTokenizer returns the corpus tokenizer named in the configuration.
func newTokenizer(name string) (markov.Tokenizer, error) {
	switch strings.ToLower(name) {
	case "", "whitespace":
		return markov.WhitespaceTokenizer{}, nil
	case "regex":
		return markov.NewRegexTokenizer(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}
