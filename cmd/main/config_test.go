package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/CTAG07/markovbot/pkg/markov"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Server.ApiAddr != ":7278" || config.Generate.MaxLength != markov.DefaultMaxLength {
		t.Errorf("unexpected defaults: %+v %+v", config.Server, config.Generate)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected default config file to be written: %v", err)
	}
	var written Config
	if err = json.Unmarshal(data, &written); err != nil {
		t.Fatalf("written config is not valid JSON: %v", err)
	}
	if written.Bot == nil || written.Bot.Greeting != "$hello" {
		t.Errorf("written config is missing bot defaults: %+v", written.Bot)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server_config": {"api_addr": ":9000", "corpus_paths": ["a.txt", "b.txt"]}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Server.ApiAddr != ":9000" {
		t.Errorf("ApiAddr = %q, want :9000", config.Server.ApiAddr)
	}
	if !reflect.DeepEqual(config.Server.CorpusPaths, []string{"a.txt", "b.txt"}) {
		t.Errorf("CorpusPaths = %v", config.Server.CorpusPaths)
	}
	if config.Bot == nil || config.Generate == nil {
		t.Fatal("missing sections should fall back to defaults")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret-token")
	t.Setenv("MARKOV_API_KEY", "api-key")
	t.Setenv("MARKOV_CORPUS", "one.txt,two.txt")
	t.Setenv("MARKOV_MAX_LENGTH", "42")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if err = ApplyEnv(config); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if config.Server.DiscordToken != "secret-token" {
		t.Errorf("DiscordToken = %q", config.Server.DiscordToken)
	}
	if config.Server.ApiKey != "api-key" {
		t.Errorf("ApiKey = %q", config.Server.ApiKey)
	}
	if !reflect.DeepEqual(config.Server.CorpusPaths, []string{"one.txt", "two.txt"}) {
		t.Errorf("CorpusPaths = %v", config.Server.CorpusPaths)
	}
	if config.Generate.MaxLength != 42 {
		t.Errorf("MaxLength = %d, want 42", config.Generate.MaxLength)
	}
	// Unset variables keep their file or default values.
	if config.Server.ApiAddr != ":7278" {
		t.Errorf("ApiAddr = %q, want default", config.Server.ApiAddr)
	}
}

func TestDiscordTokenNeverSerialized(t *testing.T) {
	config := &Config{Server: DefaultServerConfig()}
	config.Server.DiscordToken = "secret-token"
	data, err := json.Marshal(config)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]map[string]any
	if err = json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for key, value := range decoded["server_config"] {
		if value == "secret-token" {
			t.Errorf("token serialized under %q", key)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range testCases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewTokenizer(t *testing.T) {
	for _, name := range []string{"", "whitespace", "regex"} {
		if _, err := newTokenizer(name); err != nil {
			t.Errorf("newTokenizer(%q) failed: %v", name, err)
		}
	}
	if _, err := newTokenizer("bpe"); err == nil {
		t.Error("expected an error for an unknown tokenizer")
	}
}
