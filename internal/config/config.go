// Package config loads limerence's TOML configuration file and resolves
// the on-disk layout under the user's home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kenxiao1/limerence/internal/llmclient"
	"github.com/spf13/viper"
)

// Model holds the provider identity limerence talks to.
type Model struct {
	ID        string `mapstructure:"id"`
	BaseURL   string `mapstructure:"base_url"`
	APIKeyEnv string `mapstructure:"api_key_env"`
}

// Search configures the web_search tool's backing engine.
type Search struct {
	Engine     string `mapstructure:"engine"`
	SearxngURL string `mapstructure:"searxng_url"`
}

// Config is the parsed contents of config.toml.
type Config struct {
	Model  Model  `mapstructure:"model"`
	Search Search `mapstructure:"search"`
}

// ToModel converts the configured provider into an llmclient.Model.
func (c Config) ToModel() llmclient.Model {
	return llmclient.Model{
		ID:        c.Model.ID,
		BaseURL:   c.Model.BaseURL,
		APIKeyEnv: c.Model.APIKeyEnv,
	}
}

// Default returns limerence's out-of-the-box configuration: deepseek-chat
// over its OpenAI-compatible endpoint, DuckDuckGo for search.
func Default() Config {
	return Config{
		Model: Model{
			ID:        "deepseek-chat",
			BaseURL:   "https://api.deepseek.com/v1",
			APIKeyEnv: "DEEPSEEK_API_KEY",
		},
		Search: Search{
			Engine: "duckduckgo",
		},
	}
}

// DataDir returns ~/.limerence, the root of all on-disk state.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".limerence"), nil
}

func subdir(name string) (string, error) {
	root, err := DataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", name, err)
	}
	return dir, nil
}

func SessionsDir() (string, error)   { return subdir("sessions") }
func MemoryDir() (string, error)     { return subdir("memory") }
func NotesDir() (string, error)      { return subdir("notes") }
func WorkspaceDir() (string, error)  { return subdir("workspace") }
func CharactersDir() (string, error) { return subdir("characters") }

// Load reads config.toml from the data directory via viper, writing out the
// default config on first run. Missing keys fall back to Default()'s
// values, matching the original's "parse failure -> defaults" tolerance.
func Load() (Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "config.toml")

	defaults := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path, defaults); err != nil {
			return Config{}, err
		}
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("model.id", defaults.Model.ID)
	v.SetDefault("model.base_url", defaults.Model.BaseURL)
	v.SetDefault("model.api_key_env", defaults.Model.APIKeyEnv)
	v.SetDefault("search.engine", defaults.Search.Engine)
	v.SetDefault("search.searxng_url", defaults.Search.SearxngURL)

	if err := v.ReadInConfig(); err != nil {
		// A corrupt config file is not fatal: fall back to defaults rather
		// than refusing to start.
		return defaults, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, nil
	}
	if cfg.Search.Engine == "" {
		cfg.Search.Engine = defaults.Search.Engine
	}
	return cfg, nil
}

func writeDefault(path string, cfg Config) error {
	v := viper.New()
	v.SetConfigType("toml")
	v.Set("model.id", cfg.Model.ID)
	v.Set("model.base_url", cfg.Model.BaseURL)
	v.Set("model.api_key_env", cfg.Model.APIKeyEnv)
	v.Set("search.engine", cfg.Search.Engine)
	if cfg.Search.SearxngURL != "" {
		v.Set("search.searxng_url", cfg.Search.SearxngURL)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
