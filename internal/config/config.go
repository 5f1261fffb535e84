// Package config loads podtext's TOML configuration with the documented
// precedence: command-line flag > environment variable > local config
// file (./.podtext/config) > global config file ($HOME/.podtext/config) >
// built-in default.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LocalConfigPath is the project-local config file path.
const LocalConfigPath = "./.podtext/config"

// Config mirrors podtext's TOML configuration schema.
type Config struct {
	API      APISection      `toml:"api"`
	Storage  StorageSection  `toml:"storage"`
	Whisper  WhisperSection  `toml:"whisper"`
	Analysis AnalysisSection `toml:"analysis"`
	Defaults DefaultsSection `toml:"defaults"`
}

type APISection struct {
	AnthropicKey string `toml:"anthropic_key"`
}

type StorageSection struct {
	MediaDir    string `toml:"media_dir"`
	OutputDir   string `toml:"output_dir"`
	TempStorage bool   `toml:"temp_storage"`
}

type WhisperSection struct {
	Model string `toml:"model"`
}

type AnalysisSection struct {
	ClaudeModel           string  `toml:"claude_model"`
	AdConfidenceThreshold float64 `toml:"ad_confidence_threshold"`
}

type DefaultsSection struct {
	SearchLimit  int `toml:"search_limit"`
	EpisodeLimit int `toml:"episode_limit"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Storage: StorageSection{
			MediaDir:    ".podtext/downloads/",
			OutputDir:   ".podtext/output/",
			TempStorage: false,
		},
		Whisper: WhisperSection{
			Model: "base",
		},
		Analysis: AnalysisSection{
			ClaudeModel:           "claude-sonnet-4-5",
			AdConfidenceThreshold: 0.9,
		},
		Defaults: DefaultsSection{
			SearchLimit:  10,
			EpisodeLimit: 10,
		},
	}
}

// GlobalConfigPath returns $HOME/.podtext/config.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".podtext", "config"), nil
}

// ExpandPath expands a leading ~ and $VARS in a configured path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}

// Overrides carries the values a caller (the CLI flag layer) may supply to
// take precedence over every file-based source.
type Overrides struct {
	AnthropicKey *string
	MediaDir     *string
	OutputDir    *string
	WhisperModel *string
}

// Load resolves configuration with precedence: flag overrides > env >
// local file > global file > default. The global file is created
// populated with defaults on first run.
func Load(overrides Overrides) (Config, error) {
	cfg := Defaults()

	globalPath, err := GlobalConfigPath()
	if err == nil {
		if bootErr := bootstrapGlobalIfMissing(globalPath, cfg); bootErr != nil {
			return cfg, bootErr
		}
		if fileCfg, readErr := readTOML(globalPath); readErr == nil {
			cfg = mergeInto(cfg, fileCfg)
		}
	}

	if fileCfg, err := readTOML(LocalConfigPath); err == nil {
		cfg = mergeInto(cfg, fileCfg)
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.API.AnthropicKey = v
	}

	if overrides.AnthropicKey != nil {
		cfg.API.AnthropicKey = *overrides.AnthropicKey
	}
	if overrides.MediaDir != nil {
		cfg.Storage.MediaDir = *overrides.MediaDir
	}
	if overrides.OutputDir != nil {
		cfg.Storage.OutputDir = *overrides.OutputDir
	}
	if overrides.WhisperModel != nil {
		cfg.Whisper.Model = *overrides.WhisperModel
	}

	cfg.Storage.MediaDir = ExpandPath(cfg.Storage.MediaDir)
	cfg.Storage.OutputDir = ExpandPath(cfg.Storage.OutputDir)

	return cfg, nil
}

func readTOML(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mergeInto overlays non-zero fields from override onto base. Zero-value
// fields in override are treated as "not set in this file" rather than
// "explicitly reset to zero".
func mergeInto(base, override Config) Config {
	if override.API.AnthropicKey != "" {
		base.API.AnthropicKey = override.API.AnthropicKey
	}
	if override.Storage.MediaDir != "" {
		base.Storage.MediaDir = override.Storage.MediaDir
	}
	if override.Storage.OutputDir != "" {
		base.Storage.OutputDir = override.Storage.OutputDir
	}
	base.Storage.TempStorage = override.Storage.TempStorage || base.Storage.TempStorage
	if override.Whisper.Model != "" {
		base.Whisper.Model = override.Whisper.Model
	}
	if override.Analysis.ClaudeModel != "" {
		base.Analysis.ClaudeModel = override.Analysis.ClaudeModel
	}
	if override.Analysis.AdConfidenceThreshold != 0 {
		base.Analysis.AdConfidenceThreshold = override.Analysis.AdConfidenceThreshold
	}
	if override.Defaults.SearchLimit != 0 {
		base.Defaults.SearchLimit = override.Defaults.SearchLimit
	}
	if override.Defaults.EpisodeLimit != 0 {
		base.Defaults.EpisodeLimit = override.Defaults.EpisodeLimit
	}
	return base
}

func bootstrapGlobalIfMissing(path string, defaults Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := toml.Marshal(defaults)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
