package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_MatchSpecValues(t *testing.T) {
	d := Defaults()
	assert.Equal(t, ".podtext/downloads/", d.Storage.MediaDir)
	assert.Equal(t, ".podtext/output/", d.Storage.OutputDir)
	assert.False(t, d.Storage.TempStorage)
	assert.Equal(t, "base", d.Whisper.Model)
	assert.Equal(t, "claude-sonnet-4-5", d.Analysis.ClaudeModel)
	assert.InDelta(t, 0.9, d.Analysis.AdConfidenceThreshold, 0.0001)
	assert.Equal(t, 10, d.Defaults.SearchLimit)
	assert.Equal(t, 10, d.Defaults.EpisodeLimit)
}

func TestMergeInto_ZeroValuesDoNotOverride(t *testing.T) {
	base := Defaults()
	base.Whisper.Model = "medium"

	override := Config{} // everything zero: "not set in this file"
	merged := mergeInto(base, override)

	assert.Equal(t, "medium", merged.Whisper.Model)
}

func TestMergeInto_NonZeroValuesOverride(t *testing.T) {
	base := Defaults()
	override := Config{Whisper: WhisperSection{Model: "large"}}
	merged := mergeInto(base, override)
	assert.Equal(t, "large", merged.Whisper.Model)
}

func TestExpandPath_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got := ExpandPath("~/podcasts")
	assert.Equal(t, filepath.Join(home, "podcasts"), got)
}

func TestExpandPath_Empty(t *testing.T) {
	assert.Equal(t, "", ExpandPath(""))
}

func TestLoad_LocalFileOverridesGlobalAndDefault(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	tmpWork := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(oldWd)
	require.NoError(t, os.Chdir(tmpWork))

	require.NoError(t, os.MkdirAll(".podtext", 0o755))
	localContent := []byte("[whisper]\nmodel = \"large\"\n")
	require.NoError(t, os.WriteFile(LocalConfigPath, localContent, 0o644))

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "large", cfg.Whisper.Model)
	// Untouched fields still carry the built-in default.
	assert.Equal(t, "claude-sonnet-4-5", cfg.Analysis.ClaudeModel)
}

func TestLoad_BootstrapsGlobalFileOnFirstRun(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	tmpWork := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(oldWd)
	require.NoError(t, os.Chdir(tmpWork))

	_, err = Load(Overrides{})
	require.NoError(t, err)

	globalPath := filepath.Join(tmpHome, ".podtext", "config")
	_, statErr := os.Stat(globalPath)
	assert.NoError(t, statErr)
}

func TestLoad_FlagOverrideWinsOverEverything(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	tmpWork := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(oldWd)
	require.NoError(t, os.Chdir(tmpWork))

	require.NoError(t, os.MkdirAll(".podtext", 0o755))
	require.NoError(t, os.WriteFile(LocalConfigPath, []byte("[whisper]\nmodel = \"large\"\n"), 0o644))

	flagModel := "tiny"
	cfg, err := Load(Overrides{WhisperModel: &flagModel})
	require.NoError(t, err)
	assert.Equal(t, "tiny", cfg.Whisper.Model)
}

func TestLoad_EnvAnthropicKeyApplied(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")

	tmpWork := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(oldWd)
	require.NoError(t, os.Chdir(tmpWork))

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.API.AnthropicKey)
}
