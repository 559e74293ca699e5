package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnxii/scam-slayer-hackrift-2024/learning"
)

func TestLoad(t *testing.T) {
	t.Run("loads default configuration", func(t *testing.T) {
		chdir(t, t.TempDir())
		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "call_scam_transcripts.csv", cfg.Dataset.Path)
		assert.Equal(t, "CONVERSATION_ID", cfg.Dataset.IDColumn)
		assert.Equal(t, 0.1, cfg.Dataset.TestSize)
		assert.Equal(t, 128, cfg.Tokenizer.MaxLength)
		assert.Equal(t, "./results", cfg.Training.OutputDir)
		assert.Equal(t, 8, cfg.Training.BatchSize)
		assert.Equal(t, 3, cfg.Training.Epochs)
		assert.Equal(t, 0.01, cfg.Training.WeightDecay)
		assert.Equal(t, "epoch", cfg.Training.EvalStrategy)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, filepath.Join("results", "scamcall"), cfg.StoreDir())
	})

	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("training:\n  epochs: 5\nmodel:\n  store: /models/scam\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Training.Epochs)
		assert.Equal(t, 8, cfg.Training.BatchSize, "unset keys keep their default")
		assert.Equal(t, "/models/scam", cfg.StoreDir())
	})

	t.Run("reads from environment variables", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("SCAMCALL_TRAINING__BATCH_SIZE", "16")
		t.Setenv("SCAMCALL_SERVER__PORT", "9090")
		t.Setenv("SCAMCALL_LOG__LEVEL", "debug")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.Training.BatchSize)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestConversions(t *testing.T) {
	cfg := Default()
	args := cfg.TrainingArguments()
	require.NoError(t, args.Validate())
	assert.Equal(t, learning.DefaultTrainingArguments(), args)

	tok := cfg.TokenizerConfig()
	assert.Equal(t, 128, tok.MaxLength)
	assert.True(t, tok.Lowercase)
}

func TestExampleFileMatchesDefaults(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("..", "config.example.yaml"))
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
