package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wnxii/scam-slayer-hackrift-2024/config"
	"github.com/wnxii/scam-slayer-hackrift-2024/inference"
	"github.com/wnxii/scam-slayer-hackrift-2024/modelstore"
)

// writeTranscripts writes n rows alternating between scam and legitimate
// calls. The last row carries a label outside both known sets.
func writeTranscripts(t *testing.T, path string, n int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("CONVERSATION_ID,TEXT,LABEL\n")
	for i := 0; i < n; i++ {
		text, lbl := `"Hello, this is the clinic confirming your appointment."`, "neutral"
		if i%2 == 1 {
			text, lbl = `"We have your parcel, pay the customs fee in gift cards now."`, `"scam"`
		}
		if i == n-1 {
			lbl = "maybe"
		}
		fmt.Fprintf(&b, "%d,%s,%s\n", i, text, lbl)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Dataset.Path = filepath.Join(dir, "call_scam_transcripts.csv")
	cfg.Tokenizer.VocabSize = 101
	cfg.Tokenizer.MaxLength = 32
	cfg.Model.Dim = 8
	cfg.Training.OutputDir = filepath.Join(dir, "results")
	cfg.Training.Epochs = 1
	cfg.Training.Threads = 2
	return cfg
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeTranscripts(t, cfg.Dataset.Path, 20)

	core, logs := observer.New(zapcore.InfoLevel)
	require.NoError(t, run(context.Background(), cfg, zap.New(core)))

	t.Run("writes the model store", func(t *testing.T) {
		assert.Equal(t, filepath.Join(dir, "results", "scamcall"), cfg.ModelDir())
		assert.True(t, modelstore.Exists(cfg.ModelDir()))
	})

	t.Run("splits 90/10", func(t *testing.T) {
		entries := logs.FilterMessage("Prepared splits").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(18), fields["train"])
		assert.Equal(t, int64(2), fields["eval"])
	})

	t.Run("warns about unknown labels", func(t *testing.T) {
		entries := logs.FilterMessage("Unknown label, defaulting to not_scam").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "maybe", entries[0].ContextMap()["label"])
	})

	t.Run("evaluates every epoch", func(t *testing.T) {
		entries := logs.FilterMessage("Epoch finished").All()
		require.Len(t, entries, cfg.Training.Epochs)
		assert.Contains(t, entries[0].ContextMap(), "eval_loss")
		assert.Contains(t, entries[0].ContextMap(), "eval_accuracy")
	})

	t.Run("inference reads the store back", func(t *testing.T) {
		session, err := inference.Open(cfg.StoreDir())
		require.NoError(t, err)
		defer session.Close()

		r, err := session.Predict("We have ")
		require.NoError(t, err)
		assert.True(t, r.Class.Valid())
		assert.GreaterOrEqual(t, r.Confidence, 0.5)
		assert.InDelta(t, 1.0, r.Probabilities[0]+r.Probabilities[1], 1e-9)
	})
}

func TestRunEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("SCAMCALL_TRAINING__EPOCHS", "2")
	t.Setenv("SCAMCALL_TOKENIZER__VOCAB_SIZE", "101")
	t.Setenv("SCAMCALL_MODEL__DIM", "4")

	cfg, err := config.Load("")
	require.NoError(t, err)
	writeTranscripts(t, cfg.Dataset.Path, 10)

	core, logs := observer.New(zapcore.InfoLevel)
	require.NoError(t, run(context.Background(), cfg, zap.New(core)))
	assert.Equal(t, 2, logs.FilterMessage("Epoch finished").Len())
	assert.True(t, modelstore.Exists(filepath.Join("results", "scamcall")))
}

func TestRunMissingDataset(t *testing.T) {
	cfg := testConfig(t.TempDir())

	err := run(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "failed to load dataset")
	assert.False(t, modelstore.Exists(cfg.ModelDir()))
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	writeTranscripts(t, cfg.Dataset.Path, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, cfg, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, modelstore.Exists(cfg.ModelDir()))
}
