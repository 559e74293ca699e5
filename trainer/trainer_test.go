package trainer

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wnxii/scam-slayer-hackrift-2024/datasets"
	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/learning"
	"github.com/wnxii/scam-slayer-hackrift-2024/modelstore"
	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

var (
	scamWords  = []string{"gift", "card", "transfer", "urgent", "police", "arrest", "bitcoin", "fine"}
	legitWords = []string{"hello", "thanks", "lunch", "meeting", "weekend", "family", "dinner", "movie"}
)

func toyDataset(tok *tokenizer.Tokenizer, n int, seed int64) datasets.Samples {
	rng := rand.New(rand.NewSource(seed))
	out := make(datasets.Samples, 0, 2*n)
	for i := 0; i < n; i++ {
		for l, words := range [][]string{legitWords, scamWords} {
			var text []string
			for j := 0; j < 4; j++ {
				text = append(text, words[rng.Intn(len(words))])
			}
			out = append(out, datasets.Sample{
				Encoding: tok.Encode(strings.Join(text, " ")),
				Label:    label.Label(l),
			})
		}
	}
	return out
}

func fixture(t *testing.T) (*tokenizer.Tokenizer, *classifier.Model) {
	t.Helper()
	tcfg := tokenizer.DefaultConfig()
	tcfg.VocabSize = 1009
	tok, err := tokenizer.New(tcfg)
	require.NoError(t, err)
	mcfg := classifier.DefaultConfig(tok.VocabSize())
	mcfg.Dim = 16
	m, err := classifier.New(mcfg, 42)
	require.NoError(t, err)
	return tok, m
}

func toyArgs() learning.TrainingArguments {
	args := learning.DefaultTrainingArguments()
	args.Epochs = 10
	args.LearningRate = 0.05
	args.Threads = 4
	return args
}

func TestTrain(t *testing.T) {
	tok, m := fixture(t)
	train := toyDataset(tok, 40, 1)
	eval := toyDataset(tok, 10, 2)

	tr, err := New(m, toyArgs(), train, eval, zap.NewNop())
	require.NoError(t, err)

	before := tr.Evaluate()
	report, err := tr.Train(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Epochs, 10)
	assert.Equal(t, 10*10, report.Steps)
	first, last := report.Epochs[0], report.Epochs[len(report.Epochs)-1]
	assert.Less(t, last.TrainLoss, first.TrainLoss)
	require.NotNil(t, last.Eval)
	assert.Less(t, last.Eval.Loss, before.Loss)
	assert.GreaterOrEqual(t, last.Eval.Accuracy, 0.9)
	assert.Equal(t, 20, last.Eval.Samples)
}

func TestTrainDeterministic(t *testing.T) {
	run := func() *classifier.Model {
		tok, m := fixture(t)
		args := toyArgs()
		args.Epochs = 2
		tr, err := New(m, args, toyDataset(tok, 12, 3), nil, nil)
		require.NoError(t, err)
		_, err = tr.Train(context.Background())
		require.NoError(t, err)
		return tr.Model()
	}
	a, b := run(), run()
	assert.Equal(t, a.Weight, b.Weight)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestTrainNoEval(t *testing.T) {
	tok, m := fixture(t)
	args := toyArgs()
	args.Epochs = 1
	args.EvalStrategy = learning.EvalNo
	tr, err := New(m, args, toyDataset(tok, 5, 1), toyDataset(tok, 2, 2), nil)
	require.NoError(t, err)

	report, err := tr.Train(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Epochs, 1)
	assert.Nil(t, report.Epochs[0].Eval)
	assert.Equal(t, 2, report.Steps, "10 samples in batches of 8")
}

func TestTrainCancelled(t *testing.T) {
	tok, m := fixture(t)
	tr, err := New(m, toyArgs(), toyDataset(tok, 5, 1), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := tr.Train(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Epochs)
}

func TestNewErrors(t *testing.T) {
	tok, m := fixture(t)
	_, err := New(m, toyArgs(), datasets.Samples{}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	args := toyArgs()
	args.Epochs = 0
	_, err = New(m, args, toyDataset(tok, 1, 1), nil, nil)
	assert.Error(t, err)
}

func TestEvaluateEmpty(t *testing.T) {
	_, m := fixture(t)
	assert.Equal(t, Metrics{}, Evaluate(m, datasets.Samples{}, 8, 2))
}

func TestResume(t *testing.T) {
	tok, m := fixture(t)
	init := func() (*tokenizer.Tokenizer, *classifier.Model, error) { return tok, m, nil }

	t.Run("fresh", func(t *testing.T) {
		gotTok, gotModel, err := Resume("", zap.NewNop(), init)
		require.NoError(t, err)
		assert.Same(t, tok, gotTok)
		assert.Same(t, m, gotModel)
	})

	t.Run("missing base", func(t *testing.T) {
		_, _, err := Resume(filepath.Join(t.TempDir(), "base"), zap.NewNop(), init)
		assert.ErrorIs(t, err, modelstore.ErrNotFound)
	})

	t.Run("saved base", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, modelstore.Save(dir, tok, m))
		gotTok, gotModel, err := Resume(dir, zap.NewNop(), init)
		require.NoError(t, err)
		assert.Equal(t, tok.Config(), gotTok.Config())
		assert.Equal(t, m.Weight, gotModel.Weight)
	})
}
