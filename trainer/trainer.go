package trainer

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wnxii/scam-slayer-hackrift-2024/datasets"
	"github.com/wnxii/scam-slayer-hackrift-2024/learning"
	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/parallel"
)

// ErrEmptyDataset is returned when there is nothing to train on.
var ErrEmptyDataset = errors.New("empty training dataset")

// EpochReport is logged and returned for every finished epoch.
type EpochReport struct {
	Epoch        int      `json:"epoch"`
	Steps        int      `json:"steps"`
	TrainLoss    float64  `json:"train_loss"`
	LearningRate float64  `json:"learning_rate"`
	Eval         *Metrics `json:"eval,omitempty"`
}

// Report is the outcome of Train.
type Report struct {
	Epochs []EpochReport `json:"epochs"`
	Steps  int           `json:"steps"`
}

// Trainer runs the optimization of one model.
type Trainer struct {
	model *classifier.Model
	args  learning.TrainingArguments
	train datasets.Dataslice
	eval  datasets.Dataslice
	log   *zap.Logger
	opt   *learning.AdamW
}

// New creates a trainer. eval may be nil.
func New(model *classifier.Model, args learning.TrainingArguments, train, eval datasets.Dataslice, log *zap.Logger) (*Trainer, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	if train == nil || train.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if log == nil {
		log = zap.NewNop()
	}
	args.Threads = parallel.Threads(args.Threads)
	return &Trainer{
		model: model,
		args:  args,
		train: train,
		eval:  eval,
		log:   log,
		opt:   learning.NewAdamW(model, args),
	}, nil
}

// Model returns the model being trained.
func (t *Trainer) Model() *classifier.Model {
	return t.model
}

// Evaluate runs Evaluate on the eval dataset.
func (t *Trainer) Evaluate() Metrics {
	if t.eval == nil {
		return Metrics{}
	}
	return Evaluate(t.model, t.eval, t.args.EvalBatchSize, t.args.Threads)
}

// Train runs all epochs. Cancelling ctx stops training between steps and
// returns the epochs finished so far together with ctx.Err().
func (t *Trainer) Train(ctx context.Context) (*Report, error) {
	n := t.train.Len()
	batch := t.args.TrainBatchSize
	stepsPerEpoch := (n + batch - 1) / batch
	total := stepsPerEpoch * t.args.Epochs
	rng := rand.New(rand.NewSource(t.args.Seed))

	t.log.Info("Starting training",
		zap.Int("samples", n),
		zap.Int("epochs", t.args.Epochs),
		zap.Int("batch_size", batch),
		zap.Int("total_steps", total),
		zap.Int("threads", t.args.Threads),
	)

	report := &Report{}
	grads := make([]*classifier.Gradients, batch)
	for epoch := 1; epoch <= t.args.Epochs; epoch++ {
		started := time.Now()
		perm := rng.Perm(n)
		var lossSum float64
		var lr float64

		for s := 0; s < stepsPerEpoch; s++ {
			if err := ctx.Err(); err != nil {
				report.Steps = t.opt.Steps()
				return report, err
			}
			idx := perm[s*batch : min((s+1)*batch, n)]
			parallel.ForEach(len(idx), t.args.Threads, func(i int) {
				sample := t.train.Get(idx[i])
				g := t.model.NewGradients()
				t.model.Backward(sample.Encoding, sample.Label, g)
				grads[i] = g
			})
			sum := t.model.NewGradients()
			for i := range idx {
				sum.Add(grads[i])
				grads[i] = nil
			}
			lossSum += sum.Loss
			sum.Mean()

			lr = t.args.LinearSchedule(t.opt.Steps(), total)
			t.opt.Step(t.model, sum, lr)
			t.log.Debug("Step",
				zap.Int("step", t.opt.Steps()),
				zap.Float64("loss", sum.Loss/float64(sum.Samples)),
				zap.Float64("learning_rate", lr),
			)
		}

		er := EpochReport{
			Epoch:        epoch,
			Steps:        t.opt.Steps(),
			TrainLoss:    lossSum / float64(n),
			LearningRate: lr,
		}
		fields := []zap.Field{
			zap.Int("epoch", epoch),
			zap.Float64("train_loss", er.TrainLoss),
			zap.Duration("elapsed", time.Since(started)),
		}
		if t.args.EvalStrategy == learning.EvalEpoch && t.eval != nil && t.eval.Len() > 0 {
			m := t.Evaluate()
			er.Eval = &m
			fields = append(fields,
				zap.Float64("eval_loss", m.Loss),
				zap.Float64("eval_accuracy", m.Accuracy),
			)
		}
		t.log.Info("Epoch finished", fields...)
		report.Epochs = append(report.Epochs, er)
	}
	report.Steps = t.opt.Steps()
	return report, nil
}
