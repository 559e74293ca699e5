// Package learning implements the optimizer and the training arguments of the classifier.
package learning

import (
	"errors"
	"math"
)

// EvalStrategy decides when the trainer evaluates the eval split.
type EvalStrategy string

const (
	EvalNo    EvalStrategy = "no"    // never evaluate
	EvalEpoch EvalStrategy = "epoch" // evaluate after every epoch
)

// TrainingArguments configure a training run.
type TrainingArguments struct {
	OutputDir string // where the trained model store is written

	TrainBatchSize int // samples per optimizer step
	EvalBatchSize  int // samples per evaluation chunk
	Epochs         int

	LearningRate float64 // peak rate, decayed linearly to zero
	WeightDecay  float64 // decoupled, not applied to bias
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	EvalStrategy EvalStrategy

	Seed    int64 // shuffling and initialization
	Threads int   // gradient workers, 0 picks the physical core count
}

// DefaultTrainingArguments returns the fine-tuning defaults.
func DefaultTrainingArguments() TrainingArguments {
	return TrainingArguments{
		OutputDir:      "./results",
		TrainBatchSize: 8,
		EvalBatchSize:  8,
		Epochs:         3,
		LearningRate:   5e-3,
		WeightDecay:    0.01,
		Beta1:          0.9,
		Beta2:          0.999,
		Epsilon:        1e-8,
		EvalStrategy:   EvalEpoch,
		Seed:           42,
	}
}

// Validate checks the arguments.
func (a TrainingArguments) Validate() error {
	switch {
	case a.TrainBatchSize <= 0 || a.EvalBatchSize <= 0:
		return errors.New("batch sizes must be positive")
	case a.Epochs <= 0:
		return errors.New("epochs must be positive")
	case a.LearningRate <= 0 || math.IsNaN(a.LearningRate):
		return errors.New("learning rate must be positive")
	case a.WeightDecay < 0:
		return errors.New("weight decay must not be negative")
	case a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1:
		return errors.New("adam betas must be in [0, 1)")
	case a.EvalStrategy != EvalNo && a.EvalStrategy != EvalEpoch:
		return errors.New("eval strategy must be \"no\" or \"epoch\"")
	}
	return nil
}

// LinearSchedule returns the learning rate for step (0 based) out of total.
func (a TrainingArguments) LinearSchedule(step, total int) float64 {
	if total <= 0 {
		return a.LearningRate
	}
	remaining := float64(total-step) / float64(total)
	if remaining < 0 {
		remaining = 0
	}
	return a.LearningRate * remaining
}
