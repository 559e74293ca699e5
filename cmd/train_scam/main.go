package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wnxii/scam-slayer-hackrift-2024/config"
	"github.com/wnxii/scam-slayer-hackrift-2024/datasets"
	"github.com/wnxii/scam-slayer-hackrift-2024/datasets/callscam"
	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/logger"
	"github.com/wnxii/scam-slayer-hackrift-2024/modelstore"
	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/parallel"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
	"github.com/wnxii/scam-slayer-hackrift-2024/trainer"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run trains a model as configured by cfg and saves it to cfg.ModelDir().
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	cpu := parallel.DescribeCPU()
	log.Info("Host",
		zap.String("cpu", cpu.Brand),
		zap.Int("physical_cores", cpu.PhysicalCores),
		zap.Int("logical_cores", cpu.LogicalCores),
		zap.Bool("avx2", cpu.AVX2),
	)

	records, err := callscam.LoadFile(cfg.Dataset.Path, callscam.Columns{
		ID:    cfg.Dataset.IDColumn,
		Text:  cfg.Dataset.TextColumn,
		Label: cfg.Dataset.LabelColumn,
	})
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	log.Info("Loaded dataset", zap.String("path", cfg.Dataset.Path), zap.Int("rows", len(records)))

	trainIdx, evalIdx, err := datasets.Split(len(records), cfg.Dataset.TestSize, cfg.Training.Seed)
	if err != nil {
		return fmt.Errorf("failed to split dataset: %w", err)
	}

	tok, model, err := trainer.Resume(cfg.Model.Base, log, func() (*tokenizer.Tokenizer, *classifier.Model, error) {
		tok, err := tokenizer.New(cfg.TokenizerConfig())
		if err != nil {
			return nil, nil, err
		}
		mcfg := classifier.DefaultConfig(tok.VocabSize())
		mcfg.Dim = cfg.Model.Dim
		model, err := classifier.New(mcfg, cfg.Training.Seed)
		return tok, model, err
	})
	if err != nil {
		return fmt.Errorf("failed to initialize model: %w", err)
	}

	samples := callscam.Encode(records, tok, label.NewNormalizer(log))
	train := datasets.Subset(samples, trainIdx)
	eval := datasets.Subset(samples, evalIdx)
	counts := datasets.ClassCounts(train)
	log.Info("Prepared splits",
		zap.Int("train", train.Len()),
		zap.Int("eval", eval.Len()),
		zap.Int("train_not_scam", counts[label.NotScam]),
		zap.Int("train_scam", counts[label.Scam]),
	)

	tr, err := trainer.New(model, cfg.TrainingArguments(), train, eval, log)
	if err != nil {
		return fmt.Errorf("failed to create trainer: %w", err)
	}
	if _, err := tr.Train(ctx); err != nil {
		return fmt.Errorf("training stopped: %w", err)
	}

	dir := cfg.ModelDir()
	if err := modelstore.Save(dir, tok, model); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	log.Info("Saved model", zap.String("path", dir))
	return nil
}
