package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wnxii/scam-slayer-hackrift-2024/config"
	"github.com/wnxii/scam-slayer-hackrift-2024/inference"
	"github.com/wnxii/scam-slayer-hackrift-2024/logger"
	"github.com/wnxii/scam-slayer-hackrift-2024/modelstore"
)

const exampleText = "We have "

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	dir := cfg.StoreDir()
	if !modelstore.Exists(dir) {
		return fmt.Errorf("no trained model in %s, run train_scam first: %w", dir, modelstore.ErrNotFound)
	}
	session, err := inference.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer session.Close()

	return predict(out, session, exampleText, cfg.Inference.Profile, log)
}

func predict(out io.Writer, session *inference.Session, text, profile string, log *zap.Logger) error {
	fmt.Fprintln(out, "Starting prediction...")
	var result inference.Result
	err := profiled(profile, log, func() (err error) {
		result, err = session.Predict(text)
		return
	})
	if err != nil {
		return err
	}
	printResult(out, text, result)
	return nil
}

func printResult(out io.Writer, text string, r inference.Result) {
	fmt.Fprintf(out, "Text: %s\n", text)
	fmt.Fprintf(out, "Predicted class: %s\n", r.Class)
	fmt.Fprintf(out, "Confidence: %.2f%%\n", r.Confidence*100)
}
