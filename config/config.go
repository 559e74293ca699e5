// Package config loads the training, inference and server settings from
// built-in defaults, an optional YAML file and SCAMCALL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wnxii/scam-slayer-hackrift-2024/learning"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// EnvPrefix prefixes every environment override. Nested keys are separated by
// a double underscore, e.g. SCAMCALL_TRAINING__BATCH_SIZE.
const EnvPrefix = "SCAMCALL_"

// DefaultFile is read when present in the working directory.
const DefaultFile = "config.yaml"

// Config is the complete configuration shared by the commands.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Tokenizer TokenizerConfig `koanf:"tokenizer"`
	Model     ModelConfig     `koanf:"model"`
	Training  TrainingConfig  `koanf:"training"`
	Inference InferenceConfig `koanf:"inference"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
}

// DatasetConfig locates the labeled transcripts and their columns.
type DatasetConfig struct {
	Path        string  `koanf:"path"`
	IDColumn    string  `koanf:"id_column"`
	TextColumn  string  `koanf:"text_column"`
	LabelColumn string  `koanf:"label_column"`
	TestSize    float64 `koanf:"test_size"`
}

// TokenizerConfig is converted by (*Config).TokenizerConfig.
type TokenizerConfig struct {
	MaxLength int    `koanf:"max_length"`
	VocabSize uint32 `koanf:"vocab_size"`
	Lowercase bool   `koanf:"lowercase"`
	Salt      uint32 `koanf:"salt"`
}

// ModelConfig names the model store and sizes a fresh classifier.
type ModelConfig struct {
	Name  string `koanf:"name"`
	Dim   int    `koanf:"dim"`
	Base  string `koanf:"base"`  // model store to fine-tune from, empty trains from scratch
	Store string `koanf:"store"` // model store to infer with, empty means output_dir/name
}

// TrainingConfig is converted by (*Config).TrainingArguments.
type TrainingConfig struct {
	OutputDir     string  `koanf:"output_dir"`
	BatchSize     int     `koanf:"batch_size"`
	EvalBatchSize int     `koanf:"eval_batch_size"`
	Epochs        int     `koanf:"epochs"`
	LearningRate  float64 `koanf:"learning_rate"`
	WeightDecay   float64 `koanf:"weight_decay"`
	EvalStrategy  string  `koanf:"eval_strategy"`
	Seed          int64   `koanf:"seed"`
	Threads       int     `koanf:"threads"`
}

// InferenceConfig tunes cmd/infer_scam.
type InferenceConfig struct {
	Profile string `koanf:"profile"` // heap profile written after the prediction, empty disables
}

// ServerConfig is the HTTP listener of cmd/serve_scam.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	Mode string `koanf:"mode"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	args := learning.DefaultTrainingArguments()
	tok := tokenizer.DefaultConfig()
	return &Config{
		Dataset: DatasetConfig{
			Path:        "call_scam_transcripts.csv",
			IDColumn:    "CONVERSATION_ID",
			TextColumn:  "TEXT",
			LabelColumn: "LABEL",
			TestSize:    0.1,
		},
		Tokenizer: TokenizerConfig{
			MaxLength: tok.MaxLength,
			VocabSize: tok.VocabSize,
			Lowercase: tok.Lowercase,
		},
		Model: ModelConfig{
			Name: "scamcall",
			Dim:  64,
		},
		Training: TrainingConfig{
			OutputDir:     args.OutputDir,
			BatchSize:     args.TrainBatchSize,
			EvalBatchSize: args.EvalBatchSize,
			Epochs:        args.Epochs,
			LearningRate:  args.LearningRate,
			WeightDecay:   args.WeightDecay,
			EvalStrategy:  string(args.EvalStrategy),
			Seed:          args.Seed,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, when it
// exists, and then with the environment. An empty path uses SCAMCALL_CONFIG
// or DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ModelDir is the model store the trainer writes.
func (c *Config) ModelDir() string {
	return filepath.Join(c.Training.OutputDir, c.Model.Name)
}

// StoreDir is the model store inference reads.
func (c *Config) StoreDir() string {
	if c.Model.Store != "" {
		return c.Model.Store
	}
	return c.ModelDir()
}

// TrainingArguments converts the training section.
func (c *Config) TrainingArguments() learning.TrainingArguments {
	args := learning.DefaultTrainingArguments()
	args.OutputDir = c.Training.OutputDir
	args.TrainBatchSize = c.Training.BatchSize
	args.EvalBatchSize = c.Training.EvalBatchSize
	args.Epochs = c.Training.Epochs
	args.LearningRate = c.Training.LearningRate
	args.WeightDecay = c.Training.WeightDecay
	args.EvalStrategy = learning.EvalStrategy(c.Training.EvalStrategy)
	args.Seed = c.Training.Seed
	args.Threads = c.Training.Threads
	return args
}

// TokenizerConfig converts the tokenizer section.
func (c *Config) TokenizerConfig() tokenizer.Config {
	return tokenizer.Config{
		MaxLength: c.Tokenizer.MaxLength,
		VocabSize: c.Tokenizer.VocabSize,
		Lowercase: c.Tokenizer.Lowercase,
		Salt:      c.Tokenizer.Salt,
	}
}
