// Package modelstore persists a trained classifier and its tokenizer as a
// directory holding config.json, tokenizer.json and model.json.zlib.
package modelstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// File names inside a model store directory.
const (
	ConfigFile    = "config.json"
	TokenizerFile = "tokenizer.json"
	WeightsFile   = "model.json.zlib"
)

// ErrNotFound is returned when dir does not hold a model store.
var ErrNotFound = errors.New("model store not found")

// Artifact is a loaded model store.
type Artifact struct {
	Tokenizer *tokenizer.Tokenizer
	Model     *classifier.Model
}

// Save writes tok and m into dir, creating it if needed.
func Save(dir string, tok *tokenizer.Tokenizer, m *classifier.Model) error {
	if tok.VocabSize() != m.Config.VocabSize {
		return fmt.Errorf("tokenizer vocab %d does not match model vocab %d", tok.VocabSize(), m.Config.VocabSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, TokenizerFile), tok.WriteConfig); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, ConfigFile), m.WriteConfig); err != nil {
		return err
	}
	return m.WriteZlibWeightsToFile(filepath.Join(dir, WeightsFile))
}

func writeFile(name string, write func(w io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Load reads the model store in dir. A missing directory or file yields an
// error wrapping ErrNotFound; corrupt files yield the decode error.
func Load(dir string) (*Artifact, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	var tok *tokenizer.Tokenizer
	err = readFile(filepath.Join(dir, TokenizerFile), func(r io.Reader) (err error) {
		tok, err = tokenizer.ReadConfig(r)
		return
	})
	if err != nil {
		return nil, err
	}

	var cfg classifier.Config
	err = readFile(filepath.Join(dir, ConfigFile), func(r io.Reader) (err error) {
		cfg, err = classifier.ReadConfig(r)
		return
	})
	if err != nil {
		return nil, err
	}
	if cfg.VocabSize != tok.VocabSize() {
		return nil, fmt.Errorf("%s: model vocab %d does not match tokenizer vocab %d", dir, cfg.VocabSize, tok.VocabSize())
	}

	m, err := classifier.Empty(cfg)
	if err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, WeightsFile), m.ReadZlibWeights); err != nil {
		return nil, err
	}
	return &Artifact{Tokenizer: tok, Model: m}, nil
}

// Exists reports whether dir looks like a model store.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFile, TokenizerFile, WeightsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func readFile(name string, read func(r io.Reader) error) error {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return err
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
