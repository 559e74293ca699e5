package classifier

import (
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type weights struct {
	Embeddings []float32 `json:"embeddings"`
	Weight     []float32 `json:"weight"`
	Bias       []float32 `json:"bias"`
}

// WriteConfig writes the model config as JSON.
func (m *Model) WriteConfig(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m.Config)
}

// ReadConfig reads a config written by WriteConfig.
func ReadConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode model config: %w", err)
	}
	return cfg, cfg.Validate()
}

// WriteZlibWeightsToFile writes model weights to a zlib compressed json file
func (m *Model) WriteZlibWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = m.WriteZlibWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteZlibWeights writes model weights to a writer
func (m *Model) WriteZlibWeights(w io.Writer) error {
	zw := zlib.NewWriter(w)
	err := json.NewEncoder(zw).Encode(weights{
		Embeddings: m.Embeddings,
		Weight:     m.Weight,
		Bias:       m.Bias,
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadZlibWeightsFromFile reads model weights from a zlib compressed json file
func (m *Model) ReadZlibWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return m.ReadZlibWeights(file)
}

// ReadZlibWeights reads model weights from a reader. The weights must match
// the shape of m.Config.
func (m *Model) ReadZlibWeights(r io.Reader) error {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	var w weights
	if err := json.NewDecoder(zr).Decode(&w); err != nil {
		return fmt.Errorf("decode weights: %w", err)
	}
	cfg := m.Config
	if len(w.Embeddings) != int(cfg.VocabSize)*cfg.Dim ||
		len(w.Weight) != cfg.NumLabels*cfg.Dim ||
		len(w.Bias) != cfg.NumLabels {
		return fmt.Errorf("weights shape does not match config (dim %d, vocab %d)", cfg.Dim, cfg.VocabSize)
	}
	m.Embeddings, m.Weight, m.Bias = w.Embeddings, w.Weight, w.Bias
	return nil
}

// Empty returns a model with the given config and no weights, ready for
// ReadZlibWeights.
func Empty(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{Config: cfg}, nil
}
