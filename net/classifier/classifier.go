// Package classifier implements a two label sequence classifier: a hashed token
// embedding table, mean pooling over attended positions and a linear head.
package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// Config describes the model shape and is persisted as config.json.
type Config struct {
	Dim              int            `json:"dim"`
	VocabSize        uint32         `json:"vocab_size"`
	NumLabels        int            `json:"num_labels"`
	ID2Label         map[int]string `json:"id2label"`
	InitializerRange float64        `json:"initializer_range"`
}

// DefaultConfig returns a config for the given vocabulary size.
func DefaultConfig(vocabSize uint32) Config {
	return Config{
		Dim:              64,
		VocabSize:        vocabSize,
		NumLabels:        label.Count,
		ID2Label:         label.ID2Label(),
		InitializerRange: 0.02,
	}
}

// Validate checks the config shape.
func (c Config) Validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", c.Dim)
	}
	if c.VocabSize <= tokenizer.NumSpecial {
		return fmt.Errorf("vocab_size %d too small", c.VocabSize)
	}
	if c.NumLabels != label.Count {
		return fmt.Errorf("num_labels must be %d, got %d", label.Count, c.NumLabels)
	}
	return nil
}

// Logits are the raw per label scores of one forward pass.
type Logits [label.Count]float64

// Model holds the trainable parameters.
type Model struct {
	Config Config

	Embeddings []float32 // VocabSize rows of Dim
	Weight     []float32 // NumLabels rows of Dim
	Bias       []float32 // NumLabels
}

// New creates a model with normally distributed weights scaled by
// InitializerRange and zero bias.
func New(cfg Config, seed int64) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		Config:     cfg,
		Embeddings: make([]float32, int(cfg.VocabSize)*cfg.Dim),
		Weight:     make([]float32, cfg.NumLabels*cfg.Dim),
		Bias:       make([]float32, cfg.NumLabels),
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Embeddings {
		m.Embeddings[i] = float32(rng.NormFloat64() * cfg.InitializerRange)
	}
	for i := range m.Weight {
		m.Weight[i] = float32(rng.NormFloat64() * cfg.InitializerRange)
	}
	return m, nil
}

// Row returns the embedding of token id.
func (m *Model) Row(id uint32) []float32 {
	d := m.Config.Dim
	return m.Embeddings[int(id)*d : int(id+1)*d]
}

// Pool averages the embeddings of the attended positions of enc into h.
func (m *Model) Pool(enc tokenizer.Encoding, h []float64) (count int) {
	for d := range h {
		h[d] = 0
	}
	for i, id := range enc.InputIDs {
		if enc.AttentionMask[i] == 0 || id >= m.Config.VocabSize {
			continue
		}
		for d, v := range m.Row(id) {
			h[d] += float64(v)
		}
		count++
	}
	if count > 0 {
		for d := range h {
			h[d] /= float64(count)
		}
	}
	return count
}

func (m *Model) head(h []float64) (out Logits) {
	d := m.Config.Dim
	for k := range out {
		sum := float64(m.Bias[k])
		for j, w := range m.Weight[k*d : (k+1)*d] {
			sum += float64(w) * h[j]
		}
		out[k] = sum
	}
	return
}

// Forward computes the logits for one encoding. It only reads the model.
func (m *Model) Forward(enc tokenizer.Encoding) Logits {
	h := make([]float64, m.Config.Dim)
	m.Pool(enc, h)
	return m.head(h)
}

// crossEntropy returns -log softmax(logits)[target] and the softmax itself.
func crossEntropy(logits Logits, target label.Label) (float64, Logits) {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	var p Logits
	for k, v := range logits {
		p[k] = math.Exp(v - max)
		sum += p[k]
	}
	for k := range p {
		p[k] /= sum
	}
	return math.Log(sum) + max - logits[target], p
}

// CrossEntropy returns the negative log likelihood of target under logits.
func CrossEntropy(logits Logits, target label.Label) float64 {
	loss, _ := crossEntropy(logits, target)
	return loss
}

// Loss returns the cross entropy of enc against target.
func (m *Model) Loss(enc tokenizer.Encoding, target label.Label) float64 {
	return CrossEntropy(m.Forward(enc), target)
}
