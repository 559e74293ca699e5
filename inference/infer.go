// Package inference implements the prediction stage of the scam classifier
package inference

import (
	"errors"
	"math"
	"sync"

	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/modelstore"
	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// ErrClosed is returned by Predict after Close.
var ErrClosed = errors.New("classifier session closed")

// Result is the prediction for one text.
type Result struct {
	Class         label.Label
	Confidence    float64
	Probabilities [label.Count]float64
}

// Model is the forward pass the session runs.
type Model interface {
	Forward(enc tokenizer.Encoding) classifier.Logits
}

// Session owns a loaded tokenizer and model. Predict only reads them, so one
// session serves any number of goroutines.
type Session struct {
	mu    sync.RWMutex
	tok   *tokenizer.Tokenizer
	model Model
}

// NewSession wraps an already loaded tokenizer and model.
func NewSession(tok *tokenizer.Tokenizer, model Model) *Session {
	return &Session{tok: tok, model: model}
}

// Open loads the model store in dir.
func Open(dir string) (*Session, error) {
	art, err := modelstore.Load(dir)
	if err != nil {
		return nil, err
	}
	return NewSession(art.Tokenizer, art.Model), nil
}

// Predict tokenizes text, runs the model and post-processes the logits.
func (s *Session) Predict(text string) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return Result{}, ErrClosed
	}
	return Postprocess(s.model.Forward(s.tok.Encode(text))), nil
}

// Close releases the loaded model. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	s.tok, s.model = nil, nil
	s.mu.Unlock()
	return nil
}

// Softmax converts logits to probabilities summing to one.
func Softmax(logits classifier.Logits) (p [label.Count]float64) {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for k, v := range logits {
		p[k] = math.Exp(v - max)
		sum += p[k]
	}
	for k := range p {
		p[k] /= sum
	}
	return
}

// Argmax returns the index of the largest probability. Ties go to the lowest
// index.
func Argmax(p [label.Count]float64) label.Label {
	var best int
	for k := 1; k < len(p); k++ {
		if p[k] > p[best] {
			best = k
		}
	}
	return label.Label(best)
}

// Postprocess turns two logits into a Result.
func Postprocess(logits classifier.Logits) Result {
	p := Softmax(logits)
	class := Argmax(p)
	return Result{
		Class:         class,
		Confidence:    p[class],
		Probabilities: p,
	}
}
