// Package tokenizer turns transcript text into fixed length hashed token ids.
package tokenizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/wnxii/scam-slayer-hackrift-2024/hash"
)

// Special token ids. Word ids start at NumSpecial.
const (
	PadID uint32 = 0
	ClsID uint32 = 1
	SepID uint32 = 2

	NumSpecial = 3
)

// Config holds the tokenizer settings persisted with a model.
type Config struct {
	MaxLength int    `json:"max_length"`
	VocabSize uint32 `json:"vocab_size"`
	Lowercase bool   `json:"lowercase"`
	Salt      uint32 `json:"salt"`
}

// DefaultConfig returns the settings used for training from scratch.
func DefaultConfig() Config {
	return Config{
		MaxLength: 128,
		VocabSize: 30522,
		Lowercase: true,
	}
}

// Validate checks that the config can produce encodings.
func (c Config) Validate() error {
	if c.MaxLength < 2 {
		return fmt.Errorf("max_length %d leaves no room for [CLS] and [SEP]", c.MaxLength)
	}
	if c.VocabSize <= NumSpecial {
		return fmt.Errorf("vocab_size %d must exceed the %d special tokens", c.VocabSize, NumSpecial)
	}
	return nil
}

// Encoding is one tokenized text, always MaxLength positions long.
type Encoding struct {
	InputIDs      []uint32 `json:"input_ids"`
	AttentionMask []uint8  `json:"attention_mask"`
}

// Len returns the number of attended positions.
func (e Encoding) Len() (n int) {
	for _, m := range e.AttentionMask {
		n += int(m)
	}
	return
}

// Tokenizer is safe for concurrent use.
type Tokenizer struct {
	cfg Config
}

// New creates a tokenizer. The vocabulary size is rounded up to a prime.
func New(cfg Config) (*Tokenizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.VocabSize = uint32(hash.PrimeAtLeast(uint64(cfg.VocabSize)))
	return &Tokenizer{cfg: cfg}, nil
}

// Config returns the effective config.
func (t *Tokenizer) Config() Config {
	return t.cfg
}

// VocabSize returns the number of distinct ids the tokenizer can output.
func (t *Tokenizer) VocabSize() uint32 {
	return t.cfg.VocabSize
}

// Words splits text into normalized words.
func (t *Tokenizer) Words(text string) []string {
	text = norm.NFKC.String(text)
	if t.cfg.Lowercase {
		text = cases.Fold().String(text)
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// ID returns the vocabulary id of a normalized word.
func (t *Tokenizer) ID(word string) uint32 {
	return NumSpecial + hash.Bucket(t.cfg.Salt, word, t.cfg.VocabSize-NumSpecial)
}

// Encode tokenizes text with truncation and padding to MaxLength.
func (t *Tokenizer) Encode(text string) Encoding {
	var enc = Encoding{
		InputIDs:      make([]uint32, t.cfg.MaxLength),
		AttentionMask: make([]uint8, t.cfg.MaxLength),
	}
	words := t.Words(text)
	if len(words) > t.cfg.MaxLength-2 {
		words = words[:t.cfg.MaxLength-2]
	}
	enc.InputIDs[0] = ClsID
	for i, w := range words {
		enc.InputIDs[i+1] = t.ID(w)
	}
	enc.InputIDs[len(words)+1] = SepID
	for i := 0; i < len(words)+2; i++ {
		enc.AttentionMask[i] = 1
	}
	return enc
}

// EncodeBatch tokenizes every text.
func (t *Tokenizer) EncodeBatch(texts []string) []Encoding {
	out := make([]Encoding, len(texts))
	for i, text := range texts {
		out[i] = t.Encode(text)
	}
	return out
}

// WriteConfig writes the tokenizer config as JSON.
func (t *Tokenizer) WriteConfig(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.cfg)
}

// ErrVocabMismatch is returned by ReadConfig when the saved vocabulary size is
// not the prime New would have chosen.
var ErrVocabMismatch = errors.New("tokenizer vocab size does not match a saved tokenizer")

// ReadConfig reads a tokenizer written by WriteConfig.
func ReadConfig(r io.Reader) (*Tokenizer, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode tokenizer config: %w", err)
	}
	t, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if t.cfg.VocabSize != cfg.VocabSize {
		return nil, ErrVocabMismatch
	}
	return t, nil
}
