package trainer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wnxii/scam-slayer-hackrift-2024/modelstore"
	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// Resume loads the tokenizer and model to fine-tune. When base names a model
// store it is loaded and must exist; otherwise init builds a fresh pair.
func Resume(base string, log *zap.Logger, init func() (*tokenizer.Tokenizer, *classifier.Model, error)) (*tokenizer.Tokenizer, *classifier.Model, error) {
	if base == "" {
		return init()
	}
	art, err := modelstore.Load(base)
	if err != nil {
		return nil, nil, fmt.Errorf("load base model: %w", err)
	}
	log.Info("Fine-tuning from base model",
		zap.String("path", base),
		zap.Int("dim", art.Model.Config.Dim),
		zap.Uint32("vocab_size", art.Model.Config.VocabSize),
	)
	return art.Tokenizer, art.Model, nil
}
