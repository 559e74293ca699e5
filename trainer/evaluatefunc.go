package trainer

import (
	"github.com/wnxii/scam-slayer-hackrift-2024/datasets"
	"github.com/wnxii/scam-slayer-hackrift-2024/inference"
	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
	"github.com/wnxii/scam-slayer-hackrift-2024/parallel"
)

// Metrics summarize one evaluation pass.
type Metrics struct {
	Loss     float64 `json:"eval_loss"`
	Accuracy float64 `json:"eval_accuracy"`
	Correct  int     `json:"correct"`
	Samples  int     `json:"samples"`
}

type outcome struct {
	loss    float64
	correct bool
}

// Evaluate computes the mean loss and accuracy of m on d. Work is split into
// chunks of batchSize samples spread over threads goroutines.
func Evaluate(m *classifier.Model, d datasets.Dataslice, batchSize, threads int) Metrics {
	n := d.Len()
	if n == 0 {
		return Metrics{}
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	out := make([]outcome, n)
	chunks := (n + batchSize - 1) / batchSize
	parallel.ForEach(chunks, threads, func(c int) {
		for i := c * batchSize; i < n && i < (c+1)*batchSize; i++ {
			s := d.Get(i)
			logits := m.Forward(s.Encoding)
			out[i] = outcome{
				loss:    classifier.CrossEntropy(logits, s.Label),
				correct: inference.Postprocess(logits).Class == s.Label,
			}
		}
	})

	var metrics = Metrics{Samples: n}
	for _, o := range out {
		metrics.Loss += o.loss
		if o.correct {
			metrics.Correct++
		}
	}
	metrics.Loss /= float64(n)
	metrics.Accuracy = float64(metrics.Correct) / float64(n)
	return metrics
}
