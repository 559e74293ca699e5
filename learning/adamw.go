package learning

import (
	"math"

	"github.com/wnxii/scam-slayer-hackrift-2024/net/classifier"
)

// AdamW is Adam with decoupled weight decay. Embedding rows are updated
// lazily: only rows present in the gradients move on a step.
type AdamW struct {
	args TrainingArguments
	step int

	embM, embV []float32
	wM, wV     []float32
	bM, bV     []float32
}

// NewAdamW allocates optimizer state for m.
func NewAdamW(m *classifier.Model, args TrainingArguments) *AdamW {
	return &AdamW{
		args: args,
		embM: make([]float32, len(m.Embeddings)),
		embV: make([]float32, len(m.Embeddings)),
		wM:   make([]float32, len(m.Weight)),
		wV:   make([]float32, len(m.Weight)),
		bM:   make([]float32, len(m.Bias)),
		bV:   make([]float32, len(m.Bias)),
	}
}

// Steps returns the number of steps taken so far.
func (o *AdamW) Steps() int {
	return o.step
}

// Step applies mean gradients g to m with learning rate lr.
func (o *AdamW) Step(m *classifier.Model, g *classifier.Gradients, lr float64) {
	o.step++
	b1, b2 := o.args.Beta1, o.args.Beta2
	bc1 := 1 - math.Pow(b1, float64(o.step))
	bc2 := 1 - math.Pow(b2, float64(o.step))
	decay := lr * o.args.WeightDecay

	update := func(p, grad, mom, vel []float32, decayed bool) {
		for i, gr := range grad {
			w := float64(p[i])
			if decayed {
				w -= decay * w
			}
			mi := b1*float64(mom[i]) + (1-b1)*float64(gr)
			vi := b2*float64(vel[i]) + (1-b2)*float64(gr)*float64(gr)
			mom[i], vel[i] = float32(mi), float32(vi)
			w -= lr * (mi / bc1) / (math.Sqrt(vi/bc2) + o.args.Epsilon)
			p[i] = float32(w)
		}
	}

	d := m.Config.Dim
	for _, id := range g.Rows() {
		lo, hi := int(id)*d, int(id+1)*d
		update(m.Embeddings[lo:hi], g.Embeddings[id], o.embM[lo:hi], o.embV[lo:hi], true)
	}
	update(m.Weight, g.Weight, o.wM, o.wV, true)
	update(m.Bias, g.Bias, o.bM, o.bV, false)
}
