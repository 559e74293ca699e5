package classifier

import (
	"sort"

	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// Gradients accumulates the loss gradient of one or more samples. Embedding
// gradients are sparse, keyed by token id.
type Gradients struct {
	Embeddings map[uint32][]float32
	Weight     []float32
	Bias       []float32

	Loss    float64
	Samples int
}

// NewGradients allocates zero gradients shaped like m.
func (m *Model) NewGradients() *Gradients {
	return &Gradients{
		Embeddings: make(map[uint32][]float32),
		Weight:     make([]float32, len(m.Weight)),
		Bias:       make([]float32, len(m.Bias)),
	}
}

// Backward adds the cross entropy gradient of enc against target to g and
// returns the sample loss.
func (m *Model) Backward(enc tokenizer.Encoding, target label.Label, g *Gradients) float64 {
	d := m.Config.Dim
	h := make([]float64, d)
	count := m.Pool(enc, h)
	logits := m.head(h)
	loss, p := crossEntropy(logits, target)

	dh := make([]float64, d)
	for k := range p {
		gk := p[k]
		if label.Label(k) == target {
			gk -= 1
		}
		g.Bias[k] += float32(gk)
		for j := 0; j < d; j++ {
			g.Weight[k*d+j] += float32(gk * h[j])
			dh[j] += gk * float64(m.Weight[k*d+j])
		}
	}

	if count > 0 {
		for i, id := range enc.InputIDs {
			if enc.AttentionMask[i] == 0 || id >= m.Config.VocabSize {
				continue
			}
			row, ok := g.Embeddings[id]
			if !ok {
				row = make([]float32, d)
				g.Embeddings[id] = row
			}
			for j := range row {
				row[j] += float32(dh[j] / float64(count))
			}
		}
	}

	g.Loss += loss
	g.Samples++
	return loss
}

// Add accumulates o into g.
func (g *Gradients) Add(o *Gradients) {
	for id, orow := range o.Embeddings {
		row, ok := g.Embeddings[id]
		if !ok {
			row = make([]float32, len(orow))
			g.Embeddings[id] = row
		}
		for j, v := range orow {
			row[j] += v
		}
	}
	for i, v := range o.Weight {
		g.Weight[i] += v
	}
	for i, v := range o.Bias {
		g.Bias[i] += v
	}
	g.Loss += o.Loss
	g.Samples += o.Samples
}

// Mean divides the gradients by the number of accumulated samples.
func (g *Gradients) Mean() {
	if g.Samples == 0 {
		return
	}
	f := 1 / float32(g.Samples)
	for _, row := range g.Embeddings {
		for j := range row {
			row[j] *= f
		}
	}
	for i := range g.Weight {
		g.Weight[i] *= f
	}
	for i := range g.Bias {
		g.Bias[i] *= f
	}
}

// Rows returns the touched embedding ids in ascending order.
func (g *Gradients) Rows() []uint32 {
	ids := make([]uint32, 0, len(g.Embeddings))
	for id := range g.Embeddings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
