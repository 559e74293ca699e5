// Package datasets implements the tokenized sample types and the train/eval split
package datasets

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// Sample is one tokenized text with its canonical label.
type Sample struct {
	Encoding tokenizer.Encoding
	Label    label.Label
}

// Dataslice is an indexable set of samples.
type Dataslice interface {
	Len() int
	Get(n int) Sample
}

// Samples is an in-memory Dataslice.
type Samples []Sample

func (s Samples) Len() int         { return len(s) }
func (s Samples) Get(n int) Sample { return s[n] }

// Subset returns the samples at the given indices.
func Subset(d Dataslice, idx []int) Samples {
	out := make(Samples, len(idx))
	for i, j := range idx {
		out[i] = d.Get(j)
	}
	return out
}

// Split shuffles the indices 0..n-1 with seed and splits off ceil(testSize*n)
// of them as the test partition.
func Split(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be between 0 and 1", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTrain <= 0 || nTest <= 0 {
		return nil, nil, fmt.Errorf("cannot split %d samples with test size %v", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// ClassCounts counts the samples of each label.
func ClassCounts(d Dataslice) (counts [label.Count]int) {
	for i := 0; i < d.Len(); i++ {
		if l := d.Get(i).Label; l.Valid() {
			counts[l]++
		}
	}
	return
}
