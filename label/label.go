// Package label maps the free text labels of call transcript datasets to the
// two canonical classes the classifier is trained on.
package label

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Label is the canonical classification target.
type Label uint8

const (
	// NotScam is the negative class, also the fallback for unknown labels.
	NotScam Label = 0
	// Scam is the positive class.
	Scam Label = 1
)

// Count is the number of canonical labels.
const Count = 2

var names = [Count]string{
	NotScam: "not_scam",
	Scam:    "scam",
}

// String returns the label name.
func (l Label) String() string {
	if int(l) < Count {
		return names[l]
	}
	return fmt.Sprintf("label(%d)", uint8(l))
}

// Valid reports whether l is one of the canonical labels.
func (l Label) Valid() bool {
	return int(l) < Count
}

// ID2Label returns the id to name mapping stored alongside a trained model.
func ID2Label() map[int]string {
	m := make(map[int]string, Count)
	for i, n := range names {
		m[i] = n
	}
	return m
}

// scamLabels are the dataset spellings of the positive class.
var scamLabels = []string{
	"scam",
	"suspicious",
	"highly_suspicious",
	"slightly_suspicious",
	"potential_scam",
	"scam_response",
	"citing urgency",
	"suggesting a dangerous situation",
	"dismissive official protocols",
	`dismissive official protocols"`,
}

// notScamLabels are the dataset spellings of the negative class.
var notScamLabels = []string{
	"neutral",
	"legitimate",
	"standard_opening, identification_request",
	"polite_ending",
	"adhering to protocols",
	"emphasizing security and compliance",
	"ready for further engagement",
}

var known = func() map[string]Label {
	m := make(map[string]Label, len(scamLabels)+len(notScamLabels))
	for _, s := range scamLabels {
		m[s] = Scam
	}
	for _, s := range notScamLabels {
		if _, dup := m[s]; dup {
			panic("label in both sets: " + s)
		}
		m[s] = NotScam
	}
	return m
}()

// ScamLabels returns a copy of the known positive class spellings.
func ScamLabels() []string {
	return append([]string(nil), scamLabels...)
}

// NotScamLabels returns a copy of the known negative class spellings.
func NotScamLabels() []string {
	return append([]string(nil), notScamLabels...)
}

// Clean lowercases raw and trims surrounding whitespace and double quotes.
func Clean(raw string) string {
	return strings.TrimFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '"' || unicode.IsSpace(r)
	})
}

// Normalize maps a raw dataset label to its canonical class. The second return
// value is false when the cleaned label is in neither known set, in which case
// the label is NotScam.
func Normalize(raw string) (Label, bool) {
	l, ok := known[Clean(raw)]
	if !ok {
		return NotScam, false
	}
	return l, true
}

// Normalizer is Normalize with a diagnostic for unknown labels.
type Normalizer struct {
	Logger *zap.Logger
}

// NewNormalizer creates a Normalizer. A nil logger disables diagnostics.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{Logger: logger}
}

// Normalize maps raw to its canonical class, warning about unknown labels.
func (n *Normalizer) Normalize(raw string) Label {
	l, ok := Normalize(raw)
	if !ok && n.Logger != nil {
		n.Logger.Warn("Unknown label, defaulting to not_scam",
			zap.String("label", Clean(raw)),
			zap.Stringer("default", NotScam),
		)
	}
	return l
}
