package callscam

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wnxii/scam-slayer-hackrift-2024/datasets"
	"github.com/wnxii/scam-slayer-hackrift-2024/label"
	"github.com/wnxii/scam-slayer-hackrift-2024/tokenizer"
)

// DefaultFile is the dataset file name the training program reads.
const DefaultFile = "call_scam_transcripts.csv"

// Columns names the header fields of the dataset.
type Columns struct {
	ID    string
	Text  string
	Label string
}

// DefaultColumns returns the column names of the published dataset.
func DefaultColumns() Columns {
	return Columns{
		ID:    "CONVERSATION_ID",
		Text:  "TEXT",
		Label: "LABEL",
	}
}

// Record is one dataset row.
type Record struct {
	ConversationID string
	Text           string
	Label          string
}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// LoadFile reads the dataset at path.
func LoadFile(path string, cols Columns) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, cols)
}

// Load reads comma separated rows with a header. The id column is optional;
// the text and label columns are required.
func Load(r io.Reader, cols Columns) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	textIdx, ok := index[cols.Text]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, cols.Text)
	}
	labelIdx, ok := index[cols.Label]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, cols.Label)
	}
	idIdx, hasID := index[cols.ID]

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if textIdx >= len(row) || labelIdx >= len(row) {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(textIdx, labelIdx)+1, len(row))
		}
		rec := Record{
			Text:  row[textIdx],
			Label: row[labelIdx],
		}
		if hasID && idIdx < len(row) {
			rec.ConversationID = row[idIdx]
		}
		records = append(records, rec)
	}
	return records, nil
}

// LabelNormalizer maps a raw label to its canonical class.
type LabelNormalizer interface {
	Normalize(raw string) label.Label
}

// Encode tokenizes every record and attaches its canonical label.
func Encode(records []Record, tok *tokenizer.Tokenizer, norm LabelNormalizer) datasets.Samples {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	out := make(datasets.Samples, len(records))
	for i, enc := range tok.EncodeBatch(texts) {
		out[i] = datasets.Sample{
			Encoding: enc,
			Label:    norm.Normalize(records[i].Label),
		}
	}
	return out
}
