// Package coqa loads the CoQA conversational question-answering dataset and
// flattens it into the per-turn columnar form the feature builders consume.
package coqa

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// File is the top-level structure of a CoQA split file
// (coqa-train-v1.0.json / coqa-dev-v1.0.json).
type File struct {
	Version string     `json:"version"`
	Data    []Document `json:"data"`
}

// Document is one story with its conversation turns.
type Document struct {
	Source    string              `json:"source"`
	ID        string              `json:"id"`
	Filename  string              `json:"filename"`
	Story     string              `json:"story"`
	Questions []Question          `json:"questions"`
	Answers   []Answer            `json:"answers"`
	// Dev split only: alternative annotations keyed by annotator.
	AdditionalAnswers map[string][]Answer `json:"additional_answers,omitempty"`
}

// Question is one conversation turn's question.
type Question struct {
	InputText string `json:"input_text"`
	TurnID    int    `json:"turn_id"`
}

// Answer is one conversation turn's answer. SpanStart/SpanEnd are character
// offsets of the rationale span into the story; InputText is the free-form
// answer used by the generative variant.
type Answer struct {
	SpanStart int    `json:"span_start"`
	SpanEnd   int    `json:"span_end"`
	SpanText  string `json:"span_text"`
	InputText string `json:"input_text"`
	TurnID    int    `json:"turn_id"`
}

// Load reads and parses a CoQA split file.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CoQA split file %q", path)
	}
	var f File
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse CoQA split file %q", path)
	}
	return &f, nil
}

// Dataset is the flattened, per-turn columnar view of a split: one row per
// (question, answer) turn, all columns parallel and indexable by row.
type Dataset struct {
	Questions  []string
	Stories    []string
	Answers    []string
	SpanStarts []int
	SpanEnds   []int
}

// Example is one row of a Dataset.
type Example struct {
	Question  string
	Story     string
	Answer    string
	SpanStart int
	SpanEnd   int
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Questions) }

// Example returns row i.
func (d *Dataset) Example(i int) Example {
	return Example{
		Question:  d.Questions[i],
		Story:     d.Stories[i],
		Answer:    d.Answers[i],
		SpanStart: d.SpanStarts[i],
		SpanEnd:   d.SpanEnds[i],
	}
}

// Flatten converts the nested conversation structure into one row per turn.
//
// Questions and stories are left-trimmed for the tokenizer; when trimming a
// story the answer spans are shifted by the removed prefix so they keep
// pointing at the same text. Turns missing either a question or an answer are
// dropped.
func (f *File) Flatten() *Dataset {
	d := &Dataset{}
	for _, doc := range f.Data {
		trimmed := strings.TrimLeft(doc.Story, " \t\n\r")
		shift := len(doc.Story) - len(trimmed)

		turns := len(doc.Questions)
		if len(doc.Answers) < turns {
			turns = len(doc.Answers)
		}
		for i := 0; i < turns; i++ {
			q := doc.Questions[i]
			a := doc.Answers[i]
			// Unanswerable turns carry span -1/-1; keep them negative so the
			// aligner labels every window with the no-answer sentinel.
			start, end := a.SpanStart, a.SpanEnd
			if start >= 0 {
				start -= shift
			}
			if end >= 0 {
				end -= shift
			}
			d.Questions = append(d.Questions, strings.TrimLeft(q.InputText, " \t\n\r"))
			d.Stories = append(d.Stories, trimmed)
			d.Answers = append(d.Answers, a.InputText)
			d.SpanStarts = append(d.SpanStarts, start)
			d.SpanEnds = append(d.SpanEnds, end)
		}
	}
	return d
}
