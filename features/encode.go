// Package features converts CoQA examples into tokenized, offset-aligned
// model inputs: sliding-window span features with start/end token labels for
// extractive models, and encoder/decoder id sequences for seq2seq models.
package features

import (
	"github.com/pkg/errors"

	"github.com/SamTheMar/Question-Answering-CoQA/coqa"
	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
)

// Sequence tags, one per token position, identifying which segment a token
// belongs to.
const (
	SeqSpecial  = -1 // [CLS], [SEP], padding
	SeqQuestion = 0
	SeqContext  = 1
)

// SpanFeature is one fixed-length tokenized window derived from an example.
// A long story yields several SpanFeatures whose context windows overlap.
// All slices are parallel to InputIDs and exactly MaxLength long.
type SpanFeature struct {
	InputIDs      []int
	AttentionMask []int
	// Offsets maps each token back to the byte range of the text it came
	// from: question tokens into the question string, context tokens into the
	// story. Special and padding tokens carry the zero span.
	Offsets     []api.TokenSpan
	SequenceIDs []int
	// SampleIndex is the row of the originating example in the flattened
	// dataset (overflow-to-sample mapping).
	SampleIndex int
}

// EncodeOptions configures the sliding-window encoding.
type EncodeOptions struct {
	// MaxLength is the total token length of every feature, padding included.
	MaxLength int
	// DocStride is the number of overlapping context tokens between two
	// consecutive windows of the same story.
	DocStride int
}

// Defaults used when the corresponding option is zero.
const (
	DefaultMaxLength = 380
	DefaultDocStride = 128
)

func (o EncodeOptions) withDefaults() EncodeOptions {
	if o.MaxLength == 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.DocStride == 0 {
		o.DocStride = DefaultDocStride
	}
	return o
}

// specialIDs resolves the [CLS]/[SEP]/[PAD] ids the window layout needs.
func specialIDs(tok api.Tokenizer) (clsID, sepID, padID int, err error) {
	if clsID, err = tok.SpecialTokenID(api.TokClassification); err != nil {
		return 0, 0, 0, errors.WithMessagef(err, "tokenizer has no classification token")
	}
	if sepID, err = tok.SpecialTokenID(api.TokSeparator); err != nil {
		return 0, 0, 0, errors.WithMessagef(err, "tokenizer has no separator token")
	}
	if padID, err = tok.SpecialTokenID(api.TokPad); err != nil {
		return 0, 0, 0, errors.WithMessagef(err, "tokenizer has no padding token")
	}
	return clsID, sepID, padID, nil
}

// EncodeSpanFeatures tokenizes parallel questions and stories into padded
// sliding-window features:
//
//	[CLS] question [SEP] context-window [SEP] [PAD]...
//
// Only the context is truncated; consecutive windows of the same story
// overlap by DocStride context tokens. A question too long to leave room for
// any context is an error.
func EncodeSpanFeatures(tok api.TokenizerWithSpans, questions, stories []string, opts EncodeOptions) ([]SpanFeature, error) {
	if len(questions) != len(stories) {
		return nil, errors.Errorf("got %d questions but %d stories", len(questions), len(stories))
	}
	opts = opts.withDefaults()

	clsID, sepID, padID, err := specialIDs(tok)
	if err != nil {
		return nil, err
	}

	var out []SpanFeature
	for sample := range questions {
		q := tok.EncodeWithSpans(questions[sample])
		c := tok.EncodeWithSpans(stories[sample])

		// [CLS] + question + [SEP] + window + [SEP]
		budget := opts.MaxLength - len(q.IDs) - 3
		if budget <= 0 {
			return nil, errors.Errorf("question of sample %d takes %d tokens, leaving no room for context within max length %d",
				sample, len(q.IDs), opts.MaxLength)
		}
		if opts.DocStride >= budget {
			return nil, errors.Errorf("doc stride %d must be smaller than the context window of %d tokens", opts.DocStride, budget)
		}

		for start := 0; ; start += budget - opts.DocStride {
			end := start + budget
			if end > len(c.IDs) {
				end = len(c.IDs)
			}
			out = append(out, buildWindow(q, c, start, end, sample, opts.MaxLength, clsID, sepID, padID))
			if end == len(c.IDs) {
				break
			}
		}
	}
	return out, nil
}

// buildWindow assembles one padded feature from the question encoding and the
// context tokens [start, end).
func buildWindow(q, c api.EncodingResult, start, end, sample, maxLength, clsID, sepID, padID int) SpanFeature {
	f := SpanFeature{
		InputIDs:      make([]int, 0, maxLength),
		AttentionMask: make([]int, 0, maxLength),
		Offsets:       make([]api.TokenSpan, 0, maxLength),
		SequenceIDs:   make([]int, 0, maxLength),
		SampleIndex:   sample,
	}
	push := func(id, seq int, span api.TokenSpan) {
		f.InputIDs = append(f.InputIDs, id)
		f.AttentionMask = append(f.AttentionMask, 1)
		f.Offsets = append(f.Offsets, span)
		f.SequenceIDs = append(f.SequenceIDs, seq)
	}

	push(clsID, SeqSpecial, api.TokenSpan{})
	for i, id := range q.IDs {
		push(id, SeqQuestion, q.Spans[i])
	}
	push(sepID, SeqSpecial, api.TokenSpan{})
	for i := start; i < end; i++ {
		push(c.IDs[i], SeqContext, c.Spans[i])
	}
	push(sepID, SeqSpecial, api.TokenSpan{})

	for len(f.InputIDs) < maxLength {
		f.InputIDs = append(f.InputIDs, padID)
		f.AttentionMask = append(f.AttentionMask, 0)
		f.Offsets = append(f.Offsets, api.TokenSpan{})
		f.SequenceIDs = append(f.SequenceIDs, SeqSpecial)
	}
	return f
}

// PrepareTrainFeatures encodes every example of a flattened dataset and
// aligns its answer span labels, the full feature-preparation step for the
// extractive model family.
func PrepareTrainFeatures(tok api.TokenizerWithSpans, d *coqa.Dataset, opts EncodeOptions) ([]SpanFeature, []SpanLabel, error) {
	feats, err := EncodeSpanFeatures(tok, d.Questions, d.Stories, opts)
	if err != nil {
		return nil, nil, err
	}
	clsID, err := tok.SpecialTokenID(api.TokClassification)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "tokenizer has no classification token")
	}
	labels, err := LabelSpanFeatures(feats, clsID, d.SpanStarts, d.SpanEnds)
	if err != nil {
		return nil, nil, err
	}
	return feats, labels, nil
}
