package features

import (
	"github.com/pkg/errors"
)

// ErrNoClassificationToken is returned when a feature's input ids don't
// contain the classification token used as the no-answer label. The upstream
// tokenizer configuration is broken in that case; the aligner refuses to
// guess a sentinel position.
var ErrNoClassificationToken = errors.New("feature input ids contain no classification token")

// SpanLabel is the label pair of one feature: token indices into that
// feature's InputIDs. A feature whose window doesn't contain the answer is
// labeled with the classification token position on both sides.
type SpanLabel struct {
	Start int
	End   int
}

// AlignAnswerSpan converts the character-level answer span [startChar,
// endChar) of the feature's originating example into token-index labels for
// this specific window.
//
// When the span lies fully inside the window's context tokens, the returned
// label is the minimal token range whose character coverage contains the
// span. Otherwise both positions point at the classification token. The
// function is pure; features of the same example are labeled independently.
func AlignAnswerSpan(f *SpanFeature, clsID, startChar, endChar int) (SpanLabel, error) {
	clsIndex := -1
	for i, id := range f.InputIDs {
		if id == clsID {
			clsIndex = i
			break
		}
	}
	if clsIndex < 0 {
		return SpanLabel{}, errors.WithStack(ErrNoClassificationToken)
	}

	// An empty or negative span is an unanswerable turn; it is in no window.
	if startChar >= endChar {
		return SpanLabel{Start: clsIndex, End: clsIndex}, nil
	}

	// Bounds of the context segment within the token sequence.
	tokenStart := 0
	for f.SequenceIDs[tokenStart] != SeqContext {
		tokenStart++
	}
	tokenEnd := len(f.InputIDs) - 1
	for f.SequenceIDs[tokenEnd] != SeqContext {
		tokenEnd--
	}

	// Answer not fully contained in this window: label with the
	// classification token.
	if f.Offsets[tokenStart].Start > startChar || f.Offsets[tokenEnd].End < endChar {
		return SpanLabel{Start: clsIndex, End: clsIndex}, nil
	}

	// Narrow both ends onto the answer. The start scan is bounded to the
	// context segment: an answer starting at the window's last token would
	// otherwise run into the zero offsets of the trailing special and padding
	// tokens.
	lastContext := tokenEnd
	for tokenStart <= lastContext && f.Offsets[tokenStart].Start <= startChar {
		tokenStart++
	}
	for f.Offsets[tokenEnd].End >= endChar {
		tokenEnd--
	}
	return SpanLabel{Start: tokenStart - 1, End: tokenEnd + 1}, nil
}

// LabelSpanFeatures aligns answer spans for a whole batch of features,
// resolving each feature's example through its SampleIndex. spanStarts and
// spanEnds are the per-example character spans of the flattened dataset.
func LabelSpanFeatures(feats []SpanFeature, clsID int, spanStarts, spanEnds []int) ([]SpanLabel, error) {
	if len(spanStarts) != len(spanEnds) {
		return nil, errors.Errorf("got %d span starts but %d span ends", len(spanStarts), len(spanEnds))
	}
	labels := make([]SpanLabel, len(feats))
	for i := range feats {
		sample := feats[i].SampleIndex
		if sample < 0 || sample >= len(spanStarts) {
			return nil, errors.Errorf("feature %d references sample %d, dataset has %d rows", i, sample, len(spanStarts))
		}
		label, err := AlignAnswerSpan(&feats[i], clsID, spanStarts[sample], spanEnds[sample])
		if err != nil {
			return nil, errors.WithMessagef(err, "aligning feature %d (sample %d)", i, sample)
		}
		labels[i] = label
	}
	return labels, nil
}
