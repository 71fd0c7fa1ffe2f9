package features

import (
	"github.com/pkg/errors"

	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
)

// IgnoreLabelID marks decoder label positions excluded from the loss. It is
// the conventional value the training-side loss functions treat as "ignore";
// it never appears in input ids. Use MaskPadding / UnmaskPadding to convert
// between padded id sequences and loss labels instead of spelling the value
// out.
const IgnoreLabelID = -100

// Seq2SeqFeature is one encoder/decoder training instance for the generative
// model family.
type Seq2SeqFeature struct {
	// Encoder side: question plus (possibly truncated) story, padded to
	// MaxSourceLength.
	InputIDs      []int
	AttentionMask []int
	// Labels are the decoder target ids, MaxTargetLength long, with every
	// padding position set to IgnoreLabelID.
	Labels []int
}

// Seq2SeqOptions configures the seq2seq feature builder.
type Seq2SeqOptions struct {
	MaxSourceLength int
	MaxTargetLength int
}

// Defaults used when the corresponding option is zero.
const (
	DefaultMaxSourceLength = 380
	DefaultMaxTargetLength = 64
)

func (o Seq2SeqOptions) withDefaults() Seq2SeqOptions {
	if o.MaxSourceLength == 0 {
		o.MaxSourceLength = DefaultMaxSourceLength
	}
	if o.MaxTargetLength == 0 {
		o.MaxTargetLength = DefaultMaxTargetLength
	}
	return o
}

// EncodeSeq2Seq tokenizes question+story as the encoder input, truncating
// only the story when the pair exceeds MaxSourceLength, and the answer text
// as the decoder target. Both sides are padded to their fixed lengths and
// terminated with the end-of-sentence token.
func EncodeSeq2Seq(tok api.Tokenizer, question, story, answer string, opts Seq2SeqOptions) (*Seq2SeqFeature, error) {
	opts = opts.withDefaults()

	eosID, err := tok.SpecialTokenID(api.TokEndOfSentence)
	if err != nil {
		return nil, errors.WithMessagef(err, "tokenizer has no end-of-sentence token")
	}
	padID, err := tok.SpecialTokenID(api.TokPad)
	if err != nil {
		return nil, errors.WithMessagef(err, "tokenizer has no padding token")
	}

	qIDs := tok.Encode(question)
	cIDs := tok.Encode(story)

	// question + story + EOS, truncating only the story.
	budget := opts.MaxSourceLength - len(qIDs) - 1
	if budget < 0 {
		return nil, errors.Errorf("question takes %d tokens, more than the source length %d", len(qIDs), opts.MaxSourceLength)
	}
	if len(cIDs) > budget {
		cIDs = cIDs[:budget]
	}

	f := &Seq2SeqFeature{
		InputIDs:      make([]int, 0, opts.MaxSourceLength),
		AttentionMask: make([]int, 0, opts.MaxSourceLength),
	}
	f.InputIDs = append(f.InputIDs, qIDs...)
	f.InputIDs = append(f.InputIDs, cIDs...)
	f.InputIDs = append(f.InputIDs, eosID)
	for range f.InputIDs {
		f.AttentionMask = append(f.AttentionMask, 1)
	}
	for len(f.InputIDs) < opts.MaxSourceLength {
		f.InputIDs = append(f.InputIDs, padID)
		f.AttentionMask = append(f.AttentionMask, 0)
	}

	// Decoder target: answer + EOS, truncated/padded to MaxTargetLength.
	aIDs := tok.Encode(answer)
	if len(aIDs) > opts.MaxTargetLength-1 {
		aIDs = aIDs[:opts.MaxTargetLength-1]
	}
	target := make([]int, 0, opts.MaxTargetLength)
	target = append(target, aIDs...)
	target = append(target, eosID)
	for len(target) < opts.MaxTargetLength {
		target = append(target, padID)
	}
	f.Labels = MaskPadding(target, padID)

	return f, nil
}

// MaskPadding returns a copy of ids with every padding position replaced by
// IgnoreLabelID, turning a padded target sequence into loss labels.
func MaskPadding(ids []int, padID int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		if id == padID {
			out[i] = IgnoreLabelID
		} else {
			out[i] = id
		}
	}
	return out
}

// UnmaskPadding is the inverse of MaskPadding: every IgnoreLabelID position
// becomes the padding token again, making the labels decodable.
func UnmaskPadding(labels []int, padID int) []int {
	out := make([]int, len(labels))
	for i, id := range labels {
		if id == IgnoreLabelID {
			out[i] = padID
		} else {
			out[i] = id
		}
	}
	return out
}
