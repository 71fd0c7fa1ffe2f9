// Package sentencepiece implements an api.TokenizerWithSpans backed by a
// SentencePiece model file, the tokenizer family used by the T5-style
// sequence-to-sequence models.
package sentencepiece

import (
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"

	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
)

// metaspace is SentencePiece's space replacement (U+2581, lower one eighth block).
const metaspace = "▁"

// Tokenizer implements api.TokenizerWithSpans on top of a SentencePiece processor.
type Tokenizer struct {
	*esentencepiece.Processor
	Info *esentencepiece.ModelInfo
}

// Compile time asserts for the implemented interfaces.
var (
	_ api.Tokenizer          = &Tokenizer{}
	_ api.TokenizerWithSpans = &Tokenizer{}
)

// NewFromFile creates a SentencePiece tokenizer from a local "tokenizer.model"
// file, which must be a SentencePiece Model proto.
func NewFromFile(filePath string) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece tokenizer from %q", filePath)
	}
	return &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
	}, nil
}

// Encode returns the text encoded into a sequence of ids.
func (p *Tokenizer) Encode(text string) []int {
	tokens := p.Processor.Encode(text)
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return ids
}

// EncodeWithSpans returns the text encoded into a sequence of ids along with
// their byte spans. Spans are recovered by matching each piece back into the
// original text, skipping the whitespace SentencePiece folds into metaspace
// markers.
func (p *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	tokens := p.Processor.Encode(text)
	ids := make([]int, len(tokens))
	spans := make([]api.TokenSpan, len(tokens))

	pos := 0
	for i, tok := range tokens {
		ids[i] = tok.ID
		piece, hadMetaspace := strings.CutPrefix(tok.Text, metaspace)
		if hadMetaspace {
			for pos < len(text) && isSpaceByte(text[pos]) {
				pos++
			}
		}
		if piece == "" {
			// The token is just the word boundary itself.
			spans[i] = api.TokenSpan{Start: pos, End: pos}
			continue
		}
		if idx := strings.Index(text[pos:], piece); idx >= 0 {
			start := pos + idx
			pos = start + len(piece)
			spans[i] = api.TokenSpan{Start: start, End: pos}
			continue
		}
		// Piece doesn't appear verbatim (normalization changed it); approximate
		// by advancing from the current position.
		start := pos
		pos += len(piece)
		if pos > len(text) {
			pos = len(text)
		}
		spans[i] = api.TokenSpan{Start: start, End: pos}
	}

	return api.EncodingResult{IDs: ids, Spans: spans}
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Decode returns the text from a sequence of ids.
func (p *Tokenizer) Decode(ids []int) string {
	return p.Processor.Decode(ids)
}

// DecodeSkipSpecial returns the text from a sequence of ids, dropping the
// model's control tokens (pad, bos, eos, unk).
func (p *Tokenizer) DecodeSkipSpecial(ids []int) string {
	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if p.IsSpecialID(id) {
			continue
		}
		kept = append(kept, id)
	}
	return p.Processor.Decode(kept)
}

// SpecialTokenID returns the id for the given special token, or an error if
// the model doesn't define it.
func (p *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	id := -1
	switch token {
	case api.TokUnknown:
		id = p.Info.UnknownID
	case api.TokPad:
		id = p.Info.PadID
	case api.TokBeginningOfSentence:
		id = p.Info.BeginningOfSentenceID
	case api.TokEndOfSentence, api.TokSeparator:
		id = p.Info.EndOfSentenceID
	}
	if id < 0 {
		return 0, errors.Errorf("special token %s not found in sentencepiece model", token)
	}
	return id, nil
}

// IsSpecialID reports whether id is one of the model's control tokens.
func (p *Tokenizer) IsSpecialID(id int) bool {
	if id < 0 {
		return false
	}
	return id == p.Info.UnknownID ||
		id == p.Info.PadID ||
		id == p.Info.BeginningOfSentenceID ||
		id == p.Info.EndOfSentenceID
}
