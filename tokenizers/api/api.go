// Package api defines the Tokenizer API consumed by the feature builders.
// It's a separate package so tokenizer implementations and their consumers
// don't import each other.
package api

// TokenSpan represents the byte span of a token in the original text.
// Start and End are byte offsets (not rune offsets), suitable for slicing
// Go strings directly: originalText[span.Start:span.End].
// Special and padding tokens carry the zero span {0, 0}.
type TokenSpan struct {
	Start int // start byte position (inclusive)
	End   int // end byte position (exclusive)
}

// IsEmpty reports whether the span carries no text, which is the case for
// special and padding tokens.
func (s TokenSpan) IsEmpty() bool { return s.Start == 0 && s.End == 0 }

// EncodingResult contains tokens with their spans in the original text.
type EncodingResult struct {
	IDs   []int       // token IDs
	Spans []TokenSpan // byte spans for each token (use originalText[span.Start:span.End] to extract)
}

// Tokenizer converts text to token ids and back.
//
// It also maps special tokens: tokens with a common semantic (like padding)
// that map to different ids for different tokenizers.
type Tokenizer interface {
	Encode(text string) []int
	Decode([]int) string

	// SpecialTokenID returns the ID for the given special token if registered,
	// or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)

	// IsSpecialID reports whether id is a special token (classification,
	// separator, padding, ...). Decoding for humans or metrics skips these.
	IsSpecialID(id int) bool
}

// TokenizerWithSpans extends Tokenizer with byte-span tracking. Question
// answering needs it to map token predictions back to character positions in
// the original text.
type TokenizerWithSpans interface {
	Tokenizer
	// EncodeWithSpans returns tokens along with their byte spans in the original text.
	EncodeWithSpans(text string) EncodingResult
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSeparator
	TokSpecialTokensCount
)

// String implements fmt.Stringer.
func (t SpecialToken) String() string {
	switch t {
	case TokBeginningOfSentence:
		return "beginning_of_sentence"
	case TokEndOfSentence:
		return "end_of_sentence"
	case TokUnknown:
		return "unknown"
	case TokPad:
		return "pad"
	case TokMask:
		return "mask"
	case TokClassification:
		return "classification"
	case TokSeparator:
		return "separator"
	default:
		return "invalid_special_token"
	}
}

// Config carries tokenizer settings that live outside the tokenizer.json
// file, typically read from the model's tokenizer_config.json. All fields are
// optional; implementations fall back to their file's added tokens.
type Config struct {
	UnkToken  string
	PadToken  string
	ClsToken  string
	SepToken  string
	MaskToken string
	BosToken  string
	EosToken  string
}
