// Package wordpiece implements a WordPiece tokenizer (BERT-style) for
// HuggingFace's tokenizer.json format, with byte-span tracking.
//
// Span tracking works through normalization: lowercasing and accent
// stripping are applied per rune while keeping a map from normalized runes
// back to the original ones, so every produced token knows the exact byte
// range of the raw text it came from.
package wordpiece

import (
	"encoding/json"
	"os"
	"strings"
	"unicode"

	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// TokenizerJSON represents the subset of HuggingFace's tokenizer.json file
// needed for WordPiece models.
type TokenizerJSON struct {
	Version      string        `json:"version"`
	AddedTokens  []AddedToken  `json:"added_tokens"`
	Normalizer   *Normalizer   `json:"normalizer"`
	PreTokenizer *PreTokenizer `json:"pre_tokenizer"`
	Decoder      *Decoder      `json:"decoder"`
	Model        Model         `json:"model"`
}

// AddedToken represents a special token added to the vocabulary.
type AddedToken struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	Lstrip     bool   `json:"lstrip"`
	Rstrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

// Normalizer represents the normalizer configuration.
type Normalizer struct {
	Type         string       `json:"type"`
	Lowercase    bool         `json:"lowercase"`
	StripAccents *bool        `json:"strip_accents"`
	Normalizers  []Normalizer `json:"normalizers"`
}

// PreTokenizer represents the pre-tokenizer configuration.
type PreTokenizer struct {
	Type string `json:"type"`
}

// Decoder represents the decoder configuration.
type Decoder struct {
	Type   string `json:"type"`
	Prefix string `json:"prefix"`
}

// Model represents the WordPiece tokenizer model.
type Model struct {
	Type                    string         `json:"type"`
	Vocab                   map[string]int `json:"vocab"`
	UnkToken                string         `json:"unk_token"`
	ContinuingSubwordPrefix string         `json:"continuing_subword_prefix"`
	MaxInputCharsPerWord    int            `json:"max_input_chars_per_word"`
}

// Tokenizer implements api.TokenizerWithSpans for WordPiece tokenizer.json files.
type Tokenizer struct {
	config    *api.Config
	tokenizer *TokenizerJSON
	idToToken map[int]string

	// Effective normalization flags.
	lowercase    bool
	stripAccents bool

	// Special token IDs, -1 when absent.
	unkID  int
	padID  int
	clsID  int
	sepID  int
	maskID int

	// Added tokens lookup (content -> id), and the ids marked special.
	addedTokens map[string]int
	specialIDs  map[int]bool
}

// Compile time assert that Tokenizer implements the span-tracking interface.
var _ api.TokenizerWithSpans = &Tokenizer{}

// NewFromFile creates a WordPiece tokenizer from a local tokenizer.json file path.
func NewFromFile(config *api.Config, filePath string) (*Tokenizer, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer.json file %q", filePath)
	}
	return NewFromContent(config, content)
}

// NewFromContent creates a WordPiece tokenizer from tokenizer.json content.
func NewFromContent(config *api.Config, content []byte) (*Tokenizer, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}
	if tj.Model.Type != "" && tj.Model.Type != "WordPiece" {
		return nil, errors.Errorf("model type %q is not supported, only WordPiece", tj.Model.Type)
	}

	t := &Tokenizer{
		config:      config,
		tokenizer:   &tj,
		idToToken:   make(map[int]string),
		addedTokens: make(map[string]int),
		specialIDs:  make(map[int]bool),
		unkID:       -1,
		padID:       -1,
		clsID:       -1,
		sepID:       -1,
		maskID:      -1,
	}

	// Build reverse vocab (id -> token)
	for token, id := range tj.Model.Vocab {
		t.idToToken[id] = token
	}

	// Build added tokens map
	for _, at := range tj.AddedTokens {
		t.addedTokens[at.Content] = at.ID
		t.idToToken[at.ID] = at.Content
		if at.Special {
			t.specialIDs[at.ID] = true
		}
	}

	t.resolveNormalization()
	t.resolveSpecialTokens()

	return t, nil
}

// resolveNormalization flattens the normalizer config into the two flags the
// WordPiece family actually uses.
func (t *Tokenizer) resolveNormalization() {
	var visit func(n *Normalizer)
	visit = func(n *Normalizer) {
		if n == nil {
			return
		}
		switch n.Type {
		case "Lowercase":
			t.lowercase = true
		case "StripAccents":
			t.stripAccents = true
		case "BertNormalizer":
			t.lowercase = n.Lowercase
			// BertNormalizer strips accents when lowercasing unless told otherwise.
			if n.StripAccents != nil {
				t.stripAccents = *n.StripAccents
			} else {
				t.stripAccents = n.Lowercase
			}
		case "Sequence":
			for i := range n.Normalizers {
				visit(&n.Normalizers[i])
			}
		}
	}
	visit(t.tokenizer.Normalizer)
}

// resolveSpecialTokens maps special tokens from the file and config to their IDs.
func (t *Tokenizer) resolveSpecialTokens() {
	if t.tokenizer.Model.UnkToken != "" {
		if id, ok := t.tokenizer.Model.Vocab[t.tokenizer.Model.UnkToken]; ok {
			t.unkID = id
		}
	}

	for _, at := range t.tokenizer.AddedTokens {
		if !at.Special {
			continue
		}
		switch at.Content {
		case "[UNK]", "<unk>":
			t.unkID = at.ID
		case "[PAD]", "<pad>":
			t.padID = at.ID
		case "[CLS]":
			t.clsID = at.ID
		case "[SEP]":
			t.sepID = at.ID
		case "[MASK]", "<mask>":
			t.maskID = at.ID
		}
	}

	// Fall back to config special tokens if available.
	if t.config != nil {
		resolve := func(current *int, name string) {
			if *current != -1 || name == "" {
				return
			}
			if id, ok := t.addedTokens[name]; ok {
				*current = id
				return
			}
			if id, ok := t.tokenizer.Model.Vocab[name]; ok {
				*current = id
			}
		}
		resolve(&t.unkID, t.config.UnkToken)
		resolve(&t.padID, t.config.PadToken)
		resolve(&t.clsID, t.config.ClsToken)
		resolve(&t.sepID, t.config.SepToken)
		resolve(&t.maskID, t.config.MaskToken)
	}
}

// Encode converts text to a sequence of token IDs. No special tokens are
// added; callers compose [CLS]/[SEP] layouts themselves.
func (t *Tokenizer) Encode(text string) []int {
	return t.EncodeWithSpans(text).IDs
}

// EncodeWithSpans converts text to token IDs along with the byte span of the
// raw text each token was derived from.
func (t *Tokenizer) EncodeWithSpans(text string) api.EncodingResult {
	var result api.EncodingResult
	for _, w := range t.preTokenize(text) {
		// Whole pre-token matching an added token (e.g. "[SEP]" written in text).
		if id, ok := t.addedTokens[w.text]; ok {
			result.IDs = append(result.IDs, id)
			result.Spans = append(result.Spans, w.span)
			continue
		}
		ids, spans := t.wordPiece(w)
		result.IDs = append(result.IDs, ids...)
		result.Spans = append(result.Spans, spans...)
	}
	return result
}

// word is a pre-token: a whitespace/punctuation-delimited piece of the raw
// text with its byte span.
type word struct {
	text string
	span api.TokenSpan
}

// preTokenize splits text into words while tracking byte offsets. The BERT
// pre-tokenizer (the default) additionally splits out punctuation; the plain
// Whitespace pre-tokenizers don't. Control characters are dropped like
// whitespace.
func (t *Tokenizer) preTokenize(text string) []word {
	splitPunct := true
	if pt := t.tokenizer.PreTokenizer; pt != nil &&
		(pt.Type == "Whitespace" || pt.Type == "WhitespaceSplit") {
		splitPunct = false
	}

	var words []word
	start := -1 // byte offset of the current word, -1 when between words
	flush := func(end int) {
		if start >= 0 {
			words = append(words, word{text: text[start:end], span: api.TokenSpan{Start: start, End: end}})
			start = -1
		}
	}
	for i, r := range text {
		switch {
		case isWhitespace(r) || isControl(r) || r == 0 || r == 0xFFFD:
			flush(i)
		case splitPunct && isPunctuation(r):
			flush(i)
			end := i + len(string(r))
			words = append(words, word{text: text[i:end], span: api.TokenSpan{Start: i, End: end}})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))
	return words
}

// normalizedRune is one rune of the normalized form of a word, remembering
// the byte range of the original rune it came from.
type normalizedRune struct {
	r                  rune
	origStart, origEnd int // byte offsets within the word
}

// normalizeWord lowercases and accent-strips a word, per rune, keeping the
// original byte range of every normalized rune. A single original rune may
// produce zero normalized runes (a dropped combining mark) or several (a
// decomposed character).
func (t *Tokenizer) normalizeWord(w string) []normalizedRune {
	var out []normalizedRune
	for i, r := range w {
		end := i + len(string(r))
		expanded := string(r)
		if t.stripAccents {
			expanded = norm.NFD.String(expanded)
		}
		for _, nr := range expanded {
			if t.stripAccents && unicode.Is(unicode.Mn, nr) {
				continue
			}
			if t.lowercase {
				nr = unicode.ToLower(nr)
			}
			out = append(out, normalizedRune{r: nr, origStart: i, origEnd: end})
		}
	}
	return out
}

// wordPiece tokenizes a single word with greedy longest-match-first lookup,
// returning token ids and the byte spans of the raw text they cover.
// A word with no possible tokenization becomes a single unknown token
// spanning the whole word.
func (t *Tokenizer) wordPiece(w word) (ids []int, spans []api.TokenSpan) {
	runes := t.normalizeWord(w.text)
	if len(runes) == 0 {
		return nil, nil
	}

	maxChars := t.tokenizer.Model.MaxInputCharsPerWord
	if maxChars == 0 {
		maxChars = 100
	}
	unk := func() ([]int, []api.TokenSpan) {
		if t.unkID < 0 {
			return nil, nil
		}
		return []int{t.unkID}, []api.TokenSpan{w.span}
	}
	if len(runes) > maxChars {
		return unk()
	}

	prefix := t.tokenizer.Model.ContinuingSubwordPrefix
	if prefix == "" {
		prefix = "##"
	}

	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for start < end {
			substr := runesToString(runes[start:end])
			if start > 0 {
				substr = prefix + substr
			}
			if id, ok := t.tokenizer.Model.Vocab[substr]; ok {
				ids = append(ids, id)
				spans = append(spans, api.TokenSpan{
					Start: w.span.Start + runes[start].origStart,
					End:   w.span.Start + runes[end-1].origEnd,
				})
				found = true
				break
			}
			end--
		}
		if !found {
			return unk()
		}
		start = end
	}
	return ids, spans
}

func runesToString(nrs []normalizedRune) string {
	var sb strings.Builder
	for _, nr := range nrs {
		sb.WriteRune(nr.r)
	}
	return sb.String()
}

// Decode converts a sequence of token IDs back to text, including special
// tokens. Use DecodeSkipSpecial to drop them.
func (t *Tokenizer) Decode(ids []int) string {
	return t.decode(ids, false)
}

// DecodeSkipSpecial converts token IDs back to text, dropping special tokens
// (classification, separator, padding, mask).
func (t *Tokenizer) DecodeSkipSpecial(ids []int) string {
	return t.decode(ids, true)
}

func (t *Tokenizer) decode(ids []int, skipSpecial bool) string {
	prefix := t.tokenizer.Model.ContinuingSubwordPrefix
	if prefix == "" {
		prefix = "##"
	}
	if t.tokenizer.Decoder != nil && t.tokenizer.Decoder.Prefix != "" {
		prefix = t.tokenizer.Decoder.Prefix
	}

	var sb strings.Builder
	for _, id := range ids {
		if skipSpecial && t.specialIDs[id] {
			continue
		}
		token, ok := t.idToToken[id]
		if !ok {
			continue
		}
		if rest, isContinuation := strings.CutPrefix(token, prefix); isContinuation {
			sb.WriteString(rest)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(token)
	}
	return sb.String()
}

// SpecialTokenID returns the ID for a given special token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	id := -1
	switch token {
	case api.TokUnknown:
		id = t.unkID
	case api.TokPad:
		id = t.padID
	case api.TokMask:
		id = t.maskID
	case api.TokClassification, api.TokBeginningOfSentence:
		id = t.clsID
	case api.TokSeparator, api.TokEndOfSentence:
		id = t.sepID
	}
	if id < 0 {
		return 0, errors.Errorf("special token %s not found", token)
	}
	return id, nil
}

// IsSpecialID reports whether id is one of the tokenizer's special tokens.
func (t *Tokenizer) IsSpecialID(id int) bool {
	return t.specialIDs[id]
}

// VocabSize returns the size of the vocabulary including added tokens not in
// the base vocab.
func (t *Tokenizer) VocabSize() int {
	size := len(t.tokenizer.Model.Vocab)
	for _, at := range t.tokenizer.AddedTokens {
		if _, ok := t.tokenizer.Model.Vocab[at.Content]; !ok {
			size++
		}
	}
	return size
}

// TokenToID converts a token string to its ID.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedTokens[token]; ok {
		return id, true
	}
	id, ok := t.tokenizer.Model.Vocab[token]
	return id, ok
}

// IDToToken converts a token ID to its string.
func (t *Tokenizer) IDToToken(id int) (string, bool) {
	token, ok := t.idToToken[id]
	return token, ok
}

// Helper predicates, matching BERT's text cleanup rules.

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	// ASCII punctuation
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
