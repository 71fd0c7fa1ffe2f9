package wordpiece

import (
	"testing"

	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
)

// Test tokenizer.json content for a WordPiece model (BERT-style).
var testTokenizerJSON = []byte(`{
  "version": "1.0",
  "added_tokens": [
    {"id": 0, "content": "[PAD]", "special": true},
    {"id": 100, "content": "[UNK]", "special": true},
    {"id": 101, "content": "[CLS]", "special": true},
    {"id": 102, "content": "[SEP]", "special": true},
    {"id": 103, "content": "[MASK]", "special": true}
  ],
  "normalizer": {
    "type": "BertNormalizer",
    "lowercase": true
  },
  "pre_tokenizer": {
    "type": "BertPreTokenizer"
  },
  "decoder": {
    "type": "WordPiece",
    "prefix": "##"
  },
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "continuing_subword_prefix": "##",
    "max_input_chars_per_word": 100,
    "vocab": {
      "[PAD]": 0,
      "[UNK]": 100,
      "[CLS]": 101,
      "[SEP]": 102,
      "[MASK]": 103,
      "the": 1,
      "cat": 2,
      "sat": 3,
      "on": 4,
      "mat": 5,
      ".": 6,
      "what": 7,
      "?": 8,
      "test": 9,
      "##ing": 10,
      "##s": 11,
      "resume": 12
    }
  }
}`)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewFromContent(nil, testTokenizerJSON)
	if err != nil {
		t.Fatalf("NewFromContent failed: %v", err)
	}
	return tok
}

func TestEncode(t *testing.T) {
	tok := newTestTokenizer(t)

	ids := tok.Encode("The cat sat on the mat.")
	want := []int{1, 2, 3, 4, 1, 5, 6}
	if !intSliceEqual(ids, want) {
		t.Errorf("Encode = %v, want %v", ids, want)
	}
}

func TestEncodeWithSpans_CoversInput(t *testing.T) {
	tok := newTestTokenizer(t)

	text := "The cat sat on the mat."
	result := tok.EncodeWithSpans(text)
	if len(result.IDs) != len(result.Spans) {
		t.Fatalf("len(IDs)=%d != len(Spans)=%d", len(result.IDs), len(result.Spans))
	}
	// "cat" is the second token and must point back at characters 4..7.
	if got := result.Spans[1]; got.Start != 4 || got.End != 7 {
		t.Errorf("span for \"cat\" = %+v, want {4 7}", got)
	}
	for i, span := range result.Spans {
		if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
			t.Errorf("token %d: invalid span %+v", i, span)
		}
	}
}

func TestEncodeWithSpans_Subwords(t *testing.T) {
	tok := newTestTokenizer(t)

	text := "testing cats"
	result := tok.EncodeWithSpans(text)
	want := []int{9, 10, 2, 11}
	if !intSliceEqual(result.IDs, want) {
		t.Fatalf("IDs = %v, want %v", result.IDs, want)
	}
	// "##ing" must cover exactly "ing" of the raw text.
	if got := text[result.Spans[1].Start:result.Spans[1].End]; got != "ing" {
		t.Errorf("span for \"##ing\" covers %q, want \"ing\"", got)
	}
	if got := text[result.Spans[3].Start:result.Spans[3].End]; got != "s" {
		t.Errorf("span for \"##s\" covers %q, want \"s\"", got)
	}
}

func TestEncodeWithSpans_AccentStripping(t *testing.T) {
	tok := newTestTokenizer(t)

	// "résumé" normalizes to "resume"; the token span must still cover the
	// accented raw bytes.
	text := "résumé"
	result := tok.EncodeWithSpans(text)
	if len(result.IDs) != 1 || result.IDs[0] != 12 {
		t.Fatalf("IDs = %v, want [12]", result.IDs)
	}
	if got := text[result.Spans[0].Start:result.Spans[0].End]; got != text {
		t.Errorf("span covers %q, want %q", got, text)
	}
}

func TestEncode_UnknownWord(t *testing.T) {
	tok := newTestTokenizer(t)

	ids := tok.Encode("zebra")
	if !intSliceEqual(ids, []int{100}) {
		t.Errorf("Encode(zebra) = %v, want [100] ([UNK])", ids)
	}
}

func TestDecode(t *testing.T) {
	tok := newTestTokenizer(t)

	if got := tok.Decode([]int{9, 10, 2}); got != "testing cat" {
		t.Errorf("Decode = %q, want %q", got, "testing cat")
	}
	if got := tok.Decode([]int{101, 2, 102}); got != "[CLS] cat [SEP]" {
		t.Errorf("Decode = %q, want %q", got, "[CLS] cat [SEP]")
	}
	if got := tok.DecodeSkipSpecial([]int{101, 2, 102, 0, 0}); got != "cat" {
		t.Errorf("DecodeSkipSpecial = %q, want %q", got, "cat")
	}
}

func TestSpecialTokenID(t *testing.T) {
	tok := newTestTokenizer(t)

	cases := []struct {
		token api.SpecialToken
		want  int
	}{
		{api.TokPad, 0},
		{api.TokUnknown, 100},
		{api.TokClassification, 101},
		{api.TokSeparator, 102},
		{api.TokMask, 103},
	}
	for _, c := range cases {
		got, err := tok.SpecialTokenID(c.token)
		if err != nil {
			t.Errorf("SpecialTokenID(%s) failed: %v", c.token, err)
			continue
		}
		if got != c.want {
			t.Errorf("SpecialTokenID(%s) = %d, want %d", c.token, got, c.want)
		}
	}

	if !tok.IsSpecialID(101) {
		t.Error("IsSpecialID(101) = false, want true")
	}
	if tok.IsSpecialID(2) {
		t.Error("IsSpecialID(2) = true, want false")
	}
}

func TestNewFromContent_RejectsBPE(t *testing.T) {
	_, err := NewFromContent(nil, []byte(`{"model": {"type": "BPE"}}`))
	if err == nil {
		t.Fatal("expected error for BPE model type")
	}
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
