package features

import (
	"testing"

	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/wordpiece"
)

// Shared test fixture: a BERT-style WordPiece tokenizer whose vocabulary
// covers the test stories.
var testTokenizerJSON = []byte(`{
  "version": "1.0",
  "added_tokens": [
    {"id": 0, "content": "[PAD]", "special": true},
    {"id": 100, "content": "[UNK]", "special": true},
    {"id": 101, "content": "[CLS]", "special": true},
    {"id": 102, "content": "[SEP]", "special": true}
  ],
  "normalizer": {"type": "BertNormalizer", "lowercase": true},
  "pre_tokenizer": {"type": "BertPreTokenizer"},
  "decoder": {"type": "WordPiece", "prefix": "##"},
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "continuing_subword_prefix": "##",
    "vocab": {
      "[PAD]": 0,
      "[UNK]": 100,
      "[CLS]": 101,
      "[SEP]": 102,
      "the": 1,
      "cat": 2,
      "sat": 3,
      "on": 4,
      "mat": 5,
      ".": 6,
      "what": 7,
      "?": 8,
      "color": 9,
      "was": 10,
      "it": 11,
      "black": 12
    }
  }
}`)

const (
	testPadID = 0
	testClsID = 101
	testSepID = 102
)

func newTestTokenizer(t *testing.T) *wordpiece.Tokenizer {
	t.Helper()
	tok, err := wordpiece.NewFromContent(nil, testTokenizerJSON)
	if err != nil {
		t.Fatalf("NewFromContent failed: %v", err)
	}
	return tok
}
