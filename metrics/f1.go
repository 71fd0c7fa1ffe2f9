// Package metrics implements the token-level F1 score used to track
// generative QA training: decoded predictions are compared against decoded
// references with SQuAD-style answer normalization.
package metrics

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/SamTheMar/Question-Answering-CoQA/features"
	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
)

// Decoder is the slice of the tokenizer the metric needs: turning id
// sequences back into text without special tokens, and locating the padding
// id to undo label masking.
type Decoder interface {
	DecodeSkipSpecial(ids []int) string
	SpecialTokenID(token api.SpecialToken) (int, error)
}

// EvalPrediction carries one evaluation batch: decoder label ids (with
// padding masked as features.IgnoreLabelID) and the model's predicted ids,
// row-aligned.
type EvalPrediction struct {
	LabelIDs    [][]int
	Predictions [][]int
}

// ComputeF1 decodes predictions and references and returns the mean
// token-level F1 over the batch. Label padding masked with IgnoreLabelID is
// restored to the padding token before decoding, so the ignore marker never
// reaches the tokenizer.
func ComputeF1(pred EvalPrediction, dec Decoder) (float64, error) {
	if len(pred.LabelIDs) != len(pred.Predictions) {
		return 0, errors.Errorf("got %d label rows but %d prediction rows", len(pred.LabelIDs), len(pred.Predictions))
	}
	if len(pred.LabelIDs) == 0 {
		return 0, errors.New("empty evaluation batch")
	}
	padID, err := dec.SpecialTokenID(api.TokPad)
	if err != nil {
		return 0, errors.WithMessagef(err, "tokenizer has no padding token")
	}

	var sum float64
	for i := range pred.LabelIDs {
		reference := dec.DecodeSkipSpecial(features.UnmaskPadding(pred.LabelIDs[i], padID))
		prediction := dec.DecodeSkipSpecial(pred.Predictions[i])
		sum += F1(prediction, reference)
	}
	return sum / float64(len(pred.LabelIDs)), nil
}

// F1 computes the token-overlap F1 between a predicted and a reference
// answer, both normalized SQuAD-style first. Two empty answers score 1.
func F1(prediction, reference string) float64 {
	predTokens := normalizeAnswer(prediction)
	refTokens := normalizeAnswer(reference)
	if len(predTokens) == 0 || len(refTokens) == 0 {
		if len(predTokens) == len(refTokens) {
			return 1
		}
		return 0
	}

	refCounts := make(map[string]int, len(refTokens))
	for _, tok := range refTokens {
		refCounts[tok]++
	}
	common := 0
	for _, tok := range predTokens {
		if refCounts[tok] > 0 {
			refCounts[tok]--
			common++
		}
	}
	if common == 0 {
		return 0
	}
	precision := float64(common) / float64(len(predTokens))
	recall := float64(common) / float64(len(refTokens))
	return 2 * precision * recall / (precision + recall)
}

// normalizeAnswer lowercases, strips punctuation and the articles a/an/the,
// and splits on whitespace, matching the official SQuAD answer
// normalization.
func normalizeAnswer(s string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) {
			continue
		}
		sb.WriteRune(r)
	}
	var tokens []string
	for _, tok := range strings.Fields(sb.String()) {
		if tok == "a" || tok == "an" || tok == "the" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
