package features

import (
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/SamTheMar/Question-Answering-CoQA/tokenizers/api"
)

// Parquet cache for prepared span features, so downstream training runs can
// skip re-tokenizing a split.

type spanFeatureRow struct {
	SampleIndex   int32   `parquet:"sample_index"`
	InputIDs      []int32 `parquet:"input_ids"`
	AttentionMask []int32 `parquet:"attention_mask"`
	OffsetStarts  []int32 `parquet:"offset_starts"`
	OffsetEnds    []int32 `parquet:"offset_ends"`
	SequenceIDs   []int32 `parquet:"sequence_ids"`
	StartPosition int32   `parquet:"start_position"`
	EndPosition   int32   `parquet:"end_position"`
}

// WriteSpanFeatures writes features and their labels to a parquet file, one
// row per feature.
func WriteSpanFeatures(path string, feats []SpanFeature, labels []SpanLabel) error {
	if len(feats) != len(labels) {
		return errors.Errorf("got %d features but %d labels", len(feats), len(labels))
	}
	rows := make([]spanFeatureRow, len(feats))
	for i := range feats {
		f := &feats[i]
		row := spanFeatureRow{
			SampleIndex:   int32(f.SampleIndex),
			InputIDs:      toInt32(f.InputIDs),
			AttentionMask: toInt32(f.AttentionMask),
			SequenceIDs:   toInt32(f.SequenceIDs),
			OffsetStarts:  make([]int32, len(f.Offsets)),
			OffsetEnds:    make([]int32, len(f.Offsets)),
			StartPosition: int32(labels[i].Start),
			EndPosition:   int32(labels[i].End),
		}
		for j, span := range f.Offsets {
			row.OffsetStarts[j] = int32(span.Start)
			row.OffsetEnds[j] = int32(span.End)
		}
		rows[i] = row
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return errors.Wrapf(err, "failed to write feature cache %q", path)
	}
	return nil
}

// ReadSpanFeatures reads back a feature cache written by WriteSpanFeatures.
func ReadSpanFeatures(path string) ([]SpanFeature, []SpanLabel, error) {
	rows, err := parquet.ReadFile[spanFeatureRow](path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read feature cache %q", path)
	}
	feats := make([]SpanFeature, len(rows))
	labels := make([]SpanLabel, len(rows))
	for i := range rows {
		row := &rows[i]
		if len(row.OffsetStarts) != len(row.OffsetEnds) {
			return nil, nil, errors.Errorf("row %d of %q has mismatched offset columns", i, path)
		}
		f := SpanFeature{
			SampleIndex:   int(row.SampleIndex),
			InputIDs:      toInt(row.InputIDs),
			AttentionMask: toInt(row.AttentionMask),
			SequenceIDs:   toInt(row.SequenceIDs),
			Offsets:       make([]api.TokenSpan, len(row.OffsetStarts)),
		}
		for j := range row.OffsetStarts {
			f.Offsets[j] = api.TokenSpan{Start: int(row.OffsetStarts[j]), End: int(row.OffsetEnds[j])}
		}
		feats[i] = f
		labels[i] = SpanLabel{Start: int(row.StartPosition), End: int(row.EndPosition)}
	}
	return feats, labels, nil
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func toInt(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
