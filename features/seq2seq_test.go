package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSeq2Seq(t *testing.T) {
	tok := newTestTokenizer(t)

	f, err := EncodeSeq2Seq(tok, testQuestion, testStory, "the cat",
		Seq2SeqOptions{MaxSourceLength: 16, MaxTargetLength: 6})
	require.NoError(t, err)

	require.Len(t, f.InputIDs, 16)
	require.Len(t, f.AttentionMask, 16)
	require.Len(t, f.Labels, 6)

	// what ? the cat sat on the mat . [SEP] [PAD]...
	// (the WordPiece separator doubles as the end-of-sentence token)
	want := []int{7, 8, 1, 2, 3, 4, 1, 5, 6, testSepID,
		testPadID, testPadID, testPadID, testPadID, testPadID, testPadID}
	assert.Equal(t, want, f.InputIDs)
	for i := range f.InputIDs {
		wantMask := 0
		if i < 10 {
			wantMask = 1
		}
		assert.Equal(t, wantMask, f.AttentionMask[i], "attention mask at %d", i)
	}

	// the cat [SEP] then masked padding.
	assert.Equal(t, []int{1, 2, testSepID, IgnoreLabelID, IgnoreLabelID, IgnoreLabelID}, f.Labels)
}

func TestEncodeSeq2Seq_TruncatesStoryOnly(t *testing.T) {
	tok := newTestTokenizer(t)

	f, err := EncodeSeq2Seq(tok, testQuestion, testStory, "cat",
		Seq2SeqOptions{MaxSourceLength: 6, MaxTargetLength: 4})
	require.NoError(t, err)

	// Question (2 tokens) + 3 context tokens + EOS fill the source exactly.
	assert.Equal(t, []int{7, 8, 1, 2, 3, testSepID}, f.InputIDs)
}

func TestEncodeSeq2Seq_TruncatesLongAnswer(t *testing.T) {
	tok := newTestTokenizer(t)

	f, err := EncodeSeq2Seq(tok, testQuestion, testStory, "the cat sat on the mat",
		Seq2SeqOptions{MaxSourceLength: 16, MaxTargetLength: 3})
	require.NoError(t, err)
	// Two answer tokens survive, the terminator always fits.
	assert.Equal(t, []int{1, 2, testSepID}, f.Labels)
}

func TestEncodeSeq2Seq_QuestionTooLong(t *testing.T) {
	tok := newTestTokenizer(t)

	_, err := EncodeSeq2Seq(tok, "what what what what", testStory, "cat",
		Seq2SeqOptions{MaxSourceLength: 4, MaxTargetLength: 4})
	require.Error(t, err)
}

func TestMaskUnmaskPadding(t *testing.T) {
	ids := []int{5, 6, testPadID, testPadID}
	masked := MaskPadding(ids, testPadID)
	assert.Equal(t, []int{5, 6, IgnoreLabelID, IgnoreLabelID}, masked)
	assert.Equal(t, ids, UnmaskPadding(masked, testPadID))
}
