package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpe2go/internal/pkg/bpe2go/pretoken"
	"bpe2go/internal/pkg/bpe2go/trainer"
	"bpe2go/internal/pkg/bpe2go/vocab"
)

func newEncoder(v *vocab.Vocabulary) *Encoder {
	return New(v, pretoken.NewChunker(false))
}

func TestEncodeWithEmptyVocabulary(t *testing.T) {
	e := newEncoder(vocab.New())

	assert.Equal(t, []vocab.Symbol{104, 105}, e.Encode("hi"))
	assert.Empty(t, e.Encode(""))
}

func TestEncodeAppliesEarliestMergeFirst(t *testing.T) {
	v := vocab.New()
	v.Register([]vocab.Pair{{A: 97, B: 98}}) // 256
	v.Register([]vocab.Pair{{A: 98, B: 99}}) // 257

	// Both merges could start the chunk "abc"; the earlier-registered one
	// wins and consumes the b that the later one needed.
	assert.Equal(t, []vocab.Symbol{256, 99}, newEncoder(v).Encode("abc"))
}

func TestEncodeRunsLeftToRightOnEqualMerges(t *testing.T) {
	v := vocab.New()
	v.Register([]vocab.Pair{{A: 97, B: 97}}) // 256

	e := newEncoder(v)
	assert.Equal(t, []vocab.Symbol{256, 97}, e.Encode("aaa"))
	assert.Equal(t, []vocab.Symbol{256, 256}, e.Encode("aaaa"))
}

func TestEncodeFollowsMergeChain(t *testing.T) {
	v := vocab.New()
	v.Register([]vocab.Pair{{A: 97, B: 97}})   // 256
	v.Register([]vocab.Pair{{A: 256, B: 256}}) // 257

	assert.Equal(t, []vocab.Symbol{257}, newEncoder(v).Encode("aaaa"))
	assert.Equal(t, []vocab.Symbol{257, 97}, newEncoder(v).Encode("aaaaa"))
}

func TestEncodeStopsAtChunkBoundaries(t *testing.T) {
	v := vocab.New()
	v.Register([]vocab.Pair{{A: 97, B: 32}}) // letter then space

	// "a b" chunks as ["a", " b"], so the a-space adjacency never exists
	// inside a chunk and the merge cannot apply.
	assert.Equal(t, []vocab.Symbol{97, 32, 98}, newEncoder(v).Encode("a b"))
}

func TestEncodeMatchesTrainingOutput(t *testing.T) {
	text := "the cat sat on the mat, the cat sat on the mat"

	tr, err := trainer.New(trainer.DefaultConfig())
	require.NoError(t, err)
	trained := tr.Train(text)
	require.Equal(t, trainer.Converged, trained.Outcome)

	e := newEncoder(trained.Vocabulary)
	decoded, err := e.Decode(e.Encode(text))
	require.NoError(t, err)
	assert.Equal(t, text, string(decoded))
}

func TestDecodeExpandsNestedMerges(t *testing.T) {
	v := vocab.New()
	v.Register([]vocab.Pair{{A: 97, B: 98}})  // 256 = "ab"
	v.Register([]vocab.Pair{{A: 256, B: 99}}) // 257 = "abc"

	b, err := newEncoder(v).Decode([]vocab.Symbol{257, 33})
	require.NoError(t, err)
	assert.Equal(t, "abc!", string(b))
}

func TestDecodeRejectsUnknownSymbol(t *testing.T) {
	_, err := newEncoder(vocab.New()).Decode([]vocab.Symbol{300})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown symbol 300")
}
