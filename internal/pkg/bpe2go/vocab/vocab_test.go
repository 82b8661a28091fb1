package vocab

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsIncreasingIdentifiers(t *testing.T) {
	v := New()

	added := v.Register([]Pair{{97, 97}, {97, 98}})
	assert.Equal(t, 2, added)

	s, ok := v.Lookup(Pair{97, 97})
	require.True(t, ok)
	assert.Equal(t, FirstMerged, s)

	s, ok = v.Lookup(Pair{97, 98})
	require.True(t, ok)
	assert.Equal(t, FirstMerged+1, s)

	added = v.Register([]Pair{{256, 98}})
	assert.Equal(t, 1, added)

	s, ok = v.Lookup(Pair{256, 98})
	require.True(t, ok)
	assert.Equal(t, FirstMerged+2, s)
	assert.Equal(t, FirstMerged+2, v.MaxSymbol())
}

func TestRegisterExistingPairIsNoop(t *testing.T) {
	v := New()
	v.Register([]Pair{{97, 97}})

	// Re-registering must neither change the identifier nor burn a new one.
	added := v.Register([]Pair{{97, 97}, {98, 98}})
	assert.Equal(t, 1, added)

	s, ok := v.Lookup(Pair{97, 97})
	require.True(t, ok)
	assert.Equal(t, FirstMerged, s)

	s, ok = v.Lookup(Pair{98, 98})
	require.True(t, ok)
	assert.Equal(t, FirstMerged+1, s)
}

func TestSnapshotInsulatedFromLaterRegistration(t *testing.T) {
	v := New()
	v.Register([]Pair{{97, 97}})

	snap := v.Snapshot()
	v.Register([]Pair{{98, 98}})

	assert.Len(t, snap, 1)
	assert.Contains(t, snap, Pair{97, 97})
	assert.NotContains(t, snap, Pair{98, 98})
}

func TestCloneIsIndependent(t *testing.T) {
	seed := New()
	seed.Register([]Pair{{97, 97}, {98, 98}})

	c := seed.Clone()
	c.Register([]Pair{{99, 99}})

	assert.Equal(t, 2, seed.Len())
	assert.Equal(t, 3, c.Len())

	// The clone continues the seed's identifier space.
	s, ok := c.Lookup(Pair{99, 99})
	require.True(t, ok)
	assert.Equal(t, FirstMerged+2, s)

	_, ok = seed.Lookup(Pair{99, 99})
	assert.False(t, ok)
}

func TestPairOfInvertsLookup(t *testing.T) {
	v := New()
	v.Register([]Pair{{104, 105}})

	p, ok := v.PairOf(FirstMerged)
	require.True(t, ok)
	assert.Equal(t, Pair{104, 105}, p)

	_, ok = v.PairOf(FirstMerged + 1)
	assert.False(t, ok)
}

func TestBytesExpansion(t *testing.T) {
	v := New()
	v.Register([]Pair{{97, 98}})  // 256 = "ab"
	v.Register([]Pair{{256, 99}}) // 257 = "abc"

	b, ok := v.Bytes(97)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), b)

	b, ok = v.Bytes(257)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), b)

	_, ok = v.Bytes(300)
	assert.False(t, ok)
}

func TestMergesSortedByIdentifier(t *testing.T) {
	v := New()
	v.Register([]Pair{{98, 98}, {97, 97}, {99, 99}})

	merges := v.Merges()
	require.Len(t, merges, 3)
	assert.Equal(t, Merge{Pair{98, 98}, 256}, merges[0])
	assert.Equal(t, Merge{Pair{97, 97}, 257}, merges[1])
	assert.Equal(t, Merge{Pair{99, 99}, 258}, merges[2])
}

func TestJSONRoundTrip(t *testing.T) {
	v := New()
	v.Register([]Pair{{97, 97}})
	v.Register([]Pair{{256, 256}})
	v.Register([]Pair{{32, 257}})

	var buf bytes.Buffer
	require.NoError(t, v.WriteJSON(&buf))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, v.Snapshot(), got.Snapshot())
	assert.Equal(t, v.MaxSymbol(), got.MaxSymbol())
}

func TestReadJSONRejectsBadArtifacts(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "malformed json",
			input:   `{"version":1,"merges":[[97,`,
			wantErr: "failed to parse",
		},
		{
			name:    "unknown version",
			input:   `{"version":2,"merges":[]}`,
			wantErr: "unsupported vocabulary version",
		},
		{
			name:    "identifier below 256",
			input:   `{"version":1,"merges":[[97,97,255]]}`,
			wantErr: "does not increase",
		},
		{
			name:    "identifiers not increasing",
			input:   `{"version":1,"merges":[[97,97,257],[98,98,256]]}`,
			wantErr: "does not increase",
		},
		{
			name:    "half references unassigned symbol",
			input:   `{"version":1,"merges":[[300,97,256]]}`,
			wantErr: "unassigned symbol",
		},
		{
			name:    "duplicate pair",
			input:   `{"version":1,"merges":[[97,97,256],[97,97,257]]}`,
			wantErr: "registered twice",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWriteMergesFormat(t *testing.T) {
	v := New()
	v.Register([]Pair{{97, 97}})
	v.Register([]Pair{{256, 99}})

	var buf bytes.Buffer
	require.NoError(t, v.WriteMerges(&buf))

	assert.Equal(t, "97 97 256\n256 99 257\n", buf.String())
}
