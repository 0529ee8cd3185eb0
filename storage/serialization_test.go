package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searcheval/core"
)

func TestIndexEntry_RoundTrip(t *testing.T) {
	entry := IndexEntry{
		Document: core.Document{
			ID:      "doc-1",
			Content: "Some chunk content with unicode: héllo",
			Metadata: map[string]string{
				"parent_id": "parent",
				"chunker":   "recursive",
			},
		},
		Vector: []float32{0.25, -0.5, 0.125},
	}

	decoded, err := UnmarshalIndexEntry(MarshalIndexEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestIndexEntry_EmptyFields(t *testing.T) {
	entry := IndexEntry{Document: core.Document{ID: "bare", Content: "x"}}

	decoded, err := UnmarshalIndexEntry(MarshalIndexEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, "bare", decoded.Document.ID)
	assert.Nil(t, decoded.Document.Metadata)
	assert.Nil(t, decoded.Vector)
}

func TestIndexEntry_DeterministicEncoding(t *testing.T) {
	entry := IndexEntry{
		Document: core.Document{
			ID:      "d",
			Content: "c",
			Metadata: map[string]string{
				"b": "2", "a": "1", "c": "3",
			},
		},
	}

	first := MarshalIndexEntry(entry)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MarshalIndexEntry(entry))
	}
}

func TestIndexEntry_TruncatedData(t *testing.T) {
	entry := IndexEntry{
		Document: core.Document{ID: "doc", Content: "content"},
		Vector:   []float32{1, 2, 3},
	}
	data := MarshalIndexEntry(entry)

	_, err := UnmarshalIndexEntry(data[:len(data)-4])
	assert.Error(t, err)
}

func TestCount_RoundTrip(t *testing.T) {
	for _, count := range []int{0, 1, 127, 128, 100000} {
		decoded, err := UnmarshalCount(MarshalCount(count))
		require.NoError(t, err)
		assert.Equal(t, count, decoded)
	}
}
