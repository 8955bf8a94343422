package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedNotes(t *testing.T) {
	notes := SeedNotes()
	require.Len(t, notes, 5)

	for i, n := range notes {
		assert.Equal(t, int64(5-i), n.ID)
		assert.False(t, n.UpdatedAt.Before(n.CreatedAt), n.Title)
	}

	long := notes[3]
	require.Equal(t, int64(2), long.ID)
	paragraphs := strings.Split(long.Body, "\n\n")
	require.Len(t, paragraphs, 2)
	assert.True(t, strings.HasSuffix(paragraphs[0], "in the `notes` folder."))
	assert.Equal(t,
		"![This app is powered by React](https://upload.wikimedia.org/wikipedia/commons/thumb/1/18/React_Native_Logo.png/800px-React_Native_Logo.png)",
		paragraphs[1])
}

func TestSeedNotes_ReturnsFreshSlice(t *testing.T) {
	a := SeedNotes()
	a[0].Title = "changed"
	assert.NotEqual(t, "changed", SeedNotes()[0].Title)
}
