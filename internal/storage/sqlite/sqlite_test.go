package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/aanand-mishra/notes-api/internal/config"
	"github.com/aanand-mishra/notes-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *SQLite {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return s
}

func TestOpen_SeedsDemoNotes(t *testing.T) {
	s := openTest(t)

	notes, err := s.GetNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 5)
	assert.Equal(t, int64(5), notes[0].ID)
	assert.Equal(t, "Add a new note", notes[0].Title)
	assert.Equal(t, storage.SeedNotes()[0].CreatedAt, notes[0].CreatedAt)
}

func TestGetNoteByID_Missing(t *testing.T) {
	s := openTest(t)

	note, err := s.GetNoteByID(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
	assert.Equal(t, int64(0), note.ID)
}

func TestNew_FileDatabaseSeedsOnce(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{Driver: config.DriverSQLite, Path: t.TempDir() + "/notes.db"}}

	s, err := New(cfg)
	require.NoError(t, err)
	_, err = s.CreateNote(context.Background(), "kept", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(cfg)
	require.NoError(t, err)
	defer s.Close()

	notes, err := s.GetNotes(context.Background())
	require.NoError(t, err)
	assert.Len(t, notes, 6)
}

func TestCreateNote_IncrementsIDAndListsFirst(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	a, err := s.CreateNote(ctx, "a", "body a")
	require.NoError(t, err)
	b, err := s.CreateNote(ctx, "b", "body b")
	require.NoError(t, err)

	assert.Equal(t, int64(6), a.ID)
	assert.Equal(t, int64(7), b.ID)

	notes, err := s.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, notes[0].ID)
}

func TestUpdateNoteByID(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	created, err := s.CreateNote(ctx, "draft", "old")
	require.NoError(t, err)

	updated, err := s.UpdateNoteByID(ctx, created.ID, "final", "new")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "new", updated.Body)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	_, err = s.UpdateNoteByID(ctx, 1000, "x", "y")
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
}

func TestDeleteNoteByID(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.DeleteNoteByID(ctx, 2))

	_, err := s.GetNoteByID(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)

	notes, err := s.GetNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 4)

	assert.ErrorIs(t, s.DeleteNoteByID(ctx, 2), storage.ErrNoteNotFound)
}

func TestSearchNotes(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.CreateNote(ctx, "100% done_ish", "")
	require.NoError(t, err)

	notes, err := s.SearchNotes(ctx, "meeting")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(1), notes[0].ID)

	// Wildcards in the search text match literally.
	notes, err = s.SearchNotes(ctx, "0% done_")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "100% done_ish", notes[0].Title)

	notes, err = s.SearchNotes(ctx, "%")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestSearchNotes_FoldsUnicodeCase(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.CreateNote(ctx, "École d'été", "")
	require.NoError(t, err)

	for _, text := range []string{"ÉCOLE", "école", "D'ÉTÉ", "MEETING"} {
		notes, err := s.SearchNotes(ctx, text)
		require.NoError(t, err)
		assert.Len(t, notes, 1, text)
	}
}
