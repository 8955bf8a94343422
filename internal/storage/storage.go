// Package storage defines the Storage interface, the contract that any
// notes backend must satisfy to work with this application.
//
// Handlers depend only on this interface. The in-memory store and the
// SQLite store are interchangeable and selected by configuration in
// main.go.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/notes-api/internal/types"
)

// ErrNoteNotFound is returned when no note has the requested id.
var ErrNoteNotFound = errors.New("note not found")

// Storage is the notes contract.
type Storage interface {
	// CreateNote inserts a new note and returns it with its assigned id
	// and timestamps. Ids strictly increase.
	CreateNote(ctx context.Context, title, body string) (types.Note, error)

	// GetNoteByID fetches a single note. Returns ErrNoteNotFound if it
	// does not exist.
	GetNoteByID(ctx context.Context, id int64) (types.Note, error)

	// GetNotes returns every note, newest first.
	// Returns an empty slice (not nil) when there are no notes.
	GetNotes(ctx context.Context) ([]types.Note, error)

	// SearchNotes returns the notes whose title contains text,
	// case-insensitively, newest first. An empty text matches everything.
	// Case folding is strings.ToLower in every backend, so non-ASCII
	// titles ("ÉCOLE" vs "école") match the same way everywhere.
	SearchNotes(ctx context.Context, text string) ([]types.Note, error)

	// UpdateNoteByID replaces title and body and bumps updated_at.
	// id and created_at are preserved.
	UpdateNoteByID(ctx context.Context, id int64, title, body string) (types.Note, error)

	// DeleteNoteByID removes a note. Returns ErrNoteNotFound if it
	// does not exist.
	DeleteNoteByID(ctx context.Context, id int64) error

	// Close releases the backend's resources.
	Close() error
}
