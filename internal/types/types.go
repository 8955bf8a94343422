// Package types holds the shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and the renderer all import types without depending
// on each other.
package types

import "time"

// Note is a single note record.
//
// Timestamps are encoded as RFC 3339 strings by encoding/json, which
// matches the ISO strings the demo client expects in created_at and
// updated_at.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteInput is the request body accepted by POST /notes and PUT /notes/{id}.
//
// validate:"..." tags are checked by go-playground/validator before the
// input reaches storage.
type NoteInput struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body"  validate:"max=65536"`
}

// Location is the client-side view state carried in the ?location=
// query parameter and echoed back in the X-Location response header.
type Location struct {
	SelectedID *int64 `json:"selectedId"`
	IsEditing  bool   `json:"isEditing"`
	SearchText string `json:"searchText"`
}
