// Package memory provides an in-memory implementation of the
// storage.Storage interface.
//
// Notes live in a slice ordered newest first. A sync.RWMutex guards the
// slice and the id counter, so concurrent handlers never race on them.
// Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aanand-mishra/notes-api/internal/storage"
	"github.com/aanand-mishra/notes-api/internal/types"
)

const backend = "memory"

// Memory is the in-memory store.
type Memory struct {
	mu     sync.RWMutex
	notes  []types.Note
	lastID int64

	now     func() time.Time
	latency time.Duration
}

// Option configures a Memory store.
type Option func(*Memory)

// WithClock overrides the clock used to stamp created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// WithLatency delays every operation by d, imitating a remote database.
func WithLatency(d time.Duration) Option {
	return func(m *Memory) {
		m.latency = d
	}
}

// WithNotes replaces the seed data. notes must be ordered newest first.
func WithNotes(notes []types.Note) Option {
	return func(m *Memory) {
		m.notes = append([]types.Note(nil), notes...)
	}
}

// New returns a store seeded with storage.SeedNotes unless WithNotes
// says otherwise.
func New(opts ...Option) *Memory {
	m := &Memory{
		notes: storage.SeedNotes(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, n := range m.notes {
		if n.ID > m.lastID {
			m.lastID = n.ID
		}
	}
	return m
}

func (m *Memory) sleep(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// indexOf must be called with mu held.
func (m *Memory) indexOf(id int64) int {
	for i, n := range m.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// CreateNote prepends a note with the next id and stamps both times.
func (m *Memory) CreateNote(ctx context.Context, title, body string) (types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "CreateNote")
	defer span.End()

	if err := m.sleep(ctx); err != nil {
		return types.Note{}, fmt.Errorf("CreateNote: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	now := m.now()
	note := types.Note{
		ID:        m.lastID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.notes = append([]types.Note{note}, m.notes...)
	return note, nil
}

// GetNoteByID returns storage.ErrNoteNotFound for an unknown id.
func (m *Memory) GetNoteByID(ctx context.Context, id int64) (types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "GetNoteByID")
	defer span.End()

	if err := m.sleep(ctx); err != nil {
		return types.Note{}, fmt.Errorf("GetNoteByID: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Note{}, fmt.Errorf("no note found with id %d: %w", id, storage.ErrNoteNotFound)
	}
	return m.notes[i], nil
}

// GetNotes returns every note, newest first.
func (m *Memory) GetNotes(ctx context.Context) ([]types.Note, error) {
	return m.SearchNotes(ctx, "")
}

// SearchNotes matches titles with strings.ToLower on both sides.
func (m *Memory) SearchNotes(ctx context.Context, text string) ([]types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "SearchNotes")
	defer span.End()

	if err := m.sleep(ctx); err != nil {
		return nil, fmt.Errorf("SearchNotes: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(text)
	notes := make([]types.Note, 0, len(m.notes))
	for _, n := range m.notes {
		if needle == "" || strings.Contains(strings.ToLower(n.Title), needle) {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

// UpdateNoteByID replaces title and body in place and bumps updated_at.
func (m *Memory) UpdateNoteByID(ctx context.Context, id int64, title, body string) (types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "UpdateNoteByID")
	defer span.End()

	if err := m.sleep(ctx); err != nil {
		return types.Note{}, fmt.Errorf("UpdateNoteByID: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Note{}, fmt.Errorf("no note found with id %d: %w", id, storage.ErrNoteNotFound)
	}
	m.notes[i].Title = title
	m.notes[i].Body = body
	m.notes[i].UpdatedAt = m.now()
	return m.notes[i], nil
}

// DeleteNoteByID removes the note, keeping the order of the rest.
func (m *Memory) DeleteNoteByID(ctx context.Context, id int64) error {
	ctx, span := storage.StartSpan(ctx, backend, "DeleteNoteByID")
	defer span.End()

	if err := m.sleep(ctx); err != nil {
		return fmt.Errorf("DeleteNoteByID: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("no note found with id %d: %w", id, storage.ErrNoteNotFound)
	}
	m.notes = append(m.notes[:i], m.notes[i+1:]...)
	return nil
}

// Close is a no-op; it exists to satisfy storage.Storage.
func (m *Memory) Close() error { return nil }
