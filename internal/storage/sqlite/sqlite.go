// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The store registers its own driver, a go-sqlite3 driver whose
// connections also provide fold(), the Unicode lower-casing used by
// SearchNotes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aanand-mishra/notes-api/internal/config"
	"github.com/aanand-mishra/notes-api/internal/storage"
	"github.com/aanand-mishra/notes-api/internal/types"
	"github.com/mattn/go-sqlite3"
)

const backend = "sqlite"

// driverName is go-sqlite3 with fold() registered on every connection.
const driverName = "sqlite3_notes"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// SQLite is the concrete implementation of storage.Storage.
// Db is a connection pool and safe for concurrent use.
type SQLite struct {
	Db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database at cfg.Storage.Path, creates the notes
// table if it does not already exist, and seeds the demo notes into an
// empty table.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.Storage.Path)
}

// Open is New for callers without a full Config, such as tests using
// ":memory:".
func Open(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// An in-memory database exists per connection; pin the pool to one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	s := &SQLite{Db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.seed(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}
	return s, nil
}

// SetClock overrides the clock used for created_at/updated_at.
func (s *SQLite) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SQLite) seed(ctx context.Context) error {
	var count int
	if err := s.Db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		return fmt.Errorf("seed: count: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO notes (id, title, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("seed: prepare: %w", err)
	}
	defer stmt.Close()

	for _, n := range storage.SeedNotes() {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Title, n.Body,
			formatTime(n.CreatedAt), formatTime(n.UpdatedAt)); err != nil {
			return fmt.Errorf("seed: insert %d: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (types.Note, error) {
	var note types.Note
	var created, updated string
	if err := row.Scan(&note.ID, &note.Title, &note.Body, &created, &updated); err != nil {
		return types.Note{}, err
	}

	var err error
	if note.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return types.Note{}, fmt.Errorf("parse created_at: %w", err)
	}
	if note.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return types.Note{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return note, nil
}

// CreateNote inserts a new row. Placeholders keep user input out of the
// SQL text.
func (s *SQLite) CreateNote(ctx context.Context, title, body string) (types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "CreateNote")
	defer span.End()

	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO notes (title, body, created_at, updated_at) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return types.Note{}, fmt.Errorf("CreateNote: prepare: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	result, err := stmt.ExecContext(ctx, title, body, formatTime(now), formatTime(now))
	if err != nil {
		return types.Note{}, fmt.Errorf("CreateNote: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return types.Note{}, fmt.Errorf("CreateNote: last insert id: %w", err)
	}

	return s.GetNoteByID(ctx, lastID)
}

func (s *SQLite) GetNoteByID(ctx context.Context, id int64) (types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "GetNoteByID")
	defer span.End()

	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, title, body, created_at, updated_at FROM notes WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Note{}, fmt.Errorf("GetNoteByID: prepare: %w", err)
	}
	defer stmt.Close()

	note, err := scanNote(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, fmt.Errorf("no note found with id %d: %w", id, storage.ErrNoteNotFound)
		}
		return types.Note{}, fmt.Errorf("GetNoteByID: scan: %w", err)
	}

	return note, nil
}

func (s *SQLite) GetNotes(ctx context.Context) ([]types.Note, error) {
	return s.SearchNotes(ctx, "")
}

// likeEscaper escapes LIKE wildcards so search text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchNotes folds both sides with fold(), so matching ignores case for
// all of Unicode, like the memory store, and not only for ASCII as
// SQLite's LIKE and lower() do.
func (s *SQLite) SearchNotes(ctx context.Context, text string) ([]types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "SearchNotes")
	defer span.End()

	stmt, err := s.Db.PrepareContext(ctx,
		`SELECT id, title, body, created_at, updated_at FROM notes
		 WHERE fold(title) LIKE fold(?) ESCAPE '\' ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("SearchNotes: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, "%"+likeEscaper.Replace(text)+"%")
	if err != nil {
		return nil, fmt.Errorf("SearchNotes: query: %w", err)
	}
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("SearchNotes: scan row: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchNotes: rows iteration: %w", err)
	}

	return notes, nil
}

// UpdateNoteByID replaces title and body and returns the stored row.
func (s *SQLite) UpdateNoteByID(ctx context.Context, id int64, title, body string) (types.Note, error) {
	ctx, span := storage.StartSpan(ctx, backend, "UpdateNoteByID")
	defer span.End()

	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE notes SET title = ?, body = ?, updated_at = ? WHERE id = ?",
	)
	if err != nil {
		return types.Note{}, fmt.Errorf("UpdateNoteByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, title, body, formatTime(s.now()), id)
	if err != nil {
		return types.Note{}, fmt.Errorf("UpdateNoteByID: exec: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return types.Note{}, fmt.Errorf("no note found with id %d: %w", id, storage.ErrNoteNotFound)
	}

	return s.GetNoteByID(ctx, id)
}

func (s *SQLite) DeleteNoteByID(ctx context.Context, id int64) error {
	ctx, span := storage.StartSpan(ctx, backend, "DeleteNoteByID")
	defer span.End()

	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM notes WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteNoteByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("DeleteNoteByID: exec: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no note found with id %d: %w", id, storage.ErrNoteNotFound)
	}

	return nil
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}
