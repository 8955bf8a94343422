// Package note contains all HTTP handlers for the Note resource.
//
// Handlers are built with the closure / factory pattern: a factory
// receives its dependencies (storage) once at startup and returns the
// http.HandlerFunc that runs on every request.
//
//	r.Post("/notes", note.New(store))
//
// Mutating endpoints answer with JSON, unless the client sends its view
// state in ?location=, in which case they answer with the rendered notes
// tree (see package react). The location is parsed before the store is
// touched: a malformed one is a 400 and nothing changes.
//
// Create and update accept a JSON body or an HTML form (title, body).
package note

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/aanand-mishra/notes-api/internal/http/handlers/react"
	"github.com/aanand-mishra/notes-api/internal/storage"
	"github.com/aanand-mishra/notes-api/internal/types"
	"github.com/aanand-mishra/notes-api/internal/utils/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// validate caches struct metadata across requests.
var validate = validator.New()

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid id: must be an integer")
	}
	return id, nil
}

// maxFormMemory bounds the part of a multipart form held in memory.
const maxFormMemory = 1 << 20

// formType returns the media type of a body sent by an HTML form, or ""
// for anything else.
func formType(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return mediaType
	}
	return ""
}

// parseLocation returns the client's view state when one was sent. On
// failure it has already written the 400 response and returns false.
func parseLocation(w http.ResponseWriter, r *http.Request) (loc types.Location, render, ok bool) {
	if !react.HasLocation(r) {
		return loc, false, true
	}
	loc, err := react.ParseLocation(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err)
		return loc, false, false
	}
	return loc, true, true
}

// decodeInput reads and validates a NoteInput. On failure it has already
// written the 400 response and returns false.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.NoteInput, bool) {
	var input types.NoteInput

	if mediaType := formType(r); mediaType != "" {
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxFormMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return input, false
		}
		input.Title = r.PostFormValue("title")
		input.Body = r.PostFormValue("body")
	} else {
		err := json.NewDecoder(r.Body).Decode(&input)
		if errors.Is(err, io.EOF) {
			response.WriteError(w, http.StatusBadRequest, errors.New("request body is empty"))
			return input, false
		}
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return input, false
		}
	}

	if err := validate.Struct(input); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
			return input, false
		}
		response.WriteError(w, http.StatusBadRequest, err)
		return input, false
	}

	return input, true
}

// storageStatus maps a storage error onto an HTTP status code.
func storageStatus(err error) int {
	if errors.Is(err, storage.ErrNoteNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /notes
//
// Request body:
//
//	{ "title": "Groceries", "body": "milk, eggs" }
//
// 201 Created with the stored note, or the rendered tree with the new
// note selected when ?location= is present.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a note")

		loc, render, ok := parseLocation(w, r)
		if !ok {
			return
		}
		input, ok := decodeInput(w, r)
		if !ok {
			return
		}

		note, err := store.CreateNote(r.Context(), input.Title, input.Body)
		if err != nil {
			slog.Error("error creating note", slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, err)
			return
		}

		slog.Info("note created", slog.Int64("id", note.ID))

		if render {
			loc.SelectedID = &note.ID
			react.Send(store, w, r, loc)
			return
		}
		response.WriteJSON(w, http.StatusCreated, note)
	}
}

// GetByID handles GET /notes/{id}.
//
// A missing note is not an error here: the response is 200 with a JSON
// null body, so clients can treat "not found" as an empty read.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}
		slog.Info("getting a note", slog.Int64("id", id))

		note, err := store.GetNoteByID(r.Context(), id)
		if errors.Is(err, storage.ErrNoteNotFound) {
			response.WriteJSON(w, http.StatusOK, nil)
			return
		}
		if err != nil {
			slog.Error("error getting note",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, note)
	}
}

// GetList handles GET /notes. Notes come newest first; an empty store
// yields [] rather than null.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all notes")

		notes, err := store.GetNotes(r.Context())
		if err != nil {
			slog.Error("error getting notes", slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, notes)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /notes/{id}, and POST /notes/{id} for HTML forms.
// Replaces title and body; id and created_at never change.
//
// 200 with the updated note (or the rendered tree), 404 when the note
// does not exist.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}
		slog.Info("updating a note", slog.Int64("id", id))

		loc, render, ok := parseLocation(w, r)
		if !ok {
			return
		}
		input, ok := decodeInput(w, r)
		if !ok {
			return
		}

		updated, err := store.UpdateNoteByID(r.Context(), id, input.Title, input.Body)
		if err != nil {
			slog.Error("error updating note",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, storageStatus(err), err)
			return
		}

		slog.Info("note updated", slog.Int64("id", id))

		if render {
			react.Send(store, w, r, loc)
			return
		}
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /notes/{id}.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}
		slog.Info("deleting a note", slog.Int64("id", id))

		loc, render, ok := parseLocation(w, r)
		if !ok {
			return
		}
		if err := store.DeleteNoteByID(r.Context(), id); err != nil {
			slog.Error("error deleting note",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, storageStatus(err), err)
			return
		}

		slog.Info("note deleted", slog.Int64("id", id))

		if render {
			react.Send(store, w, r, loc)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusDeleted})
	}
}

// Sleep handles GET /sleep/{ms}: it waits ms milliseconds, capped at
// maxSleep, then answers {"ok": true}. A client that goes away ends the wait.
func Sleep(maxSleep time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := strconv.ParseInt(chi.URLParam(r, "ms"), 10, 64)
		if err != nil || ms < 0 {
			response.WriteError(w, http.StatusBadRequest,
				errors.New("invalid ms: must be a non-negative integer"))
			return
		}

		d := time.Duration(ms) * time.Millisecond
		if maxSleep > 0 && d > maxSleep {
			d = maxSleep
		}

		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-r.Context().Done():
			slog.Info("sleep cancelled", slog.Int64("ms", ms))
			return
		case <-t.C:
		}

		response.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
