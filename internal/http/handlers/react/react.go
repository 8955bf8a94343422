// Package react renders the notes UI tree for GET /react and for the
// mutating note endpoints when the client sends its view location.
//
// The response is streamed: the sidebar (note list) is written and
// flushed first, then the selected note is fetched and the note pane
// follows. The client's view state travels in ?location= as JSON and is
// echoed back, possibly amended, in the X-Location header.
//
// Every link and form in the page carries its target location, so the
// page works as plain HTML against this server.
package react

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/notes-api/internal/storage"
	"github.com/aanand-mishra/notes-api/internal/types"
	"github.com/aanand-mishra/notes-api/internal/utils/response"
)

// LocationParam is the query parameter carrying the client's view state.
const LocationParam = "location"

// SearchParam overrides the location's searchText; the search form
// submits it.
const SearchParam = "q"

// HeaderLocation carries the (possibly amended) view state back.
const HeaderLocation = "X-Location"

// ParseLocation reads ?location= and then ?q=. A missing location
// yields the zero Location.
func ParseLocation(r *http.Request) (types.Location, error) {
	var loc types.Location

	query := r.URL.Query()
	if raw := query.Get(LocationParam); raw != "" {
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			return types.Location{}, fmt.Errorf("invalid location: %w", err)
		}
	}
	if query.Has(SearchParam) {
		loc.SearchText = query.Get(SearchParam)
	}
	return loc, nil
}

// HasLocation reports whether the client asked for a rendered tree.
func HasLocation(r *http.Request) bool {
	return r.URL.Query().Has(LocationParam)
}

// encode renders loc as the JSON carried in links and headers.
func encode(loc types.Location) string {
	b, err := json.Marshal(loc)
	if err != nil {
		// Location holds only a pointer, a bool and a string.
		panic(err)
	}
	return string(b)
}

type sidebarItem struct {
	Note   types.Note
	Active bool
	// Link selects this note, keeping the current search.
	Link string
}

type sidebarData struct {
	Location types.Location
	// LocationJSON is resubmitted by the search form.
	LocationJSON string
	Items        []sidebarItem
	// NewNoteLink opens an empty editor.
	NewNoteLink string
}

type paneData struct {
	Location types.Location
	Note     *types.Note
	Error    string
	// EditLink opens the editor on the selected note.
	EditLink string
	// SaveLocation is where the editor lands after saving.
	SaveLocation string
}

// Send renders the tree for loc, which the caller has already parsed
// (usually with ParseLocation) before doing any work the request asked
// for.
func Send(store storage.Storage, w http.ResponseWriter, r *http.Request, loc types.Location) {
	ctx := r.Context()

	// Everything that can fail the whole response happens before the
	// first byte is written.
	notes, err := store.SearchNotes(ctx, loc.SearchText)
	if err != nil {
		slog.Error("error listing notes for tree", slog.String("error", err.Error()))
		response.WriteError(w, http.StatusInternalServerError, err)
		return
	}

	sidebar := sidebarData{
		Location:     loc,
		LocationJSON: encode(loc),
		Items:        make([]sidebarItem, 0, len(notes)),
		NewNoteLink:  encode(types.Location{IsEditing: true, SearchText: loc.SearchText}),
	}
	for _, n := range notes {
		id := n.ID
		sidebar.Items = append(sidebar.Items, sidebarItem{
			Note:   n,
			Active: loc.SelectedID != nil && *loc.SelectedID == n.ID,
			Link:   encode(types.Location{SelectedID: &id, SearchText: loc.SearchText}),
		})
	}

	w.Header().Set(HeaderLocation, encode(loc))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if err := tmpl.ExecuteTemplate(w, "sidebar", sidebar); err != nil {
		slog.Error("error rendering sidebar", slog.String("error", err.Error()))
		return
	}
	// Not every ResponseWriter can flush; the tree is still complete
	// without it.
	_ = http.NewResponseController(w).Flush()

	pane := paneData{
		Location:     loc,
		SaveLocation: encode(types.Location{SelectedID: loc.SelectedID, SearchText: loc.SearchText}),
	}
	if loc.SelectedID != nil {
		pane.EditLink = encode(types.Location{SelectedID: loc.SelectedID, IsEditing: true, SearchText: loc.SearchText})

		note, err := store.GetNoteByID(ctx, *loc.SelectedID)
		switch {
		case err == nil:
			pane.Note = &note
		case errors.Is(err, storage.ErrNoteNotFound):
		default:
			slog.Error("error loading selected note",
				slog.Int64("id", *loc.SelectedID),
				slog.String("error", err.Error()))
			pane.Error = err.Error()
		}
	}

	if err := tmpl.ExecuteTemplate(w, "pane", pane); err != nil {
		slog.Error("error rendering note pane", slog.String("error", err.Error()))
	}
}

// Tree handles GET /react.
func Tree(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("rendering notes tree")

		loc, err := ParseLocation(r)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}
		Send(store, w, r, loc)
	}
}

// Shell handles GET /: the HTML document that bootstraps the client.
func Shell() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(shell))
	}
}
