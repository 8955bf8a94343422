package react

import (
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/aanand-mishra/notes-api/internal/storage/memory"
	"github.com/aanand-mishra/notes-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, location string) *httptest.ResponseRecorder {
	t.Helper()
	target := "/react"
	if location != "" {
		target += "?location=" + url.QueryEscape(location)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// locationsIn returns the decoded ?location= values of every match of
// re, whose first group must capture the escaped parameter.
func locationsIn(t *testing.T, re *regexp.Regexp, body string) []types.Location {
	t.Helper()
	var locs []types.Location
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		raw, err := url.QueryUnescape(html.UnescapeString(m[1]))
		require.NoError(t, err)
		var loc types.Location
		require.NoError(t, json.Unmarshal([]byte(raw), &loc), raw)
		locs = append(locs, loc)
	}
	return locs
}

var (
	sidebarLink = regexp.MustCompile(`class="sidebar-note-open" href="/react\?location=([^"]+)"`)
	editLink    = regexp.MustCompile(`class="edit-button edit-button--outline" role="menuitem" href="/react\?location=([^"]+)"`)
	editorForm  = regexp.MustCompile(`method="post" action="/notes(?:/\d+)?\?location=([^"]+)"`)
)

func TestParseLocation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/react", nil)
	loc, err := ParseLocation(req)
	require.NoError(t, err)
	assert.Equal(t, types.Location{}, loc)

	req = httptest.NewRequest(http.MethodGet,
		"/react?location="+url.QueryEscape(`{"selectedId":3,"isEditing":true,"searchText":"make"}`), nil)
	loc, err = ParseLocation(req)
	require.NoError(t, err)
	require.NotNil(t, loc.SelectedID)
	assert.Equal(t, int64(3), *loc.SelectedID)
	assert.True(t, loc.IsEditing)
	assert.Equal(t, "make", loc.SearchText)
}

func TestParseLocation_SearchParamOverrides(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/react?location="+url.QueryEscape(`{"selectedId":2,"searchText":"old"}`)+"&q=meet", nil)
	loc, err := ParseLocation(req)
	require.NoError(t, err)
	require.NotNil(t, loc.SelectedID)
	assert.Equal(t, int64(2), *loc.SelectedID)
	assert.Equal(t, "meet", loc.SearchText)

	loc, err = ParseLocation(httptest.NewRequest(http.MethodGet, "/react?q=meeting", nil))
	require.NoError(t, err)
	assert.Nil(t, loc.SelectedID)
	assert.Equal(t, "meeting", loc.SearchText)
}

func TestTree_RendersListAndSelectedNote(t *testing.T) {
	h := Tree(memory.New())

	rec := get(t, h, `{"selectedId":4,"isEditing":false,"searchText":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	var loc types.Location
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get(HeaderLocation)), &loc))
	require.NotNil(t, loc.SelectedID)
	assert.Equal(t, int64(4), *loc.SelectedID)

	body := rec.Body.String()
	assert.Contains(t, body, "Meeting Notes")
	assert.Contains(t, body, `<h1 class="note-title">I wrote this note today</h1>`)
	assert.Contains(t, body, `sidebar-note-list-item--active" data-id="4"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</html>"))
}

func TestTree_SearchFilters(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"selectedId":null,"isEditing":false,"searchText":"meeting"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Meeting Notes")
	assert.NotContains(t, body, "Make a thing")
	assert.Contains(t, body, "Click a note on the left")
}

func TestTree_SearchFormQueryFilters(t *testing.T) {
	rec := httptest.NewRecorder()
	Tree(memory.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/react?q=meeting", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var loc types.Location
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get(HeaderLocation)), &loc))
	assert.Equal(t, "meeting", loc.SearchText)

	body := rec.Body.String()
	assert.Contains(t, body, "Meeting Notes")
	assert.NotContains(t, body, "Make a thing")
	assert.Contains(t, body, `name="q"`)
	assert.Contains(t, body, `type="hidden" name="location"`)
}

func TestTree_SidebarItemsLinkToTheirNote(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"selectedId":4,"isEditing":true,"searchText":"note"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	locs := locationsIn(t, sidebarLink, rec.Body.String())
	require.Len(t, locs, 4)

	var ids []int64
	for _, loc := range locs {
		require.NotNil(t, loc.SelectedID)
		ids = append(ids, *loc.SelectedID)
		assert.False(t, loc.IsEditing)
		assert.Equal(t, "note", loc.SearchText)
	}
	assert.Equal(t, []int64{5, 4, 2, 1}, ids)
}

func TestTree_NoteViewLinksToEditor(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"selectedId":3,"isEditing":false,"searchText":""}`)

	locs := locationsIn(t, editLink, rec.Body.String())
	require.Len(t, locs, 1)
	require.NotNil(t, locs[0].SelectedID)
	assert.Equal(t, int64(3), *locs[0].SelectedID)
	assert.True(t, locs[0].IsEditing)
}

func TestTree_EditorSubmitsBackToNotes(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"selectedId":4,"isEditing":true,"searchText":"meet"}`)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/notes/4?location=`)
	assert.Contains(t, body, `<button class="note-editor-done" type="submit"`)

	locs := locationsIn(t, editorForm, body)
	require.Len(t, locs, 1)
	require.NotNil(t, locs[0].SelectedID)
	assert.Equal(t, int64(4), *locs[0].SelectedID)
	assert.False(t, locs[0].IsEditing)
	assert.Equal(t, "meet", locs[0].SearchText)
}

func TestTree_NoMatches(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"searchText":"zzz"}`)
	assert.Contains(t, rec.Body.String(), `Couldn't find any notes titled "zzz".`)
}

func TestTree_EditingNewNote(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"selectedId":null,"isEditing":true,"searchText":""}`)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/notes?location=`)
	assert.Contains(t, body, `value="Untitled"`)

	locs := locationsIn(t, editorForm, body)
	require.Len(t, locs, 1)
	assert.Nil(t, locs[0].SelectedID)
	assert.False(t, locs[0].IsEditing)
}

func TestTree_MissingSelectedNoteShowsEmptyState(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{"selectedId":99}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Click a note on the left")
}

func TestTree_EscapesContent(t *testing.T) {
	store := memory.New(memory.WithNotes([]types.Note{{ID: 1, Title: "<script>alert(1)</script>"}}))
	rec := get(t, Tree(store), `{"selectedId":1}`)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestTree_BadLocation(t *testing.T) {
	rec := get(t, Tree(memory.New()), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShell(t *testing.T) {
	rec := httptest.NewRecorder()
	Shell()(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<div id="root"></div>`)
}
