package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/notes-api/internal/config"
	"github.com/aanand-mishra/notes-api/internal/storage/memory"
	"github.com/aanand-mishra/notes-api/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, staticDirs ...string) *httptest.Server {
	t.Helper()
	cfg := config.HTTPServer{MaxSleep: time.Second, StaticDirs: staticDirs}
	srv := httptest.NewServer(New(cfg, memory.New(), prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func TestNotesCRUD(t *testing.T) {
	srv := newServer(t)
	c := srv.Client()

	resp, err := c.Post(srv.URL+"/notes", "application/json", strings.NewReader(`{"title":"t","body":"b"}`))
	require.NoError(t, err)
	var created types.Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/notes/6", strings.NewReader(`{"title":"t2","body":"b2"}`))
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/notes/6", nil)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Get(srv.URL + "/notes/6")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "null", strings.TrimSpace(string(body)))
}

func TestHTMLFormRoundTrip(t *testing.T) {
	srv := newServer(t)
	c := srv.Client()

	resp, err := c.Get(srv.URL + "/react?q=meeting")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Meeting Notes")
	assert.NotContains(t, string(body), "Make a thing")

	loc := url.QueryEscape(`{"selectedId":1,"isEditing":false,"searchText":"meeting"}`)
	resp, err = c.PostForm(srv.URL+"/notes/1?location="+loc,
		url.Values{"title": {"Meeting Minutes"}, "body": {"agreed"}})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `<h1 class="note-title">Meeting Minutes</h1>`)
}

func TestListRoute_TrailingSlashOptional(t *testing.T) {
	srv := newServer(t)

	for _, path := range []string{"/notes", "/notes/"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		var notes []types.Note
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&notes))
		resp.Body.Close()
		assert.Len(t, notes, 5, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)

	resp, err := srv.Client().Get(srv.URL + "/notes/1")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `notes_http_requests_total{method="GET",route="/notes/{id}",status="200"} 1`)
}

func TestStaticFallback(t *testing.T) {
	dist := t.TempDir()
	public := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(public, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "main.js"), []byte("console.log(1)"), 0o644))

	srv := newServer(t, dist, public)

	for path, want := range map[string]string{"/style.css": "body{}", "/main.js": "console.log(1)"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, want, string(body), path)
	}

	resp, err := srv.Client().Get(srv.URL + "/missing.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}
