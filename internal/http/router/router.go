// Package router assembles the notes HTTP surface.
//
// Route table:
//
//	GET    /               → HTML shell
//	GET    /react          → rendered notes tree
//	GET    /notes          → list notes
//	POST   /notes          → create a note
//	GET    /notes/{id}     → read a note
//	PUT    /notes/{id}     → update a note
//	DELETE /notes/{id}     → delete a note
//	GET    /sleep/{ms}     → artificial delay
//	GET    /metrics        → Prometheus metrics
//	*                      → static files (dist/, public/)
package router

import (
	"errors"
	"net/http"
	"path"

	"github.com/aanand-mishra/notes-api/internal/config"
	"github.com/aanand-mishra/notes-api/internal/http/handlers/note"
	"github.com/aanand-mishra/notes-api/internal/http/handlers/react"
	"github.com/aanand-mishra/notes-api/internal/http/middleware"
	"github.com/aanand-mishra/notes-api/internal/storage"
	"github.com/aanand-mishra/notes-api/internal/utils/response"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New returns the application's http.Handler. Request metrics are
// registered with reg and exposed at /metrics.
func New(cfg config.HTTPServer, store storage.Storage, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(recoverer)
	r.Use(middleware.Tracing)
	r.Use(middleware.NewMetrics(reg).Handler)
	r.Use(chimw.Compress(5))

	r.Get("/", react.Shell())
	r.Get("/react", react.Tree(store))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", note.GetList(store))
		r.Post("/", note.New(store))
		r.Get("/{id}", note.GetByID(store))
		r.Put("/{id}", note.Update(store))
		// HTML forms can only POST.
		r.Post("/{id}", note.Update(store))
		r.Delete("/{id}", note.Delete(store))
	})

	r.Get("/sleep/{ms}", note.Sleep(cfg.MaxSleep))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.NotFound(static(cfg.StaticDirs))

	return r
}

// recoverer turns a panicking handler into a 500 carrying the panic
// message, matching the JSON error envelope of every other failure.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				chimw.PrintPrettyStack(rec)

				err, ok := rec.(error)
				if !ok {
					err = errors.New(http.StatusText(http.StatusInternalServerError))
					if s, isString := rec.(string); isString {
						err = errors.New(s)
					}
				}
				response.WriteError(w, http.StatusInternalServerError, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// static serves the first regular file found for the request path in
// dirs, in order, and answers 404 otherwise.
func static(dirs []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			name := path.Clean("/" + r.URL.Path)
			for _, dir := range dirs {
				fs := http.Dir(dir)
				f, err := fs.Open(name)
				if err != nil {
					continue
				}
				info, err := f.Stat()
				f.Close()
				if err != nil || info.IsDir() {
					continue
				}
				http.FileServer(fs).ServeHTTP(w, r)
				return
			}
		}
		response.WriteError(w, http.StatusNotFound, errors.New("not found: "+r.URL.Path))
	}
}
