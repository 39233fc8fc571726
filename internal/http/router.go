package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notesync/internal/handlers"
	"notesync/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	NotesService   service.NotesService
	ProfileService service.ProfileService
	Store          handlers.Pinger
	Backend        string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
	})
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	notesHandler := handlers.NewNotesHandler(deps.NotesService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)

	r.Route("/api", func(r chi.Router) {
		r.Handle("/notes", notesHandler)
		r.Handle("/profile", profileHandler)
		r.Handle("/profiles", handlers.NewProfilesHandler(deps.ProfileService))
		r.Handle("/search", handlers.NewSearchHandler(deps.NotesService))
		r.Handle("/health", handlers.NewHealthHandler(deps.Store, deps.Backend))
	})

	r.Method(http.MethodGet, "/notes/{profile}/{id}", handlers.NewNoteHandler(deps.NotesService))

	return r
}
