package handlers

import (
	"net/http"

	"notesync/internal/search"
	"notesync/internal/service"
)

// SearchHandler serves the global hit list for a profile.
type SearchHandler struct {
	notesService service.NotesService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(notesService service.NotesService) *SearchHandler {
	return &SearchHandler{notesService: notesService}
}

// SearchResponse carries the hits in document iteration order.
type SearchResponse struct {
	Query string       `json:"query"`
	Hits  []search.Hit `json:"hits"`
}

// ServeHTTP runs the search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	q := r.URL.Query()
	hits, err := h.notesService.Search(ctx, q.Get("profile"), q.Get("q"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to search notes")
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{Query: q.Get("q"), Hits: hits})
}
