package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"notesync/internal/contextutil"
	"notesync/internal/notes"
	"notesync/internal/service"
)

// NotesHandler serves /api/notes: load, merge-save and explicit delete.
type NotesHandler struct {
	notesService service.NotesService
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(notesService service.NotesService) *NotesHandler {
	return &NotesHandler{notesService: notesService}
}

// SaveNotesRequest is the PUT body. Doc is kept raw so that malformed note
// entries can be skipped instead of failing the request.
type SaveNotesRequest struct {
	Profile string          `json:"profile"`
	Doc     json.RawMessage `json:"doc"`
}

// ServeHTTP dispatches on method.
func (h *NotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.load(w, r)
	case http.MethodPut:
		h.save(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		MethodNotAllowed(w, r)
	}
}

func (h *NotesHandler) load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, err := h.notesService.Load(ctx, r.URL.Query().Get("profile"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load notes")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

func (h *NotesHandler) save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SaveNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	raw := bytes.TrimSpace(req.Doc)
	if len(raw) == 0 || raw[0] != '{' {
		writeError(ctx, w, http.StatusBadRequest, "doc must be an object")
		return
	}

	var header struct {
		Profile string `json:"profile"`
	}
	_ = json.Unmarshal(raw, &header)

	profile := strings.TrimSpace(req.Profile)
	if profile == "" {
		profile = strings.TrimSpace(header.Profile)
	}

	incoming := notes.DecodeDocument(raw, profile, time.Now())
	doc, err := h.notesService.Save(ctx, profile, incoming.Notes)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to save notes")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Doc: doc})
}

func (h *NotesHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	doc, err := h.notesService.DeleteNote(ctx, q.Get("profile"), q.Get("id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete note")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Doc: doc})
}
