package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notesync/internal/notes"
	"notesync/internal/service"
	"notesync/internal/service/mocks"
	"notesync/internal/storage"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleDoc() notes.Document {
	return notes.Document{
		Profile:   "alice",
		UpdatedAt: "2024-01-02T00:00:00.000Z",
		Notes: []notes.Note{
			{ID: "n1", Label: "A", Title: "Groceries", Color: notes.DefaultColor, Content: "buy milk", UpdatedAt: "2024-01-01T00:00:00.000Z"},
		},
	}
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestNotesHandler_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockNotesService(ctrl)
	handler := NewNotesHandler(svc)

	svc.EXPECT().Load(gomock.Any(), "alice").Return(sampleDoc(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/notes?profile=alice", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v, want %v", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var doc notes.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Profile != "alice" || len(doc.Notes) != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestNotesHandler_Save(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		setup       func(svc *mocks.MockNotesService)
		wantStatus  int
		wantErrText string
	}{
		{
			name: "profile from body",
			body: `{"profile":"alice","doc":{"notes":[{"id":"n1","updatedAt":"2024-01-01T00:00:00.000Z"}]}}`,
			setup: func(svc *mocks.MockNotesService) {
				svc.EXPECT().
					Save(gomock.Any(), "alice", gomock.Len(1)).
					Return(sampleDoc(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "profile from doc",
			body: `{"doc":{"profile":"alice","notes":[]}}`,
			setup: func(svc *mocks.MockNotesService) {
				svc.EXPECT().Save(gomock.Any(), "alice", gomock.Len(0)).Return(sampleDoc(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "malformed note entries are dropped",
			body: `{"profile":"alice","doc":{"notes":[null,42,{"id":"n1"}]}}`,
			setup: func(svc *mocks.MockNotesService) {
				svc.EXPECT().Save(gomock.Any(), "alice", gomock.Len(1)).Return(sampleDoc(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:        "doc is not an object",
			body:        `{"profile":"alice","doc":[1,2]}`,
			setup:       func(svc *mocks.MockNotesService) {},
			wantStatus:  http.StatusBadRequest,
			wantErrText: "doc must be an object",
		},
		{
			name:        "doc missing",
			body:        `{"profile":"alice"}`,
			setup:       func(svc *mocks.MockNotesService) {},
			wantStatus:  http.StatusBadRequest,
			wantErrText: "doc must be an object",
		},
		{
			name:        "invalid json",
			body:        `{`,
			setup:       func(svc *mocks.MockNotesService) {},
			wantStatus:  http.StatusBadRequest,
			wantErrText: "Invalid request body",
		},
		{
			name: "missing profile",
			body: `{"doc":{"notes":[]}}`,
			setup: func(svc *mocks.MockNotesService) {
				svc.EXPECT().Save(gomock.Any(), "", gomock.Any()).
					Return(notes.Document{}, &service.ValidationError{Field: "profile", Message: "missing or invalid profile name"})
			},
			wantStatus:  http.StatusBadRequest,
			wantErrText: "missing or invalid profile name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := mocks.NewMockNotesService(ctrl)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/notes", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			NewNotesHandler(svc).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantErrText != "" {
				if got := decodeError(t, w.Body); got.Error != tt.wantErrText {
					t.Errorf("error = %q, want %q", got.Error, tt.wantErrText)
				}
				return
			}

			var resp struct {
				OK  bool           `json:"ok"`
				Doc notes.Document `json:"doc"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !resp.OK || resp.Doc.Profile != "alice" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestNotesHandler_SaveUpstreamError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockNotesService(ctrl)
	conflict := &storage.ConflictError{Key: "data/notes/alice_notes.json", ExpectedRevision: "a", CurrentRevision: "b"}
	svc.EXPECT().Save(gomock.Any(), "alice", gomock.Any()).
		Return(notes.Document{}, &service.UpstreamError{Op: "write notes", Err: conflict})

	req := httptest.NewRequest(http.MethodPut, "/api/notes", strings.NewReader(`{"profile":"alice","doc":{"notes":[]}}`))
	w := httptest.NewRecorder()
	NewNotesHandler(svc).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %v, want 500", w.Code)
	}
	resp := decodeError(t, w.Body)
	if resp.Error != "Failed to save notes" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Details != conflict.Error() {
		t.Errorf("details = %q, want %q", resp.Details, conflict.Error())
	}
}

func TestNotesHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockNotesService(ctrl)
	handler := NewNotesHandler(svc)

	svc.EXPECT().DeleteNote(gomock.Any(), "alice", "n1").Return(notes.Document{Profile: "alice", Notes: []notes.Note{}}, nil)
	svc.EXPECT().DeleteNote(gomock.Any(), "alice", "ghost").Return(notes.Document{}, fmt.Errorf("note ghost: %w", service.ErrNotFound))

	req := httptest.NewRequest(http.MethodDelete, "/api/notes?profile=alice&id=n1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %v, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/notes?profile=alice&id=ghost", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %v, want 404", w.Code)
	}
}

func TestNotesHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := httptest.NewRequest(http.MethodPost, "/api/notes", nil)
	w := httptest.NewRecorder()
	NewNotesHandler(mocks.NewMockNotesService(ctrl)).ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %v, want 405", w.Code)
	}
	if got := decodeError(t, w.Body); got.Error != "Method not allowed" {
		t.Errorf("error = %q", got.Error)
	}
}
