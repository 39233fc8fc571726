package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"notesync/internal/notes"
	"notesync/internal/search"
)

var (
	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the server answers 409.
	ErrConflict = errors.New("already exists")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Op      string
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s failed (%d): %s: %s", e.Op, e.Status, msg, e.Details)
	}
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, msg)
}

// Is maps 404 and 409 answers to ErrNotFound and ErrConflict.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// API is an HTTP client for the notesync server.
type API struct {
	BaseURL string
	client  *http.Client
}

// NewAPI creates a new API client.
func NewAPI(baseURL string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

// ProfileSummary is one entry of the profile listing.
type ProfileSummary struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   string `json:"updatedAt" yaml:"updatedAt"`
}

// ListProfiles fetches the profile listing.
func (a *API) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	var resp struct {
		Profiles []ProfileSummary `json:"profiles"`
	}
	if err := a.do(ctx, "list profiles", http.MethodGet, "/api/profiles", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Profiles == nil {
		resp.Profiles = []ProfileSummary{}
	}
	return resp.Profiles, nil
}

// GetProfile fetches one profile.
func (a *API) GetProfile(ctx context.Context, name string) (notes.Profile, error) {
	var p notes.Profile
	q := url.Values{"name": {name}}
	if err := a.do(ctx, "get profile", http.MethodGet, "/api/profile", q, nil, &p); err != nil {
		return notes.Profile{}, err
	}
	return p, nil
}

// CreateProfile creates a profile on the server.
func (a *API) CreateProfile(ctx context.Context, name, displayName, pinHash string) (notes.Profile, error) {
	body := map[string]string{
		"name":        name,
		"displayName": displayName,
		"pinHash":     pinHash,
	}
	var resp struct {
		Profile notes.Profile `json:"profile"`
	}
	if err := a.do(ctx, "create profile", http.MethodPost, "/api/profile", nil, body, &resp); err != nil {
		return notes.Profile{}, err
	}
	return resp.Profile, nil
}

// LoadNotes fetches the remote document for a profile.
func (a *API) LoadNotes(ctx context.Context, profile string) (notes.Document, error) {
	var doc notes.Document
	q := url.Values{"profile": {profile}}
	if err := a.do(ctx, "load notes", http.MethodGet, "/api/notes", q, nil, &doc); err != nil {
		return notes.Document{}, err
	}
	return doc, nil
}

// SaveNotes submits doc for merging and returns the server's canonical document.
func (a *API) SaveNotes(ctx context.Context, profile string, doc notes.Document) (notes.Document, error) {
	body := struct {
		Profile string         `json:"profile"`
		Doc     notes.Document `json:"doc"`
	}{Profile: profile, Doc: doc}

	var resp struct {
		Doc notes.Document `json:"doc"`
	}
	if err := a.do(ctx, "save notes", http.MethodPut, "/api/notes", nil, body, &resp); err != nil {
		return notes.Document{}, err
	}
	return resp.Doc, nil
}

// DeleteNote removes a note on the server and returns the updated document.
func (a *API) DeleteNote(ctx context.Context, profile, noteID string) (notes.Document, error) {
	q := url.Values{"profile": {profile}, "id": {noteID}}
	var resp struct {
		Doc notes.Document `json:"doc"`
	}
	if err := a.do(ctx, "delete note", http.MethodDelete, "/api/notes", q, nil, &resp); err != nil {
		return notes.Document{}, err
	}
	return resp.Doc, nil
}

// Search runs a query against the remote document.
func (a *API) Search(ctx context.Context, profile, query string) ([]search.Hit, error) {
	q := url.Values{"profile": {profile}, "q": {query}}
	var resp struct {
		Hits []search.Hit `json:"hits"`
	}
	if err := a.do(ctx, "search", http.MethodGet, "/api/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

func (a *API) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	target := a.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
