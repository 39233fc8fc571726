package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_notes_service.go -package=mocks -mock_names=NotesService=MockNotesService notesync/internal/service NotesService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notesync/internal/contextutil"
	"notesync/internal/notes"
	"notesync/internal/search"
	"notesync/internal/storage"
)

// NotesService reads and reconciles a profile's notes document.
type NotesService interface {
	// Load returns the stored document, creating and persisting an empty one if absent.
	Load(ctx context.Context, profile string) (notes.Document, error)
	// Save merges incoming into the stored document and writes the result under
	// the revision it was read at. The merged document is returned.
	Save(ctx context.Context, profile string, incoming []notes.Note) (notes.Document, error)
	// DeleteNote removes one note from the stored document.
	DeleteNote(ctx context.Context, profile, noteID string) (notes.Document, error)
	// Search returns the global hit list for query over the stored document.
	Search(ctx context.Context, profile, query string) ([]search.Hit, error)
}

// notesService implements NotesService.
type notesService struct {
	store storage.BlobStore
	now   func() time.Time
}

// NewNotesService creates a new NotesService over store.
func NewNotesService(store storage.BlobStore) NotesService {
	return &notesService{
		store: store,
		now:   time.Now,
	}
}

func profileName(raw string) (string, error) {
	name := notes.SafeName(raw)
	if name == "" {
		return "", &ValidationError{Field: "profile", Message: "missing or invalid profile name"}
	}
	return name, nil
}

// Load returns the stored document for profile.
func (s *notesService) Load(ctx context.Context, profile string) (notes.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name, err := profileName(profile)
	if err != nil {
		return notes.Document{}, err
	}

	doc, _, err := s.read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		doc = notes.EmptyDocument(name, s.now())
		if err := s.write(ctx, name, doc, "", fmt.Sprintf("Init notes for %s", name)); err != nil {
			return notes.Document{}, err
		}
		logger.InfoContext(ctx, "initialized notes document", "profile", name)
		return doc, nil
	}
	if err != nil {
		return notes.Document{}, err
	}

	return doc, nil
}

// Save reconciles incoming with the stored document. There is no retry: a
// concurrent writer surfaces as an UpstreamError wrapping storage.ErrRevisionConflict.
func (s *notesService) Save(ctx context.Context, profile string, incoming []notes.Note) (notes.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name, err := profileName(profile)
	if err != nil {
		return notes.Document{}, err
	}

	remote, revision, err := s.read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		remote, revision = notes.EmptyDocument(name, s.now()), ""
	} else if err != nil {
		return notes.Document{}, err
	}

	merged := notes.Merge(remote, incoming, name, s.now())
	if err := s.write(ctx, name, merged, revision, fmt.Sprintf("Update notes for %s", name)); err != nil {
		logger.WarnContext(ctx, "notes write rejected", "profile", name, "error", err)
		return notes.Document{}, err
	}

	logger.InfoContext(ctx, "notes saved",
		"profile", name,
		"incoming", len(incoming),
		"remote", len(remote.Notes),
		"merged", len(merged.Notes),
	)
	return merged, nil
}

// DeleteNote removes noteID under the revision the document was read at.
func (s *notesService) DeleteNote(ctx context.Context, profile, noteID string) (notes.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name, err := profileName(profile)
	if err != nil {
		return notes.Document{}, err
	}
	if noteID == "" {
		return notes.Document{}, &ValidationError{Field: "id", Message: "missing note id"}
	}

	doc, revision, err := s.read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return notes.Document{}, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	if err != nil {
		return notes.Document{}, err
	}

	updated, removed := notes.RemoveNote(doc, noteID, s.now())
	if !removed {
		return notes.Document{}, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}

	if err := s.write(ctx, name, updated, revision, fmt.Sprintf("Delete note %s for %s", noteID, name)); err != nil {
		return notes.Document{}, err
	}

	logger.InfoContext(ctx, "note deleted", "profile", name, "note_id", noteID)
	return updated, nil
}

// Search builds the global hit list over the stored document.
func (s *notesService) Search(ctx context.Context, profile, query string) ([]search.Hit, error) {
	doc, err := s.Load(ctx, profile)
	if err != nil {
		return nil, err
	}
	return search.BuildHits(doc.Notes, query), nil
}

// read returns the stored document and its revision. Malformed content is
// not an error; it decodes to an empty document.
func (s *notesService) read(ctx context.Context, name string) (notes.Document, string, error) {
	blob, err := s.store.Get(ctx, storage.NotesKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return notes.Document{}, "", err
	}
	if err != nil {
		return notes.Document{}, "", upstream("read notes", err)
	}
	return notes.DecodeDocument(blob.Content, name, s.now()), blob.Revision, nil
}

func (s *notesService) write(ctx context.Context, name string, doc notes.Document, revision, message string) error {
	data, err := notes.EncodeDocument(doc)
	if err != nil {
		return WrapError(err, "failed to encode notes document")
	}
	if _, err := s.store.Put(ctx, storage.NotesKey(name), data, revision, message); err != nil {
		return upstream("write notes", err)
	}
	return nil
}
