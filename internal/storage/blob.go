package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_blob_store.go -package=mocks notesync/internal/storage BlobStore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrRevisionConflict is returned when a conditional write names a stale revision.
	ErrRevisionConflict = errors.New("revision conflict")
)

// ConflictError describes a rejected conditional write.
type ConflictError struct {
	Key              string
	ExpectedRevision string
	CurrentRevision  string
}

func (e *ConflictError) Error() string {
	expected := e.ExpectedRevision
	if expected == "" {
		expected = "<absent>"
	}
	current := e.CurrentRevision
	if current == "" {
		current = "<absent>"
	}
	return fmt.Sprintf("revision conflict on %s: expected %s, current %s", e.Key, expected, current)
}

// Is lets errors.Is match ErrRevisionConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrRevisionConflict
}

// StatusError is an unexpected non-2xx answer from a remote store.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Body)
}

// Blob is a stored document and the revision token it was read at.
type Blob struct {
	Key      string
	Content  []byte
	Revision string
}

// BlobStore is a key to content store with optimistic concurrency.
type BlobStore interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Blob, error)
	// Put writes content under key and returns the new revision.
	// An empty revision means the key must not exist yet; otherwise it must
	// equal the current revision. Mismatches return a *ConflictError.
	Put(ctx context.Context, key string, content []byte, revision, message string) (string, error)
	// List returns the keys stored directly under dir, sorted.
	// A missing dir yields an empty list.
	List(ctx context.Context, dir string) ([]string, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

const (
	profilesDir = "data/profiles"
	notesDir    = "data/notes"
)

// ProfilesDir is the directory holding one JSON file per profile.
func ProfilesDir() string { return profilesDir }

// ProfileKey is the blob key of a profile record.
func ProfileKey(name string) string {
	return path.Join(profilesDir, name+".json")
}

// NotesKey is the blob key of a profile's notes document.
func NotesKey(name string) string {
	return path.Join(notesDir, name+"_notes.json")
}

// ProfileNameFromKey recovers the profile name from a profile key.
func ProfileNameFromKey(key string) string {
	return strings.TrimSuffix(path.Base(key), ".json")
}
