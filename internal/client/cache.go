package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"notesync/internal/notes"
)

const tempFilePrefix = "notesync-tmp-"

// Cache is the on-disk copy of profiles, notes documents and unlock state.
// It is read and written without locking and may lag the server.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir. Directories are created on write.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// UnlockState records that a profile's PIN was entered and until when.
type UnlockState struct {
	Unlocked bool  `json:"unlocked"`
	Remember bool  `json:"remember"`
	TS       int64 `json:"ts"`
	Exp      int64 `json:"exp"`
}

// Unlock durations.
const (
	DefaultRememberDays = 21
	SessionUnlock       = 2 * time.Hour
)

func (c *Cache) path(kind, name string) string {
	return filepath.Join(c.dir, kind, notes.SafeName(name)+".json")
}

// Profile returns the cached profile, if any.
func (c *Cache) Profile(name string) (notes.Profile, bool) {
	data, ok := c.read("profiles", name)
	if !ok {
		return notes.Profile{}, false
	}
	p, ok := notes.DecodeProfile(data)
	if !ok || p.Name == "" {
		return notes.Profile{}, false
	}
	return p, true
}

// SetProfile caches p under its name.
func (c *Cache) SetProfile(p notes.Profile) error {
	data, err := notes.EncodeProfile(p)
	if err != nil {
		return err
	}
	return c.write("profiles", p.Name, data)
}

// Notes returns the cached document for a profile. A cached file that is not
// a document with a notes array counts as a miss.
func (c *Cache) Notes(name string) (notes.Document, bool) {
	data, ok := c.read("notes", name)
	if !ok {
		return notes.Document{}, false
	}
	var probe struct {
		Notes []json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Notes == nil {
		return notes.Document{}, false
	}
	return notes.DecodeDocument(data, notes.SafeName(name), time.Now()), true
}

// SetNotes caches a document.
func (c *Cache) SetNotes(name string, doc notes.Document) error {
	data, err := notes.EncodeDocument(doc)
	if err != nil {
		return err
	}
	return c.write("notes", name, data)
}

// SetUnlocked records an unlock. remember keeps it for days, otherwise for
// SessionUnlock.
func (c *Cache) SetUnlocked(name string, remember bool, days int, now time.Time) error {
	ttl := SessionUnlock
	if remember {
		ttl = time.Duration(days) * 24 * time.Hour
	}
	state := UnlockState{
		Unlocked: true,
		Remember: remember,
		TS:       now.UnixMilli(),
		Exp:      now.Add(ttl).UnixMilli(),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return c.write("unlock", name, data)
}

// IsUnlocked reports whether an unexpired unlock is recorded.
func (c *Cache) IsUnlocked(name string, now time.Time) bool {
	data, ok := c.read("unlock", name)
	if !ok {
		return false
	}
	var state UnlockState
	if err := json.Unmarshal(data, &state); err != nil {
		return false
	}
	return state.Unlocked && state.Exp > 0 && now.UnixMilli() <= state.Exp
}

// ClearUnlocked forgets the unlock for a profile.
func (c *Cache) ClearUnlocked(name string) error {
	err := os.Remove(c.path("unlock", name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Cache) read(kind, name string) ([]byte, bool) {
	if notes.SafeName(name) == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.path(kind, name))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *Cache) write(kind, name string, data []byte) error {
	if notes.SafeName(name) == "" {
		return fmt.Errorf("cache %s: invalid name %q", kind, name)
	}
	target := c.path(kind, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return writeFileAtomic(target, data, 0o644)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
