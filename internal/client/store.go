package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"notesync/internal/notes"
	"notesync/internal/search"
)

// ErrInvalidName is returned for profile names that normalize to nothing.
var ErrInvalidName = errors.New("invalid profile name")

// Store combines the server API with the local cache. Reads may be served
// from the cache; every write ends with the server's canonical document in
// the cache.
type Store struct {
	api    *API
	cache  *Cache
	now    func() time.Time
	logger *slog.Logger
}

// NewStore creates a Store.
func NewStore(api *API, cache *Cache) *Store {
	return &Store{
		api:    api,
		cache:  cache,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Cache exposes the local cache.
func (s *Store) Cache() *Cache { return s.cache }

func cleanName(name string) (string, error) {
	clean := notes.SafeName(name)
	if clean == "" {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return clean, nil
}

// ListProfiles always asks the server.
func (s *Store) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	return s.api.ListProfiles(ctx)
}

// GetProfile returns the cached profile when preferCache is set and one is
// cached, otherwise the server's copy, which is then cached.
func (s *Store) GetProfile(ctx context.Context, name string, preferCache bool) (notes.Profile, error) {
	clean, err := cleanName(name)
	if err != nil {
		return notes.Profile{}, err
	}

	if preferCache {
		if p, ok := s.cache.Profile(clean); ok {
			return p, nil
		}
	}

	p, err := s.api.GetProfile(ctx, clean)
	if err != nil {
		return notes.Profile{}, err
	}
	if p.Name != "" {
		if err := s.cache.SetProfile(p); err != nil {
			s.logger.WarnContext(ctx, "failed to cache profile", "profile", clean, "error", err)
		}
	}
	return p, nil
}

// CreateProfile creates a profile gated by pin and warms the notes cache.
func (s *Store) CreateProfile(ctx context.Context, name, displayName, pin string) (notes.Profile, error) {
	clean, err := cleanName(name)
	if err != nil {
		return notes.Profile{}, err
	}
	pin = strings.TrimSpace(pin)
	if len([]rune(pin)) < MinPinLength {
		return notes.Profile{}, fmt.Errorf("PIN must have at least %d characters", MinPinLength)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.TrimSpace(name)
	}

	p, err := s.api.CreateProfile(ctx, clean, displayName, PinHash(pin))
	if err != nil {
		return notes.Profile{}, err
	}
	if p.Name != "" {
		if err := s.cache.SetProfile(p); err != nil {
			s.logger.WarnContext(ctx, "failed to cache profile", "profile", p.Name, "error", err)
		}
	}
	if _, err := s.LoadNotes(ctx, clean, false); err != nil {
		return p, err
	}
	return p, nil
}

// Unlock checks pin against the profile and records the unlock.
func (s *Store) Unlock(ctx context.Context, name, pin string, remember bool) error {
	p, err := s.GetProfile(ctx, name, true)
	if err != nil {
		return err
	}
	if !VerifyPin(p.PinHash, pin) {
		return errors.New("wrong PIN")
	}
	return s.cache.SetUnlocked(p.Name, remember, DefaultRememberDays, s.now())
}

// IsUnlocked reports whether the profile has an unexpired unlock.
func (s *Store) IsUnlocked(name string) bool {
	return s.cache.IsUnlocked(name, s.now())
}

// Lock forgets the unlock.
func (s *Store) Lock(name string) error {
	return s.cache.ClearUnlocked(name)
}

// LoadNotes returns the cached document when preferCache is set and one is
// cached, otherwise the remote document, which is then cached.
func (s *Store) LoadNotes(ctx context.Context, name string, preferCache bool) (notes.Document, error) {
	clean, err := cleanName(name)
	if err != nil {
		return notes.Document{}, err
	}

	if preferCache {
		if doc, ok := s.cache.Notes(clean); ok {
			return doc, nil
		}
	}

	doc, err := s.api.LoadNotes(ctx, clean)
	if err != nil {
		return notes.Document{}, err
	}
	if doc.Notes == nil {
		doc.Notes = []notes.Note{}
	}
	s.cacheNotes(ctx, clean, doc)
	return doc, nil
}

// SaveNotes writes doc to the cache, submits it, and replaces the cache with
// the merged document the server returns. On failure the optimistic copy
// stays cached.
func (s *Store) SaveNotes(ctx context.Context, name string, doc notes.Document) (notes.Document, error) {
	clean, err := cleanName(name)
	if err != nil {
		return notes.Document{}, err
	}

	doc.Profile = clean
	doc.UpdatedAt = notes.FormatTime(s.now())
	if doc.Notes == nil {
		doc.Notes = []notes.Note{}
	}
	s.cacheNotes(ctx, clean, doc)

	merged, err := s.api.SaveNotes(ctx, clean, doc)
	if err != nil {
		return doc, err
	}
	if merged.Notes == nil {
		return doc, nil
	}
	s.cacheNotes(ctx, clean, merged)
	return merged, nil
}

// CreateNote appends a note with the next free label and saves.
func (s *Store) CreateNote(ctx context.Context, profile, title, color string) (notes.Note, notes.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return notes.Note{}, notes.Document{}, errors.New("note title is required")
	}
	if strings.TrimSpace(color) == "" {
		color = notes.DefaultColor
	}

	doc, err := s.LoadNotes(ctx, profile, true)
	if err != nil {
		return notes.Note{}, notes.Document{}, err
	}

	now := notes.FormatTime(s.now())
	note := notes.Note{
		ID:        notes.NewID(),
		Label:     notes.NextLabel(doc.Labels()),
		Title:     title,
		Color:     color,
		Content:   "",
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Notes = append(doc.Notes, note)

	saved, err := s.SaveNotes(ctx, profile, doc)
	if err != nil {
		return note, saved, err
	}
	return note, saved, nil
}

// UpdateNote changes a note's title, content and color. An empty title
// becomes notes.UntitledTitle; an empty color keeps the current one.
func (s *Store) UpdateNote(ctx context.Context, profile, id, title, content, color string) (notes.Document, error) {
	doc, err := s.LoadNotes(ctx, profile, true)
	if err != nil {
		return notes.Document{}, err
	}
	i := doc.Find(id)
	if i < 0 {
		return notes.Document{}, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = notes.UntitledTitle
	}
	doc.Notes[i].Title = title
	doc.Notes[i].Content = content
	if color = strings.TrimSpace(color); color != "" {
		doc.Notes[i].Color = color
	}
	doc.Notes[i].UpdatedAt = notes.FormatTime(s.now())

	return s.SaveNotes(ctx, profile, doc)
}

// DeleteNote removes a note on the server and caches the result.
func (s *Store) DeleteNote(ctx context.Context, profile, id string) (notes.Document, error) {
	clean, err := cleanName(profile)
	if err != nil {
		return notes.Document{}, err
	}
	doc, err := s.api.DeleteNote(ctx, clean, id)
	if err != nil {
		return notes.Document{}, err
	}
	s.cacheNotes(ctx, clean, doc)
	return doc, nil
}

// Search builds the global hit list over the (possibly cached) document.
func (s *Store) Search(ctx context.Context, profile, query string, preferCache bool) ([]search.Hit, error) {
	doc, err := s.LoadNotes(ctx, profile, preferCache)
	if err != nil {
		return nil, err
	}
	return search.BuildHits(doc.Notes, query), nil
}

// StepNote hops from the hit at fromHit to the nearest hit in a different
// note, scanning forward (dir > 0) or backward. Going forward that is the
// next note's first hit; going backward it is the previous note's last hit.
// The hit list is rebuilt from the latest remote document, so fromHit is
// clamped if the list changed. ok is false when nothing matches.
func (s *Store) StepNote(ctx context.Context, profile, query string, fromHit, dir int) (search.Payload, bool, error) {
	hits, err := s.Search(ctx, profile, query, false)
	if err != nil {
		return search.Payload{}, false, err
	}

	nav := search.NewNavigator(hits)
	nav.JumpTo(fromHit)
	var idx int
	if dir < 0 {
		idx = nav.PrevNoteHit()
	} else {
		idx = nav.NextNoteHit()
	}
	hit, ok := nav.Current()
	if idx < 0 || !ok {
		return search.Payload{}, false, nil
	}
	return search.Payload{Query: strings.TrimSpace(query), NoteID: hit.NoteID, HitIndex: idx}, true, nil
}

// ImportNotes saves a document read from an export. Its profile must match.
func (s *Store) ImportNotes(ctx context.Context, profile string, doc notes.Document) (notes.Document, error) {
	clean, err := cleanName(profile)
	if err != nil {
		return notes.Document{}, err
	}
	if doc.Profile == "" {
		return notes.Document{}, errors.New("import: document has no profile")
	}
	if notes.SafeName(doc.Profile) != clean {
		return notes.Document{}, fmt.Errorf("import: document belongs to %q, not %q", doc.Profile, clean)
	}
	doc.Notes = lo.Filter(doc.Notes, func(n notes.Note, _ int) bool { return n.ID != "" })
	return s.SaveNotes(ctx, clean, doc)
}

// Bundle is a full export of every profile and its notes.
type Bundle struct {
	ExportedAt string           `json:"exportedAt" yaml:"exportedAt"`
	Profiles   []ProfileSummary `json:"profiles" yaml:"profiles"`
	Notes      []notes.Document `json:"notes" yaml:"notes"`
}

// ExportAll collects every profile and its (possibly cached) notes.
func (s *Store) ExportAll(ctx context.Context) (Bundle, error) {
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return Bundle{}, err
	}
	bundle := Bundle{
		ExportedAt: notes.FormatTime(s.now()),
		Profiles:   profiles,
		Notes:      make([]notes.Document, 0, len(profiles)),
	}
	for _, p := range profiles {
		doc, err := s.LoadNotes(ctx, p.Name, true)
		if err != nil {
			return Bundle{}, err
		}
		bundle.Notes = append(bundle.Notes, doc)
	}
	return bundle, nil
}

// Demo profile defaults.
const (
	DemoProfile = "demo"
	DemoPIN     = "1234"
)

// EnsureDemo creates the demo profile with a welcome note unless it exists.
func (s *Store) EnsureDemo(ctx context.Context) error {
	if _, err := s.GetProfile(ctx, DemoProfile, false); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if _, err := s.CreateProfile(ctx, DemoProfile, "Demo", DemoPIN); err != nil && !errors.Is(err, ErrConflict) {
		return err
	}

	doc, err := s.LoadNotes(ctx, DemoProfile, false)
	if err != nil {
		return err
	}
	if len(doc.Notes) > 0 {
		return nil
	}

	now := notes.FormatTime(s.now())
	doc.Notes = []notes.Note{{
		ID:        notes.NewID(),
		Label:     "A",
		Title:     "Welcome",
		Color:     notes.DefaultColor,
		Content:   "This is a demo note.\n\nOpen it and keep writing.\n",
		CreatedAt: now,
		UpdatedAt: now,
	}}
	_, err = s.SaveNotes(ctx, DemoProfile, doc)
	return err
}

func (s *Store) cacheNotes(ctx context.Context, name string, doc notes.Document) {
	if err := s.cache.SetNotes(name, doc); err != nil {
		s.logger.WarnContext(ctx, "failed to cache notes", "profile", name, "error", err)
	}
}
