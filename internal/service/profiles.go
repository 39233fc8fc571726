package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_profile_service.go -package=mocks -mock_names=ProfileService=MockProfileService notesync/internal/service ProfileService

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"notesync/internal/contextutil"
	"notesync/internal/notes"
	"notesync/internal/storage"
)

// CreateProfileRequest carries the fields of a new profile.
type CreateProfileRequest struct {
	Name        string
	DisplayName string
	PinHash     string
}

// ProfileSummary is one entry of the profile listing.
type ProfileSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// ProfileService manages profile records.
type ProfileService interface {
	// Get returns the profile stored under the normalized name.
	Get(ctx context.Context, name string) (notes.Profile, error)
	// Create stores a new profile and, if absent, an empty notes document.
	Create(ctx context.Context, req CreateProfileRequest) (notes.Profile, error)
	// List returns every readable profile, newest first.
	List(ctx context.Context) ([]ProfileSummary, error)
}

// profileService implements ProfileService.
type profileService struct {
	store storage.BlobStore
	now   func() time.Time
}

// NewProfileService creates a new ProfileService over store.
func NewProfileService(store storage.BlobStore) ProfileService {
	return &profileService{
		store: store,
		now:   time.Now,
	}
}

// Get returns the profile. Unparseable content yields a profile holding only its name.
func (s *profileService) Get(ctx context.Context, name string) (notes.Profile, error) {
	clean := notes.SafeName(name)
	if clean == "" {
		return notes.Profile{}, &ValidationError{Field: "name", Message: "missing profile name"}
	}

	blob, err := s.store.Get(ctx, storage.ProfileKey(clean))
	if errors.Is(err, storage.ErrNotFound) {
		return notes.Profile{}, fmt.Errorf("profile %s: %w", clean, ErrNotFound)
	}
	if err != nil {
		return notes.Profile{}, upstream("read profile", err)
	}

	p, ok := notes.DecodeProfile(blob.Content)
	if !ok {
		return notes.Profile{Name: clean}, nil
	}
	return p, nil
}

// Create stores a new profile. An existing profile with the same normalized
// name is a conflict.
func (s *profileService) Create(ctx context.Context, req CreateProfileRequest) (notes.Profile, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name := notes.SafeName(req.Name)
	if name == "" {
		return notes.Profile{}, &ValidationError{Field: "name", Message: "invalid profile name"}
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(req.Name)
	}
	if displayName == "" {
		return notes.Profile{}, &ValidationError{Field: "displayName", Message: "missing display name"}
	}
	pinHash := strings.TrimSpace(req.PinHash)
	if pinHash == "" {
		return notes.Profile{}, &ValidationError{Field: "pinHash", Message: "missing pin hash"}
	}

	profileKey := storage.ProfileKey(name)
	if _, err := s.store.Get(ctx, profileKey); err == nil {
		return notes.Profile{}, fmt.Errorf("profile %s: %w", name, ErrConflict)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return notes.Profile{}, upstream("read profile", err)
	}

	now := notes.FormatTime(s.now())
	profile := notes.Profile{
		Name:        name,
		DisplayName: displayName,
		PinHash:     pinHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := notes.EncodeProfile(profile)
	if err != nil {
		return notes.Profile{}, WrapError(err, "failed to encode profile")
	}

	// A create-only write: losing a race to another creator is a conflict too.
	if _, err := s.store.Put(ctx, profileKey, data, "", fmt.Sprintf("Create profile %s", name)); err != nil {
		if errors.Is(err, storage.ErrRevisionConflict) {
			return notes.Profile{}, fmt.Errorf("profile %s: %w", name, ErrConflict)
		}
		return notes.Profile{}, upstream("write profile", err)
	}

	if err := s.initNotes(ctx, name); err != nil {
		return notes.Profile{}, err
	}

	logger.InfoContext(ctx, "profile created", "profile", name)
	return profile, nil
}

// initNotes creates the empty notes document unless one exists already.
func (s *profileService) initNotes(ctx context.Context, name string) error {
	key := storage.NotesKey(name)
	_, err := s.store.Get(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return upstream("read notes", err)
	}

	data, err := notes.EncodeDocument(notes.EmptyDocument(name, s.now()))
	if err != nil {
		return WrapError(err, "failed to encode notes document")
	}
	_, err = s.store.Put(ctx, key, data, "", fmt.Sprintf("Init notes for %s", name))
	if err != nil && !errors.Is(err, storage.ErrRevisionConflict) {
		return upstream("write notes", err)
	}
	return nil
}

// List enumerates profile files. Entries that vanish or do not parse are skipped.
func (s *profileService) List(ctx context.Context) ([]ProfileSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	keys, err := s.store.List(ctx, storage.ProfilesDir())
	if err != nil {
		return nil, upstream("list profiles", err)
	}
	keys = lo.Filter(keys, func(k string, _ int) bool {
		return strings.HasSuffix(k, ".json")
	})

	profiles := make([]ProfileSummary, 0, len(keys))
	for _, key := range keys {
		blob, err := s.store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, upstream("read profile", err)
		}

		p, ok := notes.DecodeProfile(blob.Content)
		if !ok {
			logger.DebugContext(ctx, "skipping unreadable profile", "key", key)
			continue
		}

		raw := p.Name
		if raw == "" {
			raw = storage.ProfileNameFromKey(key)
		}
		name := notes.SafeName(raw)
		displayName := lo.Ternary(p.DisplayName != "", p.DisplayName, lo.Ternary(p.Name != "", p.Name, name))

		profiles = append(profiles, ProfileSummary{
			Name:        name,
			DisplayName: displayName,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}

	SortProfiles(profiles)
	return profiles, nil
}

// SortProfiles orders by UpdatedAt descending, then by case-insensitive
// display name. Profiles without a timestamp sort last.
func SortProfiles(profiles []ProfileSummary) {
	sort.SliceStable(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		if a.UpdatedAt != b.UpdatedAt {
			return a.UpdatedAt > b.UpdatedAt
		}
		return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
	})
}
