package notes

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the fixed-width UTC layout used for every stored timestamp.
// Fixed width keeps string ordering equal to chronological ordering.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultColor is applied to notes created without a color.
const DefaultColor = "#2a74ff"

// UntitledTitle replaces an empty title on save.
const UntitledTitle = "Untitled"

// Note is a single colored text note inside a profile's document.
type Note struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Title     string `json:"title" yaml:"title"`
	Color     string `json:"color" yaml:"color"`
	Content   string `json:"content" yaml:"content"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
	UpdatedAt string `json:"updatedAt" yaml:"updatedAt"`
}

// Document is the persisted note collection of one profile.
type Document struct {
	Profile   string `json:"profile" yaml:"profile"`
	UpdatedAt string `json:"updatedAt" yaml:"updatedAt"`
	Notes     []Note `json:"notes" yaml:"notes"`
}

// Profile is the persisted profile record. PinHash is a low-entropy gate, not a credential.
type Profile struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	PinHash     string `json:"pinHash"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^a-z0-9\-_]`)
)

// SafeName normalizes a profile name: trimmed, lowercased, whitespace runs
// replaced by "-", and everything outside [a-z0-9-_] dropped.
// An empty result means the name is unusable.
func SafeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return unsafeChars.ReplaceAllString(s, "")
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NewID returns a fresh opaque note id.
func NewID() string {
	return uuid.New().String()
}

// EmptyDocument returns a document with no notes for the given profile.
func EmptyDocument(profile string, now time.Time) Document {
	return Document{
		Profile:   profile,
		UpdatedAt: FormatTime(now),
		Notes:     []Note{},
	}
}

// Find returns the index of the note with the given id, or -1.
func (d Document) Find(id string) int {
	for i, n := range d.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Labels returns the labels currently used in the document.
func (d Document) Labels() []string {
	labels := make([]string, 0, len(d.Notes))
	for _, n := range d.Notes {
		labels = append(labels, n.Label)
	}
	return labels
}

// SortByUpdatedDesc returns a copy of ns ordered for display, newest first.
// Search navigation never uses this order.
func SortByUpdatedDesc(ns []Note) []Note {
	out := make([]Note, len(ns))
	copy(out, ns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}
