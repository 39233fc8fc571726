package search

import (
	"strings"
	"unicode"

	"github.com/samber/lo"

	"notesync/internal/notes"
)

// Field names a searchable note field.
type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
	FieldLabel   Field = "label"
)

// previewRadius is the number of characters kept on each side of a match.
const previewRadius = 24

// Hit is one occurrence of a query in a note field. Offset counts characters
// (runes) from the start of the field.
type Hit struct {
	NoteID    string `json:"noteId"`
	NoteTitle string `json:"noteTitle"`
	NoteLabel string `json:"noteLabel"`
	Field     Field  `json:"field"`
	Offset    int    `json:"offset"`
	Preview   string `json:"preview"`
}

// BuildHits returns every occurrence of query across ns in document order:
// notes in stored order, then title, content and label, then left to right.
// Matching is case-insensitive and non-overlapping. A blank query yields an
// empty list.
func BuildHits(ns []notes.Note, query string) []Hit {
	q := strings.TrimSpace(query)
	hits := []Hit{}
	if q == "" {
		return hits
	}
	needle := lowerRunes(q)

	for _, n := range ns {
		fields := []struct {
			field Field
			text  string
		}{
			{FieldTitle, n.Title},
			{FieldContent, n.Content},
			{FieldLabel, n.Label},
		}
		for _, f := range fields {
			text := []rune(f.text)
			for _, off := range scan(lowerRunes(f.text), needle) {
				hits = append(hits, Hit{
					NoteID:    n.ID,
					NoteTitle: displayTitle(n.Title),
					NoteLabel: displayLabel(n.Label),
					Field:     f.field,
					Offset:    off,
					Preview:   Preview(text, off, len(needle)),
				})
			}
		}
	}
	return hits
}

// Occurrences returns the rune offsets of every non-overlapping,
// case-insensitive occurrence of query in text.
func Occurrences(text, query string) []int {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	return scan(lowerRunes(text), lowerRunes(q))
}

// Preview cuts previewRadius characters around a match of length n at off,
// collapses whitespace runs to one space and trims the result.
func Preview(text []rune, off, n int) string {
	start := max(0, off-previewRadius)
	end := min(len(text), off+n+previewRadius)
	return strings.Join(strings.Fields(string(text[start:end])), " ")
}

// NoteIDs returns the distinct note ids of hits in first-seen order.
func NoteIDs(hits []Hit) []string {
	return lo.Uniq(lo.Map(hits, func(h Hit, _ int) string {
		return h.NoteID
	}))
}

// HitsForNote returns the hits that belong to one note.
func HitsForNote(hits []Hit, noteID string) []Hit {
	return lo.Filter(hits, func(h Hit, _ int) bool {
		return h.NoteID == noteID
	})
}

// FirstHitForNote returns the global index of the note's first hit, or -1.
func FirstHitForNote(hits []Hit, noteID string) int {
	for i, h := range hits {
		if h.NoteID == noteID {
			return i
		}
	}
	return -1
}

// scan finds non-overlapping occurrences of needle in hay. The cursor always
// moves by at least one so an empty needle cannot loop.
func scan(hay, needle []rune) []int {
	var out []int
	if len(needle) == 0 {
		return out
	}
	step := max(1, len(needle))
	for i := 0; i+len(needle) <= len(hay); {
		if runesEqual(hay[i:i+len(needle)], needle) {
			out = append(out, i)
			i += step
			continue
		}
		i++
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lowerRunes lowercases rune by rune so offsets stay aligned with the original text.
func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func displayTitle(title string) string {
	if title == "" {
		return notes.UntitledTitle
	}
	return title
}

func displayLabel(label string) string {
	if label == "" {
		return "?"
	}
	return label
}
