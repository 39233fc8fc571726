package search

import (
	"net/url"
	"strconv"
	"strings"
)

// Payload is the state carried across a page transition to a note: the
// active query, the target note and the global hit index that led there.
// Nothing else survives the transition; the destination rebuilds its own
// cursors from it.
type Payload struct {
	Query    string `json:"query"`
	NoteID   string `json:"noteId"`
	HitIndex int    `json:"hitIndex"`
}

// HasQuery reports whether the payload carries a search.
func (p Payload) HasQuery() bool {
	return strings.TrimSpace(p.Query) != ""
}

// Values encodes the payload as query parameters (id, q, hit).
// q and hit are only set when a query is present.
func (p Payload) Values() url.Values {
	v := url.Values{}
	if p.NoteID != "" {
		v.Set("id", p.NoteID)
	}
	if p.HasQuery() {
		v.Set("q", p.Query)
		v.Set("hit", strconv.Itoa(p.HitIndex))
	}
	return v
}

// ParsePayload decodes query parameters written by Values.
// An unparsable hit index falls back to 0.
func ParsePayload(v url.Values) Payload {
	p := Payload{
		Query:  v.Get("q"),
		NoteID: v.Get("id"),
	}
	if hit, err := strconv.Atoi(v.Get("hit")); err == nil && hit >= 0 {
		p.HitIndex = hit
	}
	return p
}

// Open builds the local cursor for the destination note and selects the
// first occurrence in its content. It does not try to resume at the exact
// global hit; the returned offset is -1 when the content has no match.
func (p Payload) Open(content string) (*LocalCursor, int) {
	c := NewLocalCursor(p.Query)
	off, _ := c.First(content)
	return c, off
}
