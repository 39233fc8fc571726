package notes

import (
	"bytes"
	"encoding/json"
	"time"
)

type rawDocument struct {
	UpdatedAt string            `json:"updatedAt"`
	Notes     []json.RawMessage `json:"notes"`
}

// DecodeDocument parses a stored notes document leniently. Unparseable data,
// a non-object root or a non-array notes field yield an empty document, and
// note entries that are not objects are dropped. The profile is always forced
// to the given normalized name. It never fails.
func DecodeDocument(data []byte, profile string, now time.Time) Document {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return EmptyDocument(profile, now)
	}

	doc := Document{
		Profile:   profile,
		UpdatedAt: raw.UpdatedAt,
		Notes:     make([]Note, 0, len(raw.Notes)),
	}
	if doc.UpdatedAt == "" {
		doc.UpdatedAt = FormatTime(now)
	}

	for _, entry := range raw.Notes {
		if string(entry) == "null" {
			continue
		}
		var n Note
		if err := json.Unmarshal(entry, &n); err != nil {
			continue
		}
		doc.Notes = append(doc.Notes, n)
	}
	return doc
}

// EncodeDocument renders a document the way it is persisted: indented JSON.
func EncodeDocument(doc Document) ([]byte, error) {
	if doc.Notes == nil {
		doc.Notes = []Note{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeProfile parses a stored profile. Unparseable data or a root that is
// not an object (including null) yields false.
func DecodeProfile(data []byte) (Profile, bool) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}

// EncodeProfile renders a profile the way it is persisted.
func EncodeProfile(p Profile) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
