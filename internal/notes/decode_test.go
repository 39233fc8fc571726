package notes

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeDocument(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 7_000_000, time.UTC)

	tests := []struct {
		name          string
		data          string
		wantNotes     int
		wantUpdatedAt string
	}{
		{
			name:          "valid document",
			data:          `{"profile":"other","updatedAt":"2026-01-01T00:00:00.000Z","notes":[{"id":"a"},{"id":"b"}]}`,
			wantNotes:     2,
			wantUpdatedAt: "2026-01-01T00:00:00.000Z",
		},
		{
			name:          "malformed json",
			data:          `{"notes":[`,
			wantNotes:     0,
			wantUpdatedAt: "2026-02-03T04:05:06.007Z",
		},
		{
			name:          "array root",
			data:          `[1,2,3]`,
			wantNotes:     0,
			wantUpdatedAt: "2026-02-03T04:05:06.007Z",
		},
		{
			name:          "notes is not an array",
			data:          `{"notes":"oops"}`,
			wantNotes:     0,
			wantUpdatedAt: "2026-02-03T04:05:06.007Z",
		},
		{
			name:          "missing notes",
			data:          `{"updatedAt":"2026-01-01T00:00:00.000Z"}`,
			wantNotes:     0,
			wantUpdatedAt: "2026-01-01T00:00:00.000Z",
		},
		{
			name:          "bad entries dropped",
			data:          `{"notes":[null,7,{"id":"a","title":"ok"},"x"]}`,
			wantNotes:     1,
			wantUpdatedAt: "2026-02-03T04:05:06.007Z",
		},
		{
			name:          "empty input",
			data:          ``,
			wantNotes:     0,
			wantUpdatedAt: "2026-02-03T04:05:06.007Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := DecodeDocument([]byte(tt.data), "alice", now)
			if doc.Profile != "alice" {
				t.Errorf("DecodeDocument() profile = %q, want alice", doc.Profile)
			}
			if doc.Notes == nil {
				t.Error("DecodeDocument() notes is nil")
			}
			if len(doc.Notes) != tt.wantNotes {
				t.Errorf("DecodeDocument() notes = %d, want %d", len(doc.Notes), tt.wantNotes)
			}
			if doc.UpdatedAt != tt.wantUpdatedAt {
				t.Errorf("DecodeDocument() updatedAt = %q, want %q", doc.UpdatedAt, tt.wantUpdatedAt)
			}
		})
	}
}

func TestEncodeDocument_EmptyNotesIsArray(t *testing.T) {
	data, err := EncodeDocument(Document{Profile: "alice"})
	if err != nil {
		t.Fatalf("EncodeDocument() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["notes"].([]any); !ok {
		t.Errorf("notes = %#v, want empty array", raw["notes"])
	}
}

func TestDecodeProfile(t *testing.T) {
	p, ok := DecodeProfile([]byte(`{"name":"alice","displayName":"Alice","pinHash":"abcd1234"}`))
	if !ok || p.Name != "alice" || p.DisplayName != "Alice" {
		t.Errorf("DecodeProfile() = %+v, %v", p, ok)
	}

	for _, data := range []string{`not json`, `null`, ` null `, `[]`, `"alice"`, ``} {
		if _, ok := DecodeProfile([]byte(data)); ok {
			t.Errorf("DecodeProfile(%q) accepted a non-object", data)
		}
	}
}
