package notes

import "time"

// Merge reconciles the incoming notes with the remote document.
//
// The result is a union keyed by note id with per-note last-write-wins on
// UpdatedAt. A note survives on the incoming side only when its UpdatedAt is
// strictly greater than the remote copy's; ties keep the remote copy. Notes
// missing an id are ignored on both sides.
//
// Merge never removes a remote note: omitting a note from incoming leaves it
// in place. Deletion goes through RemoveNote.
//
// Output order is remote order followed by new incoming notes in incoming
// order. The result is stamped with now and the given profile.
func Merge(remote Document, incoming []Note, profile string, now time.Time) Document {
	order := make([]string, 0, len(remote.Notes)+len(incoming))
	byID := make(map[string]Note, len(remote.Notes)+len(incoming))

	for _, n := range remote.Notes {
		if n.ID == "" {
			continue
		}
		if _, seen := byID[n.ID]; !seen {
			order = append(order, n.ID)
		}
		byID[n.ID] = n
	}

	for _, n := range incoming {
		if n.ID == "" {
			continue
		}
		prev, ok := byID[n.ID]
		if !ok {
			order = append(order, n.ID)
			byID[n.ID] = n
			continue
		}
		if n.UpdatedAt != "" && n.UpdatedAt > prev.UpdatedAt {
			byID[n.ID] = n
		}
	}

	merged := make([]Note, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}

	return Document{
		Profile:   profile,
		UpdatedAt: FormatTime(now),
		Notes:     merged,
	}
}

// RemoveNote drops the note with the given id. The second return value
// reports whether a note was removed; the document is only re-stamped when it was.
func RemoveNote(doc Document, id string, now time.Time) (Document, bool) {
	idx := doc.Find(id)
	if id == "" || idx < 0 {
		return doc, false
	}

	kept := make([]Note, 0, len(doc.Notes)-1)
	kept = append(kept, doc.Notes[:idx]...)
	kept = append(kept, doc.Notes[idx+1:]...)

	return Document{
		Profile:   doc.Profile,
		UpdatedAt: FormatTime(now),
		Notes:     kept,
	}, true
}
