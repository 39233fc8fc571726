package search

import "fmt"

// Navigator is a cursor over a global hit list.
// All moves return the new cursor; on an empty list they return -1.
type Navigator struct {
	hits   []Hit
	cursor int
}

// NewNavigator positions a cursor on the first hit.
func NewNavigator(hits []Hit) *Navigator {
	n := &Navigator{hits: hits, cursor: -1}
	if len(hits) > 0 {
		n.cursor = 0
	}
	return n
}

// Len returns the number of hits.
func (n *Navigator) Len() int { return len(n.hits) }

// Cursor returns the current index, or -1 when there are no hits.
func (n *Navigator) Cursor() int { return n.cursor }

// Hits returns the underlying hit list.
func (n *Navigator) Hits() []Hit { return n.hits }

// Current returns the hit under the cursor.
func (n *Navigator) Current() (Hit, bool) {
	if n.cursor < 0 || n.cursor >= len(n.hits) {
		return Hit{}, false
	}
	return n.hits[n.cursor], true
}

// Counter renders the 1-based position, e.g. "3/7", or "0/0".
func (n *Navigator) Counter() string {
	if len(n.hits) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", n.cursor+1, len(n.hits))
}

// NextHit moves to the following hit, wrapping at the end.
func (n *Navigator) NextHit() int { return n.step(1) }

// PrevHit moves to the preceding hit, wrapping at the start.
func (n *Navigator) PrevHit() int { return n.step(-1) }

// NextNoteHit moves to the next hit that belongs to a different note.
func (n *Navigator) NextNoteHit() int { return n.stepNote(1) }

// PrevNoteHit moves to the previous hit that belongs to a different note.
func (n *Navigator) PrevNoteHit() int { return n.stepNote(-1) }

// JumpTo moves to index i clamped into [0, Len()-1].
func (n *Navigator) JumpTo(i int) int {
	if len(n.hits) == 0 {
		return -1
	}
	n.cursor = min(max(i, 0), len(n.hits)-1)
	return n.cursor
}

func (n *Navigator) step(dir int) int {
	size := len(n.hits)
	if size == 0 {
		return -1
	}
	n.cursor = (n.cursor + dir + size) % size
	return n.cursor
}

// stepNote scans at most one lap for a hit in another note and falls back to
// a plain step when every hit shares the current note.
func (n *Navigator) stepNote(dir int) int {
	current, ok := n.Current()
	if !ok {
		return n.step(dir)
	}

	size := len(n.hits)
	i := n.cursor
	for k := 0; k < size; k++ {
		i = (i + dir + size) % size
		if n.hits[i].NoteID != current.NoteID {
			n.cursor = i
			return i
		}
	}
	return n.step(dir)
}
