package search

// LocalCursor walks the occurrences of a query inside one note's content.
// Occurrences are recomputed from the text passed to every call, so edits
// between calls are picked up; only the last selected offset is remembered.
type LocalCursor struct {
	query    string
	selected int
}

// NewLocalCursor creates a cursor with nothing selected.
func NewLocalCursor(query string) *LocalCursor {
	return &LocalCursor{query: query, selected: -1}
}

// Query returns the query the cursor searches for.
func (c *LocalCursor) Query() string { return c.query }

// Selected returns the offset of the current occurrence, or -1.
func (c *LocalCursor) Selected() int { return c.selected }

// Count returns the number of occurrences in text.
func (c *LocalCursor) Count(text string) int {
	return len(Occurrences(text, c.query))
}

// Position returns the 1-based index of the selected occurrence in text, or 0.
func (c *LocalCursor) Position(text string) int {
	for i, off := range Occurrences(text, c.query) {
		if off == c.selected {
			return i + 1
		}
	}
	return 0
}

// First selects the first occurrence in text.
func (c *LocalCursor) First(text string) (int, bool) {
	occ := Occurrences(text, c.query)
	if len(occ) == 0 {
		c.selected = -1
		return -1, false
	}
	c.selected = occ[0]
	return c.selected, true
}

// Next selects the first occurrence after the current one, wrapping to the start.
// With nothing selected it selects the first occurrence.
func (c *LocalCursor) Next(text string) (int, bool) {
	occ := Occurrences(text, c.query)
	if len(occ) == 0 {
		c.selected = -1
		return -1, false
	}
	prev := c.selected
	c.selected = occ[0]
	if prev >= 0 {
		for _, off := range occ {
			if off > prev {
				c.selected = off
				break
			}
		}
	}
	return c.selected, true
}

// Prev selects the last occurrence before the current one, wrapping to the end.
// With nothing selected it selects the last occurrence.
func (c *LocalCursor) Prev(text string) (int, bool) {
	occ := Occurrences(text, c.query)
	if len(occ) == 0 {
		c.selected = -1
		return -1, false
	}
	prev := c.selected
	c.selected = occ[len(occ)-1]
	if prev >= 0 {
		for i := len(occ) - 1; i >= 0; i-- {
			if occ[i] < prev {
				c.selected = occ[i]
				break
			}
		}
	}
	return c.selected, true
}

// Seek selects the occurrence at index n, counted from the first with Next
// and wrapping past the end. A negative n selects the first occurrence.
func (c *LocalCursor) Seek(text string, n int) (int, bool) {
	off, ok := c.First(text)
	if !ok {
		return -1, false
	}
	steps := max(n, 0) % c.Count(text)
	for i := 0; i < steps; i++ {
		off, _ = c.Next(text)
	}
	return off, true
}
