package headlessterm

// RingScrollback is the default ScrollbackProvider: a bounded ring of
// lines, each stored compressed via CompressLine, with the oldest line
// discarded once the configured maximum is exceeded.
type RingScrollback struct {
	lines   [][]byte
	maxLine int
}

// NewRingScrollback creates a scrollback ring holding at most maxLines lines.
func NewRingScrollback(maxLines int) *RingScrollback {
	if maxLines < 0 {
		maxLines = 0
	}
	return &RingScrollback{maxLine: maxLines}
}

// Push compresses and appends a line, discarding the oldest line if the
// ring is at capacity. Lines pushed through this interface carry no line
// attribute (the ScrollbackProvider contract predates LineAttr), so they
// are archived with LineAttrNormal.
func (s *RingScrollback) Push(line []Cell) {
	if s.maxLine <= 0 {
		return
	}
	s.lines = append(s.lines, CompressLine(line, LineAttrNormal))
	if len(s.lines) > s.maxLine {
		s.lines = s.lines[len(s.lines)-s.maxLine:]
	}
}

// Len returns the number of lines currently retained.
func (s *RingScrollback) Len() int {
	return len(s.lines)
}

// Line decompresses and returns the line at index, where 0 is the oldest
// retained line. Returns nil if index is out of range.
func (s *RingScrollback) Line(index int) []Cell {
	if index < 0 || index >= len(s.lines) {
		return nil
	}
	cells, _ := DecompressLine(s.lines[index])
	return cells
}

// Clear discards all retained lines.
func (s *RingScrollback) Clear() {
	s.lines = nil
}

// SetMaxLines changes the capacity, trimming the oldest lines if the ring is
// currently over the new bound.
func (s *RingScrollback) SetMaxLines(max int) {
	if max < 0 {
		max = 0
	}
	s.maxLine = max
	if max == 0 {
		s.lines = nil
		return
	}
	if len(s.lines) > max {
		s.lines = s.lines[len(s.lines)-max:]
	}
}

// MaxLines returns the current capacity.
func (s *RingScrollback) MaxLines() int {
	return s.maxLine
}

var _ ScrollbackProvider = (*RingScrollback)(nil)
