package headlessterm

import (
	"encoding/base64"
	"fmt"
	"image/color"
)

// SnapshotDetail specifies the level of detail in a snapshot.
type SnapshotDetail string

const (
	// SnapshotDetailText returns plain text only.
	SnapshotDetailText SnapshotDetail = "text"
	// SnapshotDetailStyled returns text with style segments per line.
	SnapshotDetailStyled SnapshotDetail = "styled"
	// SnapshotDetailFull returns full cell-by-cell data.
	SnapshotDetailFull SnapshotDetail = "full"
)

// Snapshot represents a complete terminal screen capture.
type Snapshot struct {
	Size       SnapshotSize    `json:"size"`
	Cursor     SnapshotCursor  `json:"cursor"`
	Lines      []SnapshotLine  `json:"lines"`
	Scrollback []SnapshotLine  `json:"scrollback,omitempty"`
	Images     []SnapshotImage `json:"images,omitempty"`
}

// SnapshotSize holds terminal dimensions.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
	Style   string `json:"style"`
}

// SnapshotLine represents a single line in the snapshot.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
	Cells    []SnapshotCell    `json:"cells,omitempty"`
}

// SnapshotSegment represents a styled text segment within a line.
type SnapshotSegment struct {
	Text       string        `json:"text"`
	Fg         string        `json:"fg,omitempty"`
	Bg         string        `json:"bg,omitempty"`
	Attributes SnapshotAttrs `json:"attrs,omitempty"`
	Hyperlink  *SnapshotLink `json:"hyperlink,omitempty"`
}

// SnapshotCell represents a single cell with full attributes.
type SnapshotCell struct {
	Char           string        `json:"char"`
	Fg             string        `json:"fg"`
	Bg             string        `json:"bg"`
	Attributes     SnapshotAttrs `json:"attrs,omitempty"`
	UnderlineColor string        `json:"underline_color,omitempty"`
	Hyperlink      *SnapshotLink `json:"hyperlink,omitempty"`
	Wide           bool          `json:"wide,omitempty"`
	WideSpacer     bool          `json:"wide_spacer,omitempty"`
}

// SnapshotAttrs holds text formatting attributes. Underline is "" when the
// cell has no underline, else one of "single", "double", "curly", "dotted",
// "dashed"; Blink is "" when not blinking, else "slow" or "fast".
type SnapshotAttrs struct {
	Bold          bool   `json:"bold,omitempty"`
	Dim           bool   `json:"dim,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     string `json:"underline,omitempty"`
	Blink         string `json:"blink,omitempty"`
	Reverse       bool   `json:"reverse,omitempty"`
	Hidden        bool   `json:"hidden,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
}

// SnapshotLink holds hyperlink information.
type SnapshotLink struct {
	ID  string `json:"id,omitempty"`
	URI string `json:"uri"`
}

// SnapshotImage holds image placement metadata (without pixel data).
type SnapshotImage struct {
	ID          uint32 `json:"id"`           // Unique image ID
	PlacementID uint32 `json:"placement_id"` // Unique placement ID
	Row         int    `json:"row"`          // Position row (cells)
	Col         int    `json:"col"`          // Position column (cells)
	Rows        int    `json:"rows"`         // Size in rows (cells)
	Cols        int    `json:"cols"`         // Size in columns (cells)
	PixelWidth  uint32 `json:"pixel_width"`  // Original image width (pixels)
	PixelHeight uint32 `json:"pixel_height"` // Original image height (pixels)
	ZIndex      int32  `json:"z_index"`      // Z-index for layering
}

// ImageSnapshot holds complete image data for retrieval.
type ImageSnapshot struct {
	ID     uint32 `json:"id"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Format string `json:"format"` // "rgba" (raw RGBA pixels, base64 encoded)
	Data   string `json:"data"`   // Base64 encoded image data
}

// GetImageData returns the image data for the given ID, or nil if not found.
func (t *Terminal) GetImageData(id uint32) *ImageSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	img := t.images.Image(id)
	if img == nil {
		return nil
	}

	return &ImageSnapshot{
		ID:     img.ID,
		Width:  img.Width,
		Height: img.Height,
		Format: "rgba",
		Data:   base64.StdEncoding.EncodeToString(img.Data),
	}
}

// Snapshot creates a snapshot of the current terminal state. The detail
// parameter controls how much per-cell information Lines carries; it does
// not affect Scrollback, which SnapshotWithScrollback populates separately.
func (t *Terminal) Snapshot(detail SnapshotDetail) *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked(detail, 0)
}

// SnapshotWithScrollback is Snapshot plus up to maxScrollback archived lines
// (oldest of the requested window first, nearest the live screen last),
// rendered at the same detail level. A maxScrollback of 0 omits scrollback
// entirely, matching Snapshot; a negative value requests all retained lines.
func (t *Terminal) SnapshotWithScrollback(detail SnapshotDetail, maxScrollback int) *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked(detail, maxScrollback)
}

func (t *Terminal) snapshotLocked(detail SnapshotDetail, maxScrollback int) *Snapshot {
	snap := &Snapshot{
		Size: SnapshotSize{
			Rows: t.rows,
			Cols: t.cols,
		},
		Cursor: SnapshotCursor{
			Row:     t.cursor.Row,
			Col:     t.cursor.Col,
			Visible: t.cursor.Visible,
			Style:   cursorStyleToString(t.cursor.Style),
		},
		Lines: make([]SnapshotLine, t.rows),
	}

	for row := 0; row < t.rows; row++ {
		cells := make([]Cell, t.cols)
		for col := 0; col < t.cols; col++ {
			if c := t.activeBuffer.Cell(row, col); c != nil {
				cells[col] = *c
			}
		}
		snap.Lines[row] = cellsToSnapshotLine(cells, detail)
	}

	if maxScrollback != 0 {
		snap.Scrollback = t.snapshotScrollbackLocked(detail, maxScrollback)
	}

	snap.Images = t.snapshotImages()

	return snap
}

func (t *Terminal) snapshotScrollbackLocked(detail SnapshotDetail, maxLines int) []SnapshotLine {
	total := t.primaryBuffer.ScrollbackLen()
	if total == 0 {
		return nil
	}

	start := 0
	if maxLines > 0 && maxLines < total {
		start = total - maxLines
	}

	lines := make([]SnapshotLine, 0, total-start)
	for i := start; i < total; i++ {
		cells := t.primaryBuffer.ScrollbackLine(i)
		lines = append(lines, cellsToSnapshotLine(cells, detail))
	}
	return lines
}

// snapshotImages returns all image placements with metadata.
func (t *Terminal) snapshotImages() []SnapshotImage {
	placements := t.images.Placements()
	if len(placements) == 0 {
		return nil
	}

	images := make([]SnapshotImage, 0, len(placements))
	for _, p := range placements {
		img := t.images.Image(p.ImageID)
		if img == nil {
			continue
		}

		images = append(images, SnapshotImage{
			ID:          p.ImageID,
			PlacementID: p.ID,
			Row:         p.Row,
			Col:         p.Col,
			Rows:        p.Rows,
			Cols:        p.Cols,
			PixelWidth:  img.Width,
			PixelHeight: img.Height,
			ZIndex:      p.ZIndex,
		})
	}

	return images
}

// cellsToSnapshotLine renders one row's cells (live buffer or scrollback) at
// the requested detail level. Sharing this between Lines and Scrollback is
// what lets scrollback snapshotting reuse the same styled-segment and
// full-cell encoders as the live screen.
func cellsToSnapshotLine(cells []Cell, detail SnapshotDetail) SnapshotLine {
	line := SnapshotLine{
		Text: cellsLineText(cells),
	}

	switch detail {
	case SnapshotDetailStyled:
		line.Segments = cellsToSegments(cells)
	case SnapshotDetailFull:
		line.Cells = cellsToSnapshotCells(cells)
	}

	return line
}

func cellsLineText(cells []Cell) string {
	runes := make([]rune, 0, len(cells))
	for i := range cells {
		cell := &cells[i]
		if cell.IsWideSpacer() {
			continue
		}
		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		runes = append(runes, ch)
	}
	for len(runes) > 0 && runes[len(runes)-1] == ' ' {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

// cellsToSegments converts a row to styled segments (runs of same style).
func cellsToSegments(cells []Cell) []SnapshotSegment {
	var segments []SnapshotSegment
	var current *SnapshotSegment
	var currentChars []rune

	for i := range cells {
		cell := &cells[i]
		if cell.IsWideSpacer() {
			continue
		}

		fg := colorToHex(cell.Fg)
		bg := colorToHex(cell.Bg)
		attrs := cellAttrsToSnapshot(cell)
		link := cellHyperlinkToSnapshot(cell)

		if current == nil || !segmentMatches(current, fg, bg, attrs, link) {
			if current != nil && len(currentChars) > 0 {
				current.Text = string(currentChars)
				segments = append(segments, *current)
			}

			current = &SnapshotSegment{
				Fg:         fg,
				Bg:         bg,
				Attributes: attrs,
				Hyperlink:  link,
			}
			currentChars = nil
		}

		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		currentChars = append(currentChars, ch)
	}

	if current != nil && len(currentChars) > 0 {
		current.Text = string(currentChars)
		segments = append(segments, *current)
	}

	return segments
}

// cellsToSnapshotCells converts a row to full per-cell data.
func cellsToSnapshotCells(cells []Cell) []SnapshotCell {
	out := make([]SnapshotCell, 0, len(cells))

	for i := range cells {
		cell := &cells[i]
		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}

		out = append(out, SnapshotCell{
			Char:           string(ch),
			Fg:             colorToHex(cell.Fg),
			Bg:             colorToHex(cell.Bg),
			Attributes:     cellAttrsToSnapshot(cell),
			UnderlineColor: colorToHex(cell.UnderlineColor),
			Hyperlink:      cellHyperlinkToSnapshot(cell),
			Wide:           cell.IsWide(),
			WideSpacer:     cell.IsWideSpacer(),
		})
	}

	return out
}

// segmentMatches checks if segment matches the given style.
func segmentMatches(seg *SnapshotSegment, fg, bg string, attrs SnapshotAttrs, link *SnapshotLink) bool {
	if seg.Fg != fg || seg.Bg != bg {
		return false
	}
	if seg.Attributes != attrs {
		return false
	}
	if seg.Hyperlink == nil && link == nil {
		return true
	}
	if seg.Hyperlink == nil || link == nil {
		return false
	}
	return seg.Hyperlink.URI == link.URI && seg.Hyperlink.ID == link.ID
}

// colorToHex converts a color to hex string.
func colorToHex(c color.Color) string {
	if c == nil {
		return ""
	}

	rgba := resolveDefaultColor(c, true)
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// cellAttrsToSnapshot extracts cell attributes.
func cellAttrsToSnapshot(cell *Cell) SnapshotAttrs {
	return SnapshotAttrs{
		Bold:          cell.HasFlag(CellFlagBold),
		Dim:           cell.HasFlag(CellFlagDim),
		Italic:        cell.HasFlag(CellFlagItalic),
		Underline:     underlineStyleToString(cell),
		Blink:         blinkStyleToString(cell),
		Reverse:       cell.HasFlag(CellFlagReverse),
		Hidden:        cell.HasFlag(CellFlagHidden),
		Strikethrough: cell.HasFlag(CellFlagStrike),
	}
}

// underlineStyleToString names cell's underline style, or "" if none. The
// styles are mutually exclusive SGR 4:n selections, checked most-specific
// first since CellFlagUnderline alone only means the plain "single" case.
func underlineStyleToString(cell *Cell) string {
	switch {
	case cell.HasFlag(CellFlagDoubleUnderline):
		return "double"
	case cell.HasFlag(CellFlagCurlyUnderline):
		return "curly"
	case cell.HasFlag(CellFlagDottedUnderline):
		return "dotted"
	case cell.HasFlag(CellFlagDashedUnderline):
		return "dashed"
	case cell.HasFlag(CellFlagUnderline):
		return "single"
	default:
		return ""
	}
}

// blinkStyleToString names cell's blink rate, or "" if not blinking.
func blinkStyleToString(cell *Cell) string {
	switch {
	case cell.HasFlag(CellFlagBlinkFast):
		return "fast"
	case cell.HasFlag(CellFlagBlinkSlow):
		return "slow"
	default:
		return ""
	}
}

// cellHyperlinkToSnapshot extracts hyperlink info.
func cellHyperlinkToSnapshot(cell *Cell) *SnapshotLink {
	if cell.Hyperlink == nil {
		return nil
	}
	return &SnapshotLink{
		ID:  cell.Hyperlink.ID,
		URI: cell.Hyperlink.URI,
	}
}

// cursorStyleToString converts cursor style to string.
func cursorStyleToString(style CursorStyle) string {
	switch style {
	case CursorStyleBlinkingBlock, CursorStyleSteadyBlock:
		return "block"
	case CursorStyleBlinkingUnderline, CursorStyleSteadyUnderline:
		return "underline"
	case CursorStyleBlinkingBar, CursorStyleSteadyBar:
		return "bar"
	default:
		return "block"
	}
}
