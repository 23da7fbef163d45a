package headlessterm

import (
	"encoding/binary"
	"image/color"
)

// LineAttr is a disjoint bitfield describing a line's double-width/height mode
// and soft-wrap state, mirroring the classic DEC line-attribute encoding.
type LineAttr uint8

const (
	// LineAttrModeMask isolates the 2-bit display mode.
	LineAttrModeMask LineAttr = 0x03

	LineAttrNormal          LineAttr = 0x00
	LineAttrDoubleWidth     LineAttr = 0x01
	LineAttrDoubleHeightTop LineAttr = 0x02
	LineAttrDoubleHeightBot LineAttr = 0x03

	// LineAttrWrapped marks a line that soft-wrapped into the next row.
	LineAttrWrapped LineAttr = 0x10
	// LineAttrWrappedWide marks a line whose last cell is empty because a
	// wide character was pushed whole onto the next line.
	LineAttrWrappedWide LineAttr = 0x20
)

// Mode returns the double-width/height mode bits, ignoring the wrap bits.
func (a LineAttr) Mode() LineAttr {
	return a & LineAttrModeMask
}

// Wrapped reports whether the line soft-wrapped.
func (a LineAttr) Wrapped() bool {
	return a&LineAttrWrapped != 0
}

// WrappedWide reports whether the line's final cell was left empty to avoid
// splitting a wide character across the wrap boundary.
func (a LineAttr) WrappedWide() bool {
	return a&LineAttrWrappedWide != 0
}

// WithWrapped returns a copy of a with the wrapped bit set or cleared.
func (a LineAttr) WithWrapped(wrapped bool) LineAttr {
	if wrapped {
		return a | LineAttrWrapped
	}
	return a &^ LineAttrWrapped
}

// WithWrappedWide returns a copy of a with the wrapped-wide bit set or
// cleared. The bit only means anything when Wrapped() is also true.
func (a LineAttr) WithWrappedWide(wide bool) LineAttr {
	if wide {
		return a | LineAttrWrappedWide
	}
	return a &^ LineAttrWrappedWide
}

// Line pairs a row of cells with its line attribute, the unit CompressLine
// and DecompressLine operate on.
type Line struct {
	Cells []Cell
	Attr  LineAttr
}

// packedColor packs an arbitrary color.Color into a comparable 64-bit word so
// that runs of identical cells can be detected and RLE-encoded.
func packedColor(c color.Color) uint64 {
	if c == nil {
		return 0
	}
	switch v := c.(type) {
	case *NamedColor:
		return uint64(1)<<40 | uint64(uint32(v.Name))
	case *IndexedColor:
		return uint64(2)<<40 | uint64(uint32(v.Index))
	default:
		r, g, b, a := c.RGBA()
		return uint64(3)<<40 | uint64(uint8(r>>8))<<24 | uint64(uint8(g>>8))<<16 | uint64(uint8(b>>8))<<8 | uint64(uint8(a>>8))
	}
}

func cellsEqual(a, b Cell) bool {
	if a.Char != b.Char || a.Flags != b.Flags {
		return false
	}
	if packedColor(a.Fg) != packedColor(b.Fg) || packedColor(a.Bg) != packedColor(b.Bg) {
		return false
	}
	if packedColor(a.UnderlineColor) != packedColor(b.UnderlineColor) {
		return false
	}
	if len(a.Combining) != len(b.Combining) {
		return false
	}
	for i := range a.Combining {
		if a.Combining[i] != b.Combining[i] {
			return false
		}
	}
	return true
}

// CompressLine encodes cells and its line attribute into a compact byte
// form: runs of cells identical to a default blank cell are run-length
// encoded, other runs are encoded cell by cell. DecompressLine reconstructs
// the exact original cells and attribute.
func CompressLine(cells []Cell, attr LineAttr) []byte {
	blank := NewCell()

	buf := make([]byte, 0, len(cells)*4+8)
	buf = append(buf, byte(attr))
	buf = appendVarint(buf, uint64(len(cells)))

	i := 0
	for i < len(cells) {
		if cellsEqual(cells[i], blank) {
			run := 1
			for i+run < len(cells) && cellsEqual(cells[i+run], blank) {
				run++
			}
			buf = append(buf, 0x00)
			buf = appendVarint(buf, uint64(run))
			i += run
			continue
		}

		run := 1
		for i+run < len(cells) && !cellsEqual(cells[i+run], blank) {
			run++
		}
		buf = append(buf, 0x01)
		buf = appendVarint(buf, uint64(run))
		for j := 0; j < run; j++ {
			buf = encodeCell(buf, cells[i+j])
		}
		i += run
	}

	return buf
}

// DecompressLine reverses CompressLine, returning a freshly allocated cell
// slice and the original line attribute.
func DecompressLine(data []byte) ([]Cell, LineAttr) {
	if len(data) == 0 {
		return nil, LineAttrNormal
	}

	attr := LineAttr(data[0])
	data = data[1:]

	total, n := readVarint(data)
	data = data[n:]

	cells := make([]Cell, 0, total)
	blank := NewCell()

	for uint64(len(cells)) < total && len(data) > 0 {
		tag := data[0]
		data = data[1:]
		run, n := readVarint(data)
		data = data[n:]

		switch tag {
		case 0x00:
			for i := uint64(0); i < run; i++ {
				cells = append(cells, blank.Copy())
			}
		case 0x01:
			for i := uint64(0); i < run; i++ {
				var c Cell
				c, data = decodeCell(data)
				cells = append(cells, c)
			}
		}
	}

	return cells, attr
}

func encodeCell(buf []byte, c Cell) []byte {
	buf = appendVarint(buf, uint64(c.Char))
	buf = appendVarint(buf, uint64(len(c.Combining)))
	for _, r := range c.Combining {
		buf = appendVarint(buf, uint64(r))
	}
	var flagBuf [2]byte
	binary.BigEndian.PutUint16(flagBuf[:], uint16(c.Flags))
	buf = append(buf, flagBuf[:]...)
	buf = appendColor(buf, c.Fg)
	buf = appendColor(buf, c.Bg)
	buf = appendColor(buf, c.UnderlineColor)
	return buf
}

func decodeCell(data []byte) (Cell, []byte) {
	var c Cell

	char, n := readVarint(data)
	data = data[n:]
	c.Char = rune(char)

	combiningCount, n := readVarint(data)
	data = data[n:]
	if combiningCount > 0 {
		c.Combining = make([]rune, combiningCount)
		for i := uint64(0); i < combiningCount; i++ {
			r, n := readVarint(data)
			data = data[n:]
			c.Combining[i] = rune(r)
		}
	}

	c.Flags = CellFlags(binary.BigEndian.Uint16(data[:2]))
	data = data[2:]

	c.Fg, data = readColor(data)
	c.Bg, data = readColor(data)
	c.UnderlineColor, data = readColor(data)

	return c, data
}

// appendColor serializes a color.Color as a tagged fixed-width record:
// tag 0 = nil, tag 1 = NamedColor, tag 2 = IndexedColor, tag 3 = RGBA.
func appendColor(buf []byte, c color.Color) []byte {
	if c == nil {
		return append(buf, 0)
	}
	switch v := c.(type) {
	case *NamedColor:
		buf = append(buf, 1)
		return appendVarint(buf, uint64(int64(v.Name)))
	case *IndexedColor:
		buf = append(buf, 2)
		return appendVarint(buf, uint64(int64(v.Index)))
	default:
		r, g, b, a := c.RGBA()
		return append(buf, 3, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
	}
}

func readColor(data []byte) (color.Color, []byte) {
	if len(data) == 0 {
		return nil, data
	}
	tag := data[0]
	data = data[1:]
	switch tag {
	case 0:
		return nil, data
	case 1:
		v, n := readVarint(data)
		return &NamedColor{Name: int(int64(v))}, data[n:]
	case 2:
		v, n := readVarint(data)
		return &IndexedColor{Index: int(int64(v))}, data[n:]
	case 3:
		c := color.RGBA{R: data[0], G: data[1], B: data[2], A: data[3]}
		return c, data[4:]
	default:
		return nil, data
	}
}

func appendVarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func readVarint(data []byte) (uint64, int) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, 1
	}
	return v, n
}
