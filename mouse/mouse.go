// Package mouse encodes pointer events into the X10, VT200, button-event,
// and any-event xterm mouse reports, and the SGR/UTF-8 coordinate
// extensions, per the mode bits the terminal currently has set.
package mouse

import "fmt"

// Button identifies which physical button (or wheel direction) an event concerns.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
	ButtonNone // motion with no button held
	ButtonWheelUp
	ButtonWheelDown
)

// EventKind identifies the kind of pointer transition being reported.
type EventKind int

const (
	EventPress EventKind = iota
	EventRelease
	EventMotion
)

// Modifiers mirrors keys.Modifiers; duplicated here to keep this package
// free of a dependency on the keys package.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

// Mode is the subset of xterm mouse-tracking modes this encoder supports.
type Mode int

const (
	ModeOff Mode = iota
	ModeX10
	ModeVT200
	ModeButtonEvent
	ModeAnyEvent
)

// ModeSource exposes the terminal's current mouse-tracking mode and
// coordinate encoding so the encoder can pick the right report shape.
type ModeSource interface {
	MouseMode() Mode
	SGRMouse() bool
	UTF8Mouse() bool
}

// Encoder turns pointer events into xterm mouse-report byte sequences.
type Encoder struct {
	Modes ModeSource
}

// NewEncoder creates an Encoder reading mode state from modes.
func NewEncoder(modes ModeSource) *Encoder {
	return &Encoder{Modes: modes}
}

// Encode returns the mouse report for the given event, or ok=false if the
// current mode suppresses it (e.g. motion events while only ModeX10/VT200
// click reporting is enabled). row/col are 0-based; reports use 1-based
// coordinates per the protocol.
func (e *Encoder) Encode(kind EventKind, button Button, mods Modifiers, row, col int) (out []byte, ok bool) {
	if e.Modes == nil {
		return nil, false
	}
	mode := e.Modes.MouseMode()
	if mode == ModeOff {
		return nil, false
	}
	if kind == EventMotion {
		if mode != ModeButtonEvent && mode != ModeAnyEvent {
			return nil, false
		}
		if mode == ModeButtonEvent && button == ButtonNone {
			return nil, false
		}
	}
	if mode == ModeX10 && kind != EventPress {
		return nil, false
	}

	if e.Modes.SGRMouse() {
		// SGR encoding preserves the button identity on release; only the
		// trailing M/m distinguishes press from release.
		cb := buttonCode(kind, button, mods, false)
		final := byte('M')
		if kind == EventRelease {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", cb, col+1, row+1, final)), true
	}

	cb := buttonCode(kind, button, mods, true)
	if mode == ModeX10 {
		cb = buttonCode(EventPress, button, 0, true)
	}

	// Legacy X10/UTF-8 coordinate encoding: byte values offset by 32, capped
	// or widened to two UTF-8 bytes past column/row 223 when UTF8Mouse is set.
	b := []byte{0x1B, '[', 'M', byte(cb + 32)}
	b = append(b, encodeCoord(col+1, e.Modes.UTF8Mouse())...)
	b = append(b, encodeCoord(row+1, e.Modes.UTF8Mouse())...)
	return b, true
}

// buttonCode computes the xterm button+modifier bitfield. collapseRelease
// selects the legacy X10/VT200 convention of reporting every non-wheel
// release as button code 3 regardless of which button was released (the
// format has no other way to say "released"); SGR encoding instead keeps
// the real button code and relies on the trailing M/m to say press vs release.
func buttonCode(kind EventKind, button Button, mods Modifiers, collapseRelease bool) int {
	var cb int
	switch button {
	case ButtonLeft:
		cb = 0
	case ButtonMiddle:
		cb = 1
	case ButtonRight:
		cb = 2
	case ButtonNone:
		cb = 3
	case ButtonWheelUp:
		cb = 64
	case ButtonWheelDown:
		cb = 65
	}
	if collapseRelease && kind == EventRelease && button != ButtonWheelUp && button != ButtonWheelDown {
		cb = 3
	}
	if kind == EventMotion {
		cb |= 32
	}
	if mods&ModShift != 0 {
		cb |= 4
	}
	if mods&ModAlt != 0 {
		cb |= 8
	}
	if mods&ModCtrl != 0 {
		cb |= 16
	}
	return cb
}

// encodeCoord encodes a 1-based coordinate as the legacy offset-by-32 byte,
// or as a 2-byte UTF-8 sequence once the value would exceed a single byte
// (code point 127+32), when utf8 mode is enabled.
func encodeCoord(v int, utf8 bool) []byte {
	c := v + 32
	if c <= 255 || !utf8 {
		if c > 255 {
			c = 255
		}
		return []byte{byte(c)}
	}
	return []byte(string(rune(c)))
}
