// Package keys translates keyboard events into the byte sequences a VT/xterm
// compatible child process expects, mirroring mintty's win_key_press key
// dispatch with the window-system virtual-key layer stripped out.
package keys

// Key identifies a non-printable key. Printable characters are encoded with
// Encoder.EncodeRune instead, matching the distinction mintty's ToUnicode
// fast path draws between ordinary characters and special keys.
type Key int

const (
	KeyEscape Key = iota
	KeyPause
	KeyTab
	KeyReturn
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyClear
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24
)

// Modifiers is a bitmask of active modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

// ModeSource exposes the subset of terminal mode state the encoder needs to
// choose among the several byte sequences a single key can produce.
type ModeSource interface {
	ApplicationCursorKeys() bool
	ApplicationKeypad() bool
	BackspaceSendsDEL() bool
	EscapeSendsFS() bool
}

// SelectionClearer is called before encoding any key, mirroring mintty's
// term_cancel_paste()/term_seen_key_event() calls at the top of every
// non-early-return branch of win_key_press.
type SelectionClearer interface {
	ClearSelection()
}

// Encoder converts (Key, Modifiers) pairs and printable runes into the byte
// sequences written to the child process.
type Encoder struct {
	Modes     ModeSource
	Selection SelectionClearer
}

// NewEncoder creates an Encoder reading mode state from modes.
func NewEncoder(modes ModeSource, selection SelectionClearer) *Encoder {
	return &Encoder{Modes: modes, Selection: selection}
}

// functionKeyCodes is the fixed CSI-tilde numeric code for F1-F24, indexed
// from F1. F1-F4 are handled separately as PF1-PF4 (SS3 P/Q/R/S).
var functionKeyCodes = [...]byte{
	11, 12, 13, 14, 15, 17, 18, 19, 20, 21, 23, 24,
	25, 26, 28, 29, 31, 32, 33, 34, 36, 37, 38, 39,
}

func (e *Encoder) clearSelection() {
	if e.Selection != nil {
		e.Selection.ClearSelection()
	}
}

// Encode returns the byte sequence for a special key under the given
// modifiers. ok is false if the key was not recognized.
func (e *Encoder) Encode(key Key, mods Modifiers) (out []byte, ok bool) {
	e.clearSelection()

	shift := mods&ModShift != 0
	alt := mods&ModAlt != 0
	ctrl := mods&ModCtrl != 0

	esc := func(b []byte, on bool) []byte {
		if on {
			return append(b, 0x1B)
		}
		return b
	}
	ctrlCh := func(b []byte, c byte) []byte {
		return append(b, c&0x1F)
	}

	if alt {
		switch key {
		case KeyEscape, KeyPause, KeyTab:
			return nil, false
		case KeyBackspace:
			if ctrl {
				return nil, false
			}
			var b []byte
			b = append(b, 0x1B)
			if shift {
				b = append(b, ' ')
			} else {
				b = append(b, 0x7F)
			}
			return b, true
		}
	} else {
		switch key {
		case KeyEscape:
			var b []byte
			if e.Modes != nil && e.Modes.EscapeSendsFS() {
				if shift {
					b = ctrlCh(b, ']')
				} else {
					b = ctrlCh(b, '\\')
				}
			} else {
				b = ctrlCh(b, '[')
			}
			return b, true
		case KeyPause:
			var b []byte
			b = esc(b, shift)
			b = ctrlCh(b, ']')
			return b, true
		case KeyTab:
			switch {
			case ctrl && shift:
				return []byte("\x1bOZ"), true
			case ctrl:
				return []byte("\x1bOz"), true
			case shift:
				return []byte("\x1b[Z"), true
			default:
				return []byte("\t"), true
			}
		case KeyReturn:
			if ctrl {
				var b []byte
				b = esc(b, shift)
				b = ctrlCh(b, '^')
				return b, true
			}
			if shift {
				return []byte{'\n'}, true
			}
			return []byte{'\r'}, true
		case KeyBackspace:
			if ctrl {
				var b []byte
				b = esc(b, shift)
				b = ctrlCh(b, '_')
				return b, true
			}
			if e.Modes != nil && e.Modes.BackspaceSendsDEL() {
				return []byte{0x7F}, true
			}
			return []byte{'\b'}, true
		}
	}

	// Arrow keys and clear key.
	if code, isArrow := arrowCode(key); isArrow {
		b := []byte{0x1B}
		if e.Modes != nil && e.Modes.ApplicationCursorKeys() {
			b = append(b, 'O')
		} else {
			b = append(b, '[')
		}
		if mods != 0 {
			b = append(b, '1', ';', '1'+byte(mods))
		}
		b = append(b, code)
		return b, true
	}

	// Block of six.
	if code, isSix := blockOfSixCode(key); isSix {
		b := []byte{0x1B, '[', code}
		if mods != 0 {
			b = append(b, ';', '1'+byte(mods))
		}
		b = append(b, '~')
		return b, true
	}

	// Function keys.
	if key >= KeyF1 && key <= KeyF4 {
		letter := byte('P' + (key - KeyF1))
		b := []byte{0x1B, 'O', letter}
		if mods != 0 {
			b = []byte{0x1B, '[', '1', ';', '1' + byte(mods), letter}
		}
		return b, true
	}
	if key >= KeyF5 && key <= KeyF24 {
		code := functionKeyCodes[key-KeyF1]
		b := []byte{0x1B, '['}
		b = append(b, '0'+code/10, '0'+code%10)
		if mods != 0 {
			b = append(b, ';', '1'+byte(mods))
		}
		b = append(b, '~')
		return b, true
	}

	return nil, false
}

func arrowCode(key Key) (byte, bool) {
	switch key {
	case KeyUp:
		return 'A', true
	case KeyDown:
		return 'B', true
	case KeyRight:
		return 'C', true
	case KeyLeft:
		return 'D', true
	case KeyClear:
		return 'E', true
	default:
		return 0, false
	}
}

func blockOfSixCode(key Key) (byte, bool) {
	switch key {
	case KeyPageUp:
		return '5', true
	case KeyPageDown:
		return '6', true
	case KeyHome:
		return '1', true
	case KeyEnd:
		return '4', true
	case KeyInsert:
		return '2', true
	case KeyDelete:
		return '3', true
	default:
		return 0, false
	}
}

// EncodeRune encodes an ordinary printable character, applying the Ctrl
// combinations mintty falls back to when the keyboard layout itself
// produces no code point (punctuation keys, Ctrl+Space, numeric keypad).
func (e *Encoder) EncodeRune(r rune, mods Modifiers) []byte {
	e.clearSelection()

	shift := mods&ModShift != 0
	alt := mods&ModAlt != 0
	ctrl := mods&ModCtrl != 0

	if ctrl && r == ' ' {
		var b []byte
		if shift {
			b = append(b, 0x1B)
		}
		return append(b, 0)
	}

	meta := alt && !ctrl
	var b []byte
	if meta {
		b = append(b, 0x1B)
	}
	return append(b, []byte(string(r))...)
}

// EncodeCtrlChar encodes a Ctrl-combination that yields a C0 control code
// directly from a punctuation or letter key, per mintty's Ctrl-combination
// fallback table (used when the keyboard layout produces nothing for the
// key, i.e. OEM punctuation keys on layouts where ToUnicode returns 0).
func (e *Encoder) EncodeCtrlChar(c byte, mods Modifiers) []byte {
	e.clearSelection()
	shift := mods&ModShift != 0
	alt := mods&ModAlt != 0
	var b []byte
	if alt || shift {
		b = append(b, 0x1B)
	}
	return append(b, c&0x1F)
}

// EncodeKeypad encodes a numeric-keypad digit or operator under application
// keypad mode and Ctrl, per mintty's app-pad fallback (SS3 lowercase for
// unmodified, uppercase for Alt/Shift).
func (e *Encoder) EncodeKeypad(c byte, mods Modifiers) []byte {
	e.clearSelection()
	shift := mods&ModShift != 0
	alt := mods&ModAlt != 0
	letter := byte('p')
	if alt || shift {
		letter = 'P'
	}
	return []byte{0x1B, 'O', letter + (c - '0')}
}
