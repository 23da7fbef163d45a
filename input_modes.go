package headlessterm

import "github.com/coreterm/coreterm/mouse"

// ApplicationCursorKeys reports whether DECCKM (application cursor keys) is set.
// Satisfies keys.ModeSource.
func (t *Terminal) ApplicationCursorKeys() bool {
	return t.HasMode(ModeCursorKeys)
}

// ApplicationKeypad reports whether the numeric keypad is in application mode.
// Satisfies keys.ModeSource.
func (t *Terminal) ApplicationKeypad() bool {
	return t.HasMode(ModeKeypadApplication)
}

// BackspaceSendsDEL reports whether Backspace sends DEL (0x7F) instead of BS
// (0x08). A host configuration choice, not a byte-stream-settable mode.
// Satisfies keys.ModeSource.
func (t *Terminal) BackspaceSendsDEL() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.backspaceSendsDEL
}

// SetBackspaceSendsDEL configures whether Backspace sends DEL or BS.
func (t *Terminal) SetBackspaceSendsDEL(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.backspaceSendsDEL = v
}

// EscapeSendsFS reports whether Escape sends FS (0x1C) instead of ESC
// (0x1B). A host configuration choice. Satisfies keys.ModeSource.
func (t *Terminal) EscapeSendsFS() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.escapeSendsFS
}

// SetEscapeSendsFS configures whether Escape sends FS or ESC.
func (t *Terminal) SetEscapeSendsFS(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.escapeSendsFS = v
}

// MouseMode returns the current xterm mouse-tracking mode. Satisfies
// mouse.ModeSource.
func (t *Terminal) MouseMode() mouse.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case t.modes&ModeReportAllMouseMotion != 0:
		return mouse.ModeAnyEvent
	case t.modes&ModeReportCellMouseMotion != 0:
		return mouse.ModeButtonEvent
	case t.modes&ModeReportMouseClicks != 0:
		return mouse.ModeVT200
	default:
		return mouse.ModeOff
	}
}

// SGRMouse reports whether SGR mouse coordinate encoding is enabled.
// Satisfies mouse.ModeSource.
func (t *Terminal) SGRMouse() bool {
	return t.HasMode(ModeSGRMouse)
}

// UTF8Mouse reports whether UTF-8 mouse coordinate encoding is enabled.
// Satisfies mouse.ModeSource.
func (t *Terminal) UTF8Mouse() bool {
	return t.HasMode(ModeUTF8Mouse)
}
