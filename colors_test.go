package headlessterm

import (
	"image/color"
	"testing"
)

func TestSetDefaultColors(t *testing.T) {
	origFg, origBg, origCursor := DefaultForeground, DefaultBackground, DefaultCursorColor
	defer SetDefaultColors(origFg, origBg, origCursor)

	fg := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	bg := color.RGBA{R: 4, G: 5, B: 6, A: 255}
	cursor := color.RGBA{R: 7, G: 8, B: 9, A: 255}
	SetDefaultColors(fg, bg, cursor)

	if resolveDefaultColor(nil, true) != fg {
		t.Errorf("expected nil fg to resolve to %v, got %v", fg, resolveDefaultColor(nil, true))
	}
	if resolveDefaultColor(nil, false) != bg {
		t.Errorf("expected nil bg to resolve to %v, got %v", bg, resolveDefaultColor(nil, false))
	}
	if resolveNamedColor(NamedColorCursor, true) != cursor {
		t.Errorf("expected cursor color to resolve to %v, got %v", cursor, resolveNamedColor(NamedColorCursor, true))
	}
}
