package mouse

import "testing"

type fakeModes struct {
	mode Mode
	sgr  bool
	utf8 bool
}

func (m *fakeModes) MouseMode() Mode { return m.mode }
func (m *fakeModes) SGRMouse() bool  { return m.sgr }
func (m *fakeModes) UTF8Mouse() bool { return m.utf8 }

func TestEncodeOffWhenModeOff(t *testing.T) {
	enc := NewEncoder(&fakeModes{mode: ModeOff})

	if _, ok := enc.Encode(EventPress, ButtonLeft, 0, 0, 0); ok {
		t.Errorf("expected no report while mouse mode is off")
	}
}

func TestEncodeSGRPressAndRelease(t *testing.T) {
	enc := NewEncoder(&fakeModes{mode: ModeVT200, sgr: true})

	out, ok := enc.Encode(EventPress, ButtonLeft, 0, 4, 9)
	if !ok {
		t.Fatalf("expected press to encode")
	}
	if string(out) != "\x1b[<0;10;5M" {
		t.Errorf("expected SGR press report, got %q", out)
	}

	out, ok = enc.Encode(EventRelease, ButtonLeft, 0, 4, 9)
	if !ok {
		t.Fatalf("expected release to encode")
	}
	if string(out) != "\x1b[<0;10;5m" {
		t.Errorf("expected SGR release report, got %q", out)
	}
}

func TestEncodeSGRWithModifiers(t *testing.T) {
	enc := NewEncoder(&fakeModes{mode: ModeVT200, sgr: true})

	out, ok := enc.Encode(EventPress, ButtonLeft, ModShift|ModCtrl, 0, 0)
	if !ok {
		t.Fatalf("expected press to encode")
	}
	if string(out) != "\x1b[<20;1;1M" {
		t.Errorf("expected button code with shift+ctrl bits set, got %q", out)
	}
}

func TestEncodeX10ModeIgnoresRelease(t *testing.T) {
	enc := NewEncoder(&fakeModes{mode: ModeX10})

	if _, ok := enc.Encode(EventRelease, ButtonLeft, 0, 0, 0); ok {
		t.Errorf("expected X10 mode to ignore release events")
	}
}

func TestEncodeMotionRequiresButtonEventOrAnyEventMode(t *testing.T) {
	enc := NewEncoder(&fakeModes{mode: ModeVT200})

	if _, ok := enc.Encode(EventMotion, ButtonLeft, 0, 0, 0); ok {
		t.Errorf("expected VT200 mode to ignore motion events")
	}

	enc = NewEncoder(&fakeModes{mode: ModeAnyEvent})
	if _, ok := enc.Encode(EventMotion, ButtonNone, 0, 0, 0); !ok {
		t.Errorf("expected any-event mode to report motion even with no button held")
	}
}

func TestEncodeLegacyOffsetCoordinates(t *testing.T) {
	enc := NewEncoder(&fakeModes{mode: ModeVT200})

	out, ok := enc.Encode(EventPress, ButtonLeft, 0, 4, 9)
	if !ok {
		t.Fatalf("expected press to encode")
	}
	want := []byte{0x1B, '[', 'M', byte(0 + 32), byte(9 + 1 + 32), byte(4 + 1 + 32)}
	if string(out) != string(want) {
		t.Errorf("expected legacy report %v, got %v", want, out)
	}
}
