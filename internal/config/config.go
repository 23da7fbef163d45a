// Package config parses the terminal's persisted-state file: a plain
// Name=Value format, one assignment per line, with '#' comments and blank
// lines ignored. The format predates (and is simpler than) any common
// config-file schema, so it is parsed with a small hand-rolled scanner
// rather than a general-purpose library.
package config

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Color is an RGB triple parsed from one of the four literal spellings the
// file format accepts: "r,g,b", "#RRGGBB", "rgb:RR/GG/BB", "rgb:RRRR/GGGG/BBBB".
type Color struct {
	R, G, B uint8
}

// RGBA converts the parsed color to an opaque image/color.RGBA value.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Config holds the recognized persisted settings. Unknown keys are logged
// and ignored rather than rejected, so older and newer files remain
// mutually readable.
type Config struct {
	Title             string
	Foreground        Color
	Background        Color
	CursorColor       Color
	Rows              int
	Cols              int
	Font              string
	FontSize          int
	ScrollbackLines   int
	BackspaceSendsDEL bool
	EscapeSendsFS     bool
	Locale            string
	Charset           string
}

// Default returns the built-in defaults applied before a file is parsed.
func Default() *Config {
	return &Config{
		Foreground:      Color{0xBF, 0xBF, 0xBF},
		Background:      Color{0, 0, 0},
		CursorColor:     Color{0xBF, 0xBF, 0xBF},
		Rows:            24,
		Cols:            80,
		Font:            "monospace",
		FontSize:        10,
		ScrollbackLines: 1000,
		Locale:          "C",
		Charset:         "UTF-8",
	}
}

// Parse reads Name=Value assignments from r into a copy of Default(),
// overwriting any field named by a recognized key.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			log.Warn().Int("line", lineNo).Str("text", line).Msg("config: ignoring malformed line")
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if err := cfg.set(name, value); err != nil {
			log.Warn().Int("line", lineNo).Str("name", name).Err(err).Msg("config: ignoring line")
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) set(name, value string) error {
	switch name {
	case "Title":
		c.Title = value
	case "Foreground":
		col, err := ParseColor(value)
		if err != nil {
			return err
		}
		c.Foreground = col
	case "Background":
		col, err := ParseColor(value)
		if err != nil {
			return err
		}
		c.Background = col
	case "CursorColour", "CursorColor":
		col, err := ParseColor(value)
		if err != nil {
			return err
		}
		c.CursorColor = col
	case "Rows":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Rows = n
	case "Columns", "Cols":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Cols = n
	case "Font":
		c.Font = value
	case "FontHeight", "FontSize":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.FontSize = n
	case "ScrollbackLines":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.ScrollbackLines = n
	case "BackspaceSendsDEL":
		c.BackspaceSendsDEL = value == "1" || value == "true"
	case "EscapeSendsFS":
		c.EscapeSendsFS = value == "1" || value == "true"
	case "Locale":
		c.Locale = value
	case "Charset":
		c.Charset = value
	default:
		return fmt.Errorf("unknown key %q", name)
	}
	return nil
}

// ParseColor accepts "r,g,b", "#RRGGBB", "rgb:RR/GG/BB", and
// "rgb:RRRR/GGGG/BBBB" (the high byte of each 16-bit component is kept).
func ParseColor(s string) (Color, error) {
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb:"):
		return parseRGBColor(s[4:])
	case strings.Contains(s, ","):
		return parseDecimalColor(s)
	default:
		return Color{}, fmt.Errorf("unrecognized color literal %q", s)
	}
}

func parseHexColor(s string) (Color, error) {
	if len(s) != 6 {
		return Color{}, fmt.Errorf("expected 6 hex digits, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, err
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

func parseRGBColor(s string) (Color, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("expected R/G/B, got %q", s)
	}
	var out [3]uint8
	for i, p := range parts {
		if len(p) != 2 && len(p) != 4 {
			return Color{}, fmt.Errorf("expected 2 or 4 hex digits per component, got %q", p)
		}
		v, err := strconv.ParseUint(p, 16, 64)
		if err != nil {
			return Color{}, err
		}
		if len(p) == 4 {
			v >>= 8
		}
		out[i] = uint8(v)
	}
	return Color{out[0], out[1], out[2]}, nil
}

func parseDecimalColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("expected r,g,b, got %q", s)
	}
	var out [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("invalid color component %q", p)
		}
		out[i] = uint8(v)
	}
	return Color{out[0], out[1], out[2]}, nil
}
