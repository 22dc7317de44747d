package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

type colorKind uint8

const (
	kindNone colorKind = iota
	kindBasic
	kindIndexed
	kindRGB
)

// ColorSpec represents a color in one of three spaces: basic (16), indexed (256), or truecolor (RGB).
// The zero value means "no color".
type ColorSpec struct {
	kind    colorKind
	index   int
	r, g, b uint8
}

// Basic color helpers (0-7 normal, 8-15 bright)
var (
	Black   = Basic(0)
	Red     = Basic(1)
	Green   = Basic(2)
	Yellow  = Basic(3)
	Blue    = Basic(4)
	Magenta = Basic(5)
	Cyan    = Basic(6)
	White   = Basic(7)

	BrightBlack   = Basic(8) // Gray
	BrightRed     = Basic(9)
	BrightGreen   = Basic(10)
	BrightYellow  = Basic(11)
	BrightBlue    = Basic(12)
	BrightMagenta = Basic(13)
	BrightCyan    = Basic(14)
	BrightWhite   = Basic(15)
)

var basicNames = []string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
}

// Basic returns one of the 16 terminal colors; out-of-range values are clamped.
func Basic(i int) ColorSpec { return ColorSpec{kind: kindBasic, index: min(max(i, 0), 15)} }

// Indexed returns a 256-color palette spec (0–255).
func Indexed(i int) ColorSpec { return ColorSpec{kind: kindIndexed, index: min(max(i, 0), 255)} }

// Truecolor returns a 24-bit RGB color spec.
func Truecolor(r, g, b uint8) ColorSpec { return ColorSpec{kind: kindRGB, r: r, g: g, b: b} }

// IsZero reports whether no color is set.
func (c ColorSpec) IsZero() bool { return c.kind == kindNone }

func (c ColorSpec) String() string {
	switch c.kind {
	case kindBasic:
		if c.index < 8 {
			return basicNames[c.index]
		}
		return "bright-" + basicNames[c.index-8]
	case kindIndexed:
		return strconv.Itoa(c.index)
	case kindRGB:
		return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
	default:
		return ""
	}
}

// UnmarshalText parses the forms accepted by ParseColor.
func (c *ColorSpec) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText renders the color in the form ParseColor reads back.
func (c ColorSpec) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// toTermenv converts the spec to a termenv color degraded to profile p.
func (c ColorSpec) toTermenv(p termenv.Profile) termenv.Color {
	var tc termenv.Color
	switch c.kind {
	case kindBasic:
		tc = termenv.ANSIColor(c.index)
	case kindIndexed:
		tc = termenv.ANSI256Color(c.index)
	case kindRGB:
		tc = termenv.RGBColor(c.String())
	default:
		return nil
	}
	return p.Convert(tc)
}

// ParseColor reads a color name ("red", "bright-blue", "gray"), a palette
// index ("0".."255") or a hex triplet ("#ff8700"). An empty string yields
// the zero ColorSpec.
func ParseColor(s string) (ColorSpec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" || s == "default" {
		return ColorSpec{}, nil
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return ColorSpec{}, &ParseError{Kind: "color", Value: s}
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return ColorSpec{}, &ParseError{Kind: "color", Value: s}
		}
		return Truecolor(uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 255 {
			return ColorSpec{}, &ParseError{Kind: "color", Value: s}
		}
		if n < 16 {
			return Basic(n), nil
		}
		return Indexed(n), nil
	}

	switch s {
	case "gray", "grey":
		return BrightBlack, nil
	}

	name, bright := s, false
	for _, p := range []string{"bright-", "bright_", "bright", "light-", "light_"} {
		if strings.HasPrefix(s, p) {
			name, bright = s[len(p):], true
			break
		}
	}
	for i, n := range basicNames {
		if n == name {
			if bright {
				return Basic(i + 8), nil
			}
			return Basic(i), nil
		}
	}
	return ColorSpec{}, &ParseError{Kind: "color", Value: s}
}

// ParseError reports a value that could not be parsed.
type ParseError struct {
	Kind  string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("style: invalid %s %q", e.Kind, e.Value)
}
