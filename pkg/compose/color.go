package compose

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

var (
	black = color.NRGBA{A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// ParseHex parses #rgb, #rrggbb and #rrggbbaa colors.
func ParseHex(s string) (color.NRGBA, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, false
	}
	s = s[1:]
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	if len(s) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

// colorOr parses s, returning def when it is not a valid hex color.
func colorOr(s string, def color.NRGBA) color.NRGBA {
	if c, ok := ParseHex(s); ok {
		return c
	}
	return def
}

// withOpacity scales the alpha channel of c by opacity clamped to [0,1].
func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	o := math.Max(0, math.Min(opacity, 1))
	c.A = uint8(float64(c.A) * o)
	return c
}
