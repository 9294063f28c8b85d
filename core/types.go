package core

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a linear RGB triple with components in [0, 1]
type Color struct {
	R, G, B float32
}

// ParseHexColor parses "#rrggbb", "rrggbb" or the short "#rgb" form
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	// colorful.Hex scans with %02x, which also accepts five digits
	if len(hex) != 3 && len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected 3 or 6 hex digits", s)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B)}, nil
}

// MustParseHexColor is ParseHexColor for compile-time constants
func MustParseHexColor(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as "#rrggbb"
func (c Color) Hex() string {
	return c.colorful().Clamped().Hex()
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

// Lerp blends from c toward other by t
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		R: Mix(c.R, other.R, t),
		G: Mix(c.G, other.G, t),
		B: Mix(c.B, other.B, t),
	}
}

// Scale multiplies every channel by s
func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Shape selects the per-point footprint used by the compositor
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeDiamond
	ShapeRing
)

func (s Shape) String() string {
	switch s {
	case ShapeSquare:
		return "square"
	case ShapeDiamond:
		return "diamond"
	case ShapeRing:
		return "ring"
	default:
		return "circle"
	}
}

// ParseShape maps a shape name to its Shape. Unknown names return
// ShapeCircle and false.
func ParseShape(name string) (Shape, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "circle":
		return ShapeCircle, true
	case "square":
		return ShapeSquare, true
	case "diamond":
		return ShapeDiamond, true
	case "ring":
		return ShapeRing, true
	}
	return ShapeCircle, false
}
