package rendering

import (
	"github.com/go-gl/mathgl/mgl32"

	"particlesphere/core"
	"particlesphere/simulation"
)

const (
	// BaseSize is the point size in pixels before attraction growth and
	// perspective attenuation
	BaseSize = 8.0
	// Attenuation is k in the k / -viewZ perspective scale
	Attenuation = 10.0
	// AlphaScale multiplies every shape alpha
	AlphaScale = 0.8

	strengthGrowth = 1.5
	highlightReach = 0.8
	noiseTint      = 0.2
	ringCenter     = 0.35
)

// ShapeAlpha evaluates the footprint mask at coord, the offset from the
// point center in [-0.5, 0.5] per axis. It reports false when the
// fragment is discarded or contributes nothing.
func ShapeAlpha(shape core.Shape, coord mgl32.Vec2) (float32, bool) {
	var alpha float32
	switch shape {
	case core.ShapeSquare:
		d := max(abs32(coord[0]), abs32(coord[1]))
		if d > 0.5 {
			return 0, false
		}
		alpha = 1 - core.Smoothstep(0.4, 0.5, d)
	case core.ShapeDiamond:
		d := abs32(coord[0]) + abs32(coord[1])
		if d > 0.5 {
			return 0, false
		}
		alpha = 1 - core.Smoothstep(0.4, 0.5, d)
	case core.ShapeRing:
		r := coord.Len()
		if r > 0.5 {
			return 0, false
		}
		alpha = 1 - core.Smoothstep(0.1, 0.15, abs32(r-ringCenter))
	default:
		r := coord.Len()
		if r > 0.5 {
			return 0, false
		}
		alpha = 1 - core.Smoothstep(0.3, 0.5, r)
	}
	return alpha, alpha > 0
}

// MixFactor is the highlight blend for a point at distance from the
// pointer target with the given noise sample
func MixFactor(distance, noise float32) float32 {
	return mgl32.Clamp(core.Smoothstep(highlightReach, 0, distance)+noise*noiseTint, 0, 1)
}

// PointColor blends base toward highlight by MixFactor
func PointColor(app simulation.AppearanceState, distance, noise float32) core.Color {
	return app.BaseColor.Lerp(app.HighlightColor, MixFactor(distance, noise))
}

// PointSize is the rendered diameter in pixels. Points at or behind the
// eye have no size.
func PointSize(strength, viewZ float32) float32 {
	if viewZ >= 0 {
		return 0
	}
	return BaseSize * (1 + strength*strengthGrowth) * (Attenuation / -viewZ)
}

// Shade returns the premultiplied additive contribution of one fragment of
// a point whose color was resolved by PointColor
func Shade(shape core.Shape, pointColor core.Color, coord mgl32.Vec2) (core.Color, bool) {
	alpha, ok := ShapeAlpha(shape, coord)
	if !ok {
		return core.Color{}, false
	}
	return pointColor.Scale(alpha * AlphaScale), true
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
