package simulation

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"particlesphere/core"
)

const (
	DefaultDensity        = 128
	DefaultRadius         = 1.2
	DefaultNoiseFrequency = 1.5
	DefaultNoiseAmplitude = 0.15

	MinNoiseFrequency = 0.01
	MaxNoiseFrequency = 10.0
	MaxNoiseAmplitude = 2.0
	MinRadius         = 0.01
)

var (
	DefaultBaseColor      = core.MustParseHexColor("#4b0082")
	DefaultHighlightColor = core.MustParseHexColor("#00ffff")
)

// AppearanceState is what the displacement and compositing stages read
// every frame
type AppearanceState struct {
	BaseColor      core.Color
	HighlightColor core.Color
	NoiseFrequency float32
	NoiseAmplitude float32
	NoiseKind      core.NoiseKind
	NoiseSeed      int64
	Shape          core.Shape
}

// Params is the full configurable state of the pipeline
type Params struct {
	AppearanceState
	Density int
	Radius  float32
}

func DefaultParams() Params {
	return Params{
		AppearanceState: AppearanceState{
			BaseColor:      DefaultBaseColor,
			HighlightColor: DefaultHighlightColor,
			NoiseFrequency: DefaultNoiseFrequency,
			NoiseAmplitude: DefaultNoiseAmplitude,
			NoiseKind:      core.NoiseSimplex,
			Shape:          core.ShapeCircle,
		},
		Density: DefaultDensity,
		Radius:  DefaultRadius,
	}
}

// Normalize clamps every field into its valid range. The returned notes
// describe each adjustment so callers can log them.
func (p Params) Normalize() (Params, []string) {
	var notes []string

	if d := core.ClampDensity(p.Density); d != p.Density {
		notes = append(notes, fmt.Sprintf("density %d clamped to %d", p.Density, d))
		p.Density = d
	}
	if p.Radius < MinRadius {
		notes = append(notes, fmt.Sprintf("radius %g raised to %g", p.Radius, DefaultRadius))
		p.Radius = DefaultRadius
	}
	if f := mgl32.Clamp(p.NoiseFrequency, MinNoiseFrequency, MaxNoiseFrequency); f != p.NoiseFrequency {
		notes = append(notes, fmt.Sprintf("noise frequency %g clamped to %g", p.NoiseFrequency, f))
		p.NoiseFrequency = f
	}
	if a := mgl32.Clamp(p.NoiseAmplitude, 0, MaxNoiseAmplitude); a != p.NoiseAmplitude {
		notes = append(notes, fmt.Sprintf("noise amplitude %g clamped to %g", p.NoiseAmplitude, a))
		p.NoiseAmplitude = a
	}
	if p.NoiseKind < core.NoiseSimplex || p.NoiseKind > core.NoiseOpenSimplex {
		notes = append(notes, fmt.Sprintf("unknown noise kind %d, using simplex", int(p.NoiseKind)))
		p.NoiseKind = core.NoiseSimplex
	}
	if p.Shape < core.ShapeCircle || p.Shape > core.ShapeRing {
		notes = append(notes, fmt.Sprintf("unknown shape %d, using circle", int(p.Shape)))
		p.Shape = core.ShapeCircle
	}

	return p, notes
}
