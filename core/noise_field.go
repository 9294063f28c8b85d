package core

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// NoiseKind selects the scalar field that drives displacement
type NoiseKind int

const (
	// NoiseSimplex is the classic 3D simplex noise, matching the GLSL port
	NoiseSimplex NoiseKind = iota
	// NoiseOpenSimplex is seeded OpenSimplex noise
	NoiseOpenSimplex
)

func (k NoiseKind) String() string {
	if k == NoiseOpenSimplex {
		return "opensimplex"
	}
	return "simplex"
}

// ParseNoiseKind maps a name to its NoiseKind. Unknown names return
// NoiseSimplex and false.
func ParseNoiseKind(name string) (NoiseKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simplex", "":
		return NoiseSimplex, true
	case "opensimplex":
		return NoiseOpenSimplex, true
	}
	return NoiseSimplex, false
}

// NoiseField is a deterministic 3D scalar field with values roughly in
// [-1, 1]. Implementations must be safe for concurrent use.
type NoiseField interface {
	Eval3(p mgl32.Vec3) float32
}

// SimplexField evaluates Simplex3. It ignores the seed.
type SimplexField struct{}

func (SimplexField) Eval3(p mgl32.Vec3) float32 { return Simplex3(p) }

// OpenSimplexField wraps a seeded OpenSimplex generator
type OpenSimplexField struct {
	noise opensimplex.Noise32
}

func NewOpenSimplexField(seed int64) *OpenSimplexField {
	return &OpenSimplexField{noise: opensimplex.New32(seed)}
}

func (f *OpenSimplexField) Eval3(p mgl32.Vec3) float32 {
	return f.noise.Eval3(p[0], p[1], p[2])
}

// NewNoiseField builds the field for kind
func NewNoiseField(kind NoiseKind, seed int64) NoiseField {
	if kind == NoiseOpenSimplex {
		return NewOpenSimplexField(seed)
	}
	return SimplexField{}
}
