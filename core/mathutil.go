package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Smoothstep is GLSL smoothstep. edge0 may be greater than edge1, which
// yields a falling 1→0 curve.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Mix is GLSL mix
func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

func floor(x float32) float32 {
	return float32(math.Floor(float64(x)))
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
