package simulation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// SpinY is the per-tick rotation about the Y axis in radians
	SpinY = 0.002
	// SpinZ is the per-tick rotation about the Z axis in radians
	SpinZ = 0.001
)

// Orientation is the accumulated object rotation, Euler XYZ with X fixed at
// zero. Angles are wrapped to [0, 2π).
type Orientation struct {
	Y float64
	Z float64
}

// Tick advances the orientation by one frame's increments
func (o *Orientation) Tick() {
	o.Y = wrapAngle(o.Y + SpinY)
	o.Z = wrapAngle(o.Z + SpinZ)
}

// Matrix returns the object-to-world rotation
func (o Orientation) Matrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(float32(o.Y)).Mul4(mgl32.HomogRotate3DZ(float32(o.Z)))
}

// Inverse returns the world-to-object rotation
func (o Orientation) Inverse() mgl32.Mat4 {
	// Pure rotation: inverse is the transpose
	return o.Matrix().Transpose()
}

func wrapAngle(a float64) float64 {
	const twoPi = 2 * math.Pi
	if a >= twoPi || a < 0 {
		a = math.Mod(a, twoPi)
		if a < 0 {
			a += twoPi
		}
	}
	return a
}
