package simulation

import (
	"github.com/go-gl/mathgl/mgl32"

	"particlesphere/core"
)

// flowSpeed is how fast time scrolls the noise field along the X axis
const flowSpeed = 0.5

// Displace pushes a base vertex along its normal by field sampled at
// basePos*freq, scrolled along X by time. It returns the displaced position
// and the sampled noise value.
func Displace(field core.NoiseField, basePos, baseNormal mgl32.Vec3, time float64, freq, amp float32) (mgl32.Vec3, float32) {
	sample := mgl32.Vec3{
		basePos[0]*freq + float32(time*flowSpeed),
		basePos[1] * freq,
		basePos[2] * freq,
	}
	noise := field.Eval3(sample)
	return basePos.Add(baseNormal.Mul(noise * amp)), noise
}
