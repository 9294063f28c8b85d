package simulation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"particlesphere/core"
)

func TestDisplaceZeroAmplitudeIsIdentity(t *testing.T) {
	ps := core.NewParticleSet(1.2, 24)
	for _, tm := range []float64{0, 0.5, 13.7, 1e4} {
		for _, freq := range []float32{0.1, 1.5, 5} {
			for i := 0; i < ps.Len(); i++ {
				got, _ := Displace(core.SimplexField{}, ps.Position(i), ps.Normal(i), tm, freq, 0)
				assert.Equal(t, ps.Position(i), got)
			}
		}
	}
}

func TestDisplaceMovesAlongNormal(t *testing.T) {
	base := mgl32.Vec3{0, 1.2, 0}
	normal := mgl32.Vec3{0, 1, 0}

	got, noise := Displace(core.SimplexField{}, base, normal, 2.0, 1.5, 0.15)
	offset := got.Sub(base)
	assert.InDelta(t, 0, offset[0], 1e-7)
	assert.InDelta(t, 0, offset[2], 1e-7)
	assert.InDelta(t, noise*0.15, offset[1], 1e-6)
}

func TestDisplaceTimeScrollsAlongX(t *testing.T) {
	base := mgl32.Vec3{0.3, 0.4, 0.5}
	normal := base.Normalize()

	// Advancing time by 2s shifts the sample by one unit along X
	_, later := Displace(core.SimplexField{}, base, normal, 2.0, 1, 0.1)
	_, shifted := Displace(core.SimplexField{}, base.Add(mgl32.Vec3{1, 0, 0}), normal, 0, 1, 0.1)
	assert.InDelta(t, shifted, later, 1e-6)
}
