package simulation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestInteractionPointerMoveAndLeave(t *testing.T) {
	s := NewInteractionState()
	assert.Equal(t, SentinelTarget, s.Target)
	assert.Equal(t, float32(0), s.Hover)
	assert.False(t, s.Active())

	s.PointerMove(mgl32.Vec3{0.1, 0.2, 1.1})
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 1.1}, s.Target)
	assert.Equal(t, float32(1), s.Hover)
	assert.True(t, s.Active())

	s.PointerLeave()
	assert.Equal(t, SentinelTarget, s.Target)
	assert.Equal(t, float32(0), s.Hover)
}

func TestAttractGatedByHover(t *testing.T) {
	// Even with a target sitting right on the point, no hover means no pull
	s := InteractionState{Target: mgl32.Vec3{1, 0, 0}, Hover: 0}
	for _, p := range []mgl32.Vec3{{1, 0, 0}, {1.1, 0, 0}, {0, 1.2, 0}} {
		final, strength, _ := s.Attract(p)
		assert.Equal(t, p, final)
		assert.Equal(t, float32(0), strength)
	}

	left := NewInteractionState()
	final, strength, dist := left.Attract(mgl32.Vec3{0, 0, 1.2})
	assert.Equal(t, mgl32.Vec3{0, 0, 1.2}, final)
	assert.Equal(t, float32(0), strength)
	assert.Greater(t, dist, float32(1000))
}

func TestAttractFalloff(t *testing.T) {
	target := mgl32.Vec3{0, 0, 1.2}
	s := InteractionState{Target: target, Hover: 1}

	_, strength, _ := s.Attract(target)
	assert.Equal(t, float32(1), strength, "full strength at the target")

	for _, d := range []float32{1.0, 1.01, 2, 50} {
		_, strength, _ := s.Attract(target.Add(mgl32.Vec3{d, 0, 0}))
		assert.Equal(t, float32(0), strength, "no pull at distance %g", d)
	}

	prev := float32(1)
	for d := float32(0); d <= 1.0; d += 0.01 {
		_, strength, _ := s.Attract(target.Add(mgl32.Vec3{0, d, 0}))
		assert.LessOrEqual(t, strength, prev, "strength rose at distance %g", d)
		prev = strength
	}
}

func TestAttractPullsThirtyPercentAtFullStrength(t *testing.T) {
	target := mgl32.Vec3{0, 0, 1}
	s := InteractionState{Target: target, Hover: 1}

	p := mgl32.Vec3{0, 0.2, 1}
	final, strength, dist := s.Attract(p)
	assert.InDelta(t, 0.2, dist, 1e-6)

	want := p.Add(target.Sub(p).Mul(strength * AttractionStrength))
	assert.True(t, final.ApproxEqualThreshold(want, 1e-6))
	// Pull is toward the raw target, not along any normal
	assert.InDelta(t, 0, final[0], 1e-7)
	assert.Less(t, final[1], p[1])
}
