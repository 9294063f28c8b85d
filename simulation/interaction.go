package simulation

import (
	"github.com/go-gl/mathgl/mgl32"

	"particlesphere/core"
)

const (
	// AttractionRadius is the distance in local units beyond which the
	// pointer has no pull
	AttractionRadius float32 = 1.0
	// AttractionStrength is the fraction of the gap closed at full strength
	AttractionStrength float32 = 0.3
	hoverThreshold     float32 = 0.5
)

// SentinelTarget parks the pointer target far outside the attraction radius
var SentinelTarget = mgl32.Vec3{999, 999, 999}

// InteractionState is the pointer target in object-local space and the
// hover flag. A single instance is owned by the pipeline.
type InteractionState struct {
	Target mgl32.Vec3
	Hover  float32
}

// NewInteractionState starts in the pointer-leave state
func NewInteractionState() InteractionState {
	return InteractionState{Target: SentinelTarget}
}

// PointerMove places the target at a local-space point and activates hover
func (s *InteractionState) PointerMove(local mgl32.Vec3) {
	s.Target = local
	s.Hover = 1
}

// PointerLeave parks the target at the sentinel and clears hover
func (s *InteractionState) PointerLeave() {
	s.Target = SentinelTarget
	s.Hover = 0
}

// Active reports whether attraction can contribute this frame
func (s InteractionState) Active() bool {
	return s.Hover > hoverThreshold
}

// Attract pulls a displaced position toward the target. It returns the final
// position, the attraction strength in [0, 1] and the distance from the
// displaced position to the target.
func (s InteractionState) Attract(displaced mgl32.Vec3) (mgl32.Vec3, float32, float32) {
	dist := displaced.Sub(s.Target).Len()
	if dist >= AttractionRadius || !s.Active() {
		return displaced, 0, dist
	}

	strength := core.Smoothstep(AttractionRadius, 0, dist)
	t := strength * AttractionStrength
	final := displaced.Add(s.Target.Sub(displaced).Mul(t))
	return final, strength, dist
}
