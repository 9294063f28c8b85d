package simulation

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particlesphere/core"
)

type recordingObserver struct {
	ticks    int
	pointers []PointerKind
	rebuilds []int
}

func (o *recordingObserver) ObserveTick(time.Duration, int, float32) { o.ticks++ }
func (o *recordingObserver) ObservePointer(k PointerKind)            { o.pointers = append(o.pointers, k) }
func (o *recordingObserver) ObserveRebuild(d int)                    { o.rebuilds = append(o.rebuilds, d) }

func quietParams(density int) Params {
	p := DefaultParams()
	p.Density = density
	p.NoiseAmplitude = 0
	return p
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, 0, want.Sub(got).Len(), delta, msgAndArgs...)
}

func TestPipelineUndisturbedSphere(t *testing.T) {
	p := NewPipeline(quietParams(128), Options{})
	f := p.Tick(3.5)

	require.Equal(t, 129*129, f.Len())
	assert.Equal(t, uint64(1), f.Tick)
	assert.False(t, f.Interaction.Active())

	var noisy bool
	for i := 0; i < f.Len(); i++ {
		require.Equal(t, p.Particles().Position(i), f.Positions[i], "vertex %d moved", i)
		require.InDelta(t, DefaultRadius, f.Positions[i].Len(), 1e-5)
		require.Equal(t, float32(0), f.Strength[i])
		if f.Noise[i] != 0 {
			noisy = true
		}
	}
	assert.True(t, noisy, "noise is sampled even with zero amplitude")
}

func TestPipelinePointerAtVertex(t *testing.T) {
	p := NewPipeline(quietParams(16), Options{Workers: 1})
	p.Tick(0)

	// Equator vertex, row 8 of 16
	k := 8*17 + 4
	l := k + 1
	base := p.Particles().Position(k)

	// The pointer is resolved against the orientation after the next tick
	next := p.Orientation()
	next.Tick()
	p.Input().MoveWorld(mgl32.TransformCoordinate(base, next.Matrix()))

	f := p.Tick(1.0 / 60)
	require.True(t, f.Interaction.Active())
	assertVecNear(t, base, f.Interaction.Target, 1e-5)

	assert.InDelta(t, 1, f.Strength[k], 1e-4)
	assertVecNear(t, base, f.Positions[k], 1e-5)

	// The neighbour closes 30% of the gap scaled by its falloff
	neighbour := p.Particles().Position(l)
	strength := f.Strength[l]
	require.Greater(t, strength, float32(0))
	require.Less(t, strength, float32(1))
	assert.InDelta(t, core.Smoothstep(AttractionRadius, 0, f.Distance[l]), strength, 1e-6)

	want := neighbour.Add(f.Interaction.Target.Sub(neighbour).Mul(strength * AttractionStrength))
	assertVecNear(t, want, f.Positions[l], 1e-6)

	// Anything at or beyond the attraction radius is left alone
	for i := 0; i < f.Len(); i++ {
		if f.Distance[i] >= AttractionRadius {
			require.Equal(t, float32(0), f.Strength[i])
			require.Equal(t, p.Particles().Position(i), f.Positions[i])
		}
	}
}

func TestPipelinePointerRay(t *testing.T) {
	p := NewPipeline(quietParams(32), Options{})

	p.Input().MoveRay(Ray{Origin: mgl32.Vec3{0.05, 0.1, 2.8}, Direction: mgl32.Vec3{0, 0, -1}})
	f := p.Tick(0)
	require.True(t, f.Interaction.Active())
	assert.InDelta(t, DefaultRadius, f.Interaction.Target.Len(), 0.01)

	// Pointer state persists across ticks without new events
	f = p.Tick(0.1)
	assert.True(t, f.Interaction.Active())

	// A miss counts as leaving the sphere
	p.Input().MoveRay(Ray{Origin: mgl32.Vec3{5, 5, 2.8}, Direction: mgl32.Vec3{0, 0, -1}})
	f = p.Tick(0.2)
	assert.False(t, f.Interaction.Active())
	assert.Equal(t, SentinelTarget, f.Interaction.Target)
	for i := 0; i < f.Len(); i++ {
		require.Equal(t, float32(0), f.Strength[i])
	}
}

func TestPipelineLeaveResetsAttraction(t *testing.T) {
	p := NewPipeline(quietParams(16), Options{})
	p.Input().MoveWorld(mgl32.Vec3{0, 0, DefaultRadius})
	require.True(t, p.Tick(0).Interaction.Active())

	p.Input().Leave()
	f := p.Tick(0)
	assert.Equal(t, NewInteractionState(), f.Interaction)
}

func TestPipelineConfigureRebuilds(t *testing.T) {
	obs := &recordingObserver{}
	p := NewPipeline(quietParams(16), Options{Observer: obs})
	require.Equal(t, []int{16}, obs.rebuilds)

	params := p.Params()
	params.Density = 32
	p.Configure(params)

	// Nothing changes until the next tick
	assert.Equal(t, 16, p.Particles().Density())

	f := p.Tick(0)
	assert.Equal(t, 32, f.Density)
	assert.Equal(t, 33*33, f.Len())
	assert.Equal(t, []int{16, 32}, obs.rebuilds)

	// Appearance-only changes keep the particle set
	set := p.Particles()
	params.HighlightColor = core.MustParseHexColor("#ff0000")
	params.Shape = core.ShapeRing
	p.Configure(params)
	f = p.Tick(0)
	assert.Same(t, set, p.Particles())
	assert.Equal(t, core.ShapeRing, f.Appearance.Shape)
	assert.Equal(t, []int{16, 32}, obs.rebuilds)

	// Invalid density is clamped, not rejected
	params.Density = -1
	p.Configure(params)
	f = p.Tick(0)
	assert.Equal(t, core.MinDensity, f.Density)
	assert.Equal(t, 16, f.Len())
}

func TestPipelineRadiusChangeRebuildsProxy(t *testing.T) {
	p := NewPipeline(quietParams(16), Options{})
	params := p.Params()
	params.Radius = 2
	p.Configure(params)
	p.Tick(0)

	assert.Equal(t, float32(2), p.Proxy().Radius())
	assert.Equal(t, float32(2), p.Particles().Radius())
	assert.Equal(t, p.Orientation(), p.Proxy().Orientation())
}

func TestPipelineNoiseFieldSwitch(t *testing.T) {
	params := DefaultParams()
	params.Density = 12
	p := NewPipeline(params, Options{})
	simplex := append([]float32(nil), p.Tick(0.25).Noise...)

	params.NoiseKind = core.NoiseOpenSimplex
	params.NoiseSeed = 3
	p.Configure(params)
	open := append([]float32(nil), p.Tick(0.25).Noise...)
	assert.NotEqual(t, simplex, open)

	// Same kind and seed reproduce the field
	q := NewPipeline(params, Options{})
	assert.Equal(t, open, q.Tick(0.25).Noise)

	field := core.NewOpenSimplexField(3)
	base := q.Particles().Position(5)
	want := field.Eval3(mgl32.Vec3{base[0]*params.NoiseFrequency + 0.25*flowSpeed, base[1] * params.NoiseFrequency, base[2] * params.NoiseFrequency})
	assert.InDelta(t, want, open[5], 1e-6)
}

func TestPipelineParallelMatchesSerial(t *testing.T) {
	params := DefaultParams()
	params.Density = 64

	serial := NewPipeline(params, Options{Workers: 1})
	parallel := NewPipeline(params, Options{Workers: 4, ChunkSize: 97})

	for _, p := range []*Pipeline{serial, parallel} {
		p.Input().MoveWorld(mgl32.Vec3{0.3, 0.4, 1.0})
	}

	for tick := 0; tick < 3; tick++ {
		elapsed := float64(tick) * 0.25
		a := serial.Tick(elapsed)
		b := parallel.Tick(elapsed)
		require.Equal(t, a.Positions, b.Positions)
		require.Equal(t, a.Strength, b.Strength)
		require.Equal(t, a.Noise, b.Noise)
	}
}

func TestPipelineDoubleBuffersFrames(t *testing.T) {
	p := NewPipeline(quietParams(8), Options{})
	f1 := p.Tick(0)
	f2 := p.Tick(0)
	f3 := p.Tick(0)

	assert.NotSame(t, f1, f2)
	assert.Same(t, f1, f3)
	assert.Equal(t, uint64(2), f2.Tick)
}

func TestPipelineObserver(t *testing.T) {
	obs := &recordingObserver{}
	p := NewPipeline(quietParams(8), Options{Observer: obs})

	p.Input().MoveWorld(mgl32.Vec3{0, 0, 1})
	p.Tick(0)
	p.Tick(0)
	p.Input().Leave()
	p.Tick(0)

	assert.Equal(t, 3, obs.ticks)
	assert.Equal(t, []PointerKind{PointerWorld, PointerLeave}, obs.pointers)
}

func BenchmarkPipelineTick(b *testing.B) {
	p := NewPipeline(DefaultParams(), Options{})
	p.Input().MoveWorld(mgl32.Vec3{0, 0, DefaultRadius})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Tick(float64(i) / 60)
	}
}
