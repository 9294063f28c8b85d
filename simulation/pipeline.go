package simulation

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"particlesphere/core"
)

const defaultChunkSize = 4096

// Observer receives per-tick telemetry. The metrics package implements it.
type Observer interface {
	ObserveTick(d time.Duration, particles int, hover float32)
	ObservePointer(kind PointerKind)
	ObserveRebuild(density int)
}

type nopObserver struct{}

func (nopObserver) ObserveTick(time.Duration, int, float32) {}
func (nopObserver) ObservePointer(PointerKind)              {}
func (nopObserver) ObserveRebuild(int)                      {}

// Options tune the per-vertex pass
type Options struct {
	// Workers bounds the goroutines used by the per-vertex pass. Zero means
	// GOMAXPROCS.
	Workers int
	// ChunkSize is the number of vertices handed to one goroutine
	ChunkSize int
	Logger    *zap.Logger
	Observer  Observer
}

// Pipeline runs the per-frame particle transformation: rotate, sync the hit
// proxy, resolve the pointer, then displace and attract every vertex.
//
// Tick must be called from a single goroutine. Configure and Input().Send
// are safe from any goroutine and take effect on the next tick.
type Pipeline struct {
	logger    *zap.Logger
	observer  Observer
	workers   int
	chunkSize int
	input     *PointerInput

	mu      sync.Mutex
	pending *Params
	params  Params

	// Owned by the tick goroutine
	particles   *core.ParticleSet
	proxy       *HitProxy
	interaction InteractionState
	appearance  AppearanceState
	field       core.NoiseField
	orientation Orientation
	ticks       uint64
	frames      [2]Frame
	current     int
}

// NewPipeline builds the particle set and hit proxy for params
func NewPipeline(params Params, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}

	params, notes := params.Normalize()
	for _, n := range notes {
		opts.Logger.Warn("Adjusted pipeline parameter", zap.String("detail", n))
	}

	p := &Pipeline{
		logger:      opts.Logger,
		observer:    opts.Observer,
		workers:     opts.Workers,
		chunkSize:   opts.ChunkSize,
		input:       NewPointerInput(),
		params:      params,
		particles:   core.NewParticleSet(params.Radius, params.Density),
		proxy:       NewHitProxy(params.Radius),
		interaction: NewInteractionState(),
		appearance:  params.AppearanceState,
		field:       core.NewNoiseField(params.NoiseKind, params.NoiseSeed),
	}
	p.observer.ObserveRebuild(params.Density)
	return p
}

// Input is the pointer event mailbox consumed at the start of each tick
func (p *Pipeline) Input() *PointerInput { return p.input }

// Configure schedules new parameters for the next tick
func (p *Pipeline) Configure(params Params) {
	params, notes := params.Normalize()
	for _, n := range notes {
		p.logger.Warn("Adjusted pipeline parameter", zap.String("detail", n))
	}

	p.mu.Lock()
	p.params = params
	p.pending = &params
	p.mu.Unlock()
}

// Params returns the most recently configured parameters
func (p *Pipeline) Params() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// The accessors below read tick-owned state and are meant for the tick
// goroutine and tests.

func (p *Pipeline) Particles() *core.ParticleSet { return p.particles }
func (p *Pipeline) Proxy() *HitProxy { return p.proxy }
func (p *Pipeline) Orientation() Orientation { return p.orientation }
func (p *Pipeline) Interaction() InteractionState { return p.interaction }
func (p *Pipeline) Appearance() AppearanceState { return p.appearance }

// Tick runs one frame at the given elapsed time in seconds. The returned
// frame stays valid until the tick after next.
func (p *Pipeline) Tick(elapsed float64) *Frame {
	p.current = 1 - p.current
	dst := &p.frames[p.current]
	p.TickInto(dst, elapsed)
	return dst
}

// TickInto runs one frame writing the per-vertex outputs into dst
func (p *Pipeline) TickInto(dst *Frame, elapsed float64) {
	start := time.Now()

	// Latest pointer event wins for this tick
	ev, hasEvent := p.input.Latest()

	p.applyPending()

	p.orientation.Tick()
	p.proxy.SyncOrientation(p.orientation)

	if hasEvent {
		p.applyPointer(ev)
	}

	p.ticks++
	dst.Tick = p.ticks
	dst.Time = elapsed
	dst.Density = p.particles.Density()
	dst.Radius = p.particles.Radius()
	dst.Orientation = p.orientation
	dst.Model = p.orientation.Matrix()
	dst.Interaction = p.interaction
	dst.Appearance = p.appearance
	dst.resize(p.particles.Len())

	p.computeVertices(dst, elapsed)

	p.observer.ObserveTick(time.Since(start), dst.Len(), p.interaction.Hover)
}

func (p *Pipeline) applyPending() {
	p.mu.Lock()
	next := p.pending
	p.pending = nil
	p.mu.Unlock()

	if next == nil {
		return
	}

	if next.NoiseKind != p.appearance.NoiseKind || next.NoiseSeed != p.appearance.NoiseSeed {
		p.field = core.NewNoiseField(next.NoiseKind, next.NoiseSeed)
		p.logger.Info("Switched noise field",
			zap.Stringer("kind", next.NoiseKind),
			zap.Int64("seed", next.NoiseSeed))
	}
	p.appearance = next.AppearanceState

	if next.Radius != p.particles.Radius() {
		p.proxy = NewHitProxy(next.Radius)
	}
	if next.Density != p.particles.Density() || next.Radius != p.particles.Radius() {
		p.particles = core.NewParticleSet(next.Radius, next.Density)
		p.observer.ObserveRebuild(next.Density)
		p.logger.Info("Rebuilt particle set",
			zap.Int("density", next.Density),
			zap.Float32("radius", next.Radius),
			zap.Int("particles", p.particles.Len()))
	}
}

func (p *Pipeline) applyPointer(ev PointerEvent) {
	p.observer.ObservePointer(ev.Kind)

	switch ev.Kind {
	case PointerRay:
		if local, hit := p.proxy.Intersect(ev.Ray); hit {
			p.interaction.PointerMove(local)
		} else {
			p.interaction.PointerLeave()
		}
	case PointerWorld:
		p.interaction.PointerMove(p.proxy.WorldToLocal(ev.Point))
	case PointerLeave:
		p.interaction.PointerLeave()
	}
}

func (p *Pipeline) computeVertices(dst *Frame, elapsed float64) {
	n := p.particles.Len()
	if p.workers <= 1 || n <= p.chunkSize {
		p.computeRange(dst, elapsed, 0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for lo := 0; lo < n; lo += p.chunkSize {
		hi := min(lo+p.chunkSize, n)
		g.Go(func() error {
			p.computeRange(dst, elapsed, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) computeRange(dst *Frame, elapsed float64, lo, hi int) {
	freq := p.appearance.NoiseFrequency
	amp := p.appearance.NoiseAmplitude
	field := p.field
	interaction := p.interaction

	for i := lo; i < hi; i++ {
		displaced, noise := Displace(field, p.particles.Position(i), p.particles.Normal(i), elapsed, freq, amp)
		final, strength, dist := interaction.Attract(displaced)

		dst.Positions[i] = final
		dst.Strength[i] = strength
		dst.Noise[i] = noise
		dst.Distance[i] = dist
	}
}
