package simulation

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ThreadedPipeline runs the pipeline in a background goroutine at a fixed
// tick rate and exposes the latest finished frame to readers
type ThreadedPipeline struct {
	// Thread control
	running atomic.Bool
	wg      sync.WaitGroup
	stop    chan struct{}

	// Double buffering for thread-safe data exchange
	frames    [2]Frame
	readIdx   int
	swapMutex sync.RWMutex

	pipeline *Pipeline
	clock    TimeSource
	logger   *zap.Logger
	interval time.Duration

	// Performance tracking
	frameTime atomic.Int64
}

// NewThreadedPipeline wraps p; rate is ticks per second
func NewThreadedPipeline(p *Pipeline, clock TimeSource, rate float64, logger *zap.Logger) *ThreadedPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rate <= 0 {
		rate = 60
	}
	return &ThreadedPipeline{
		pipeline: p,
		clock:    clock,
		logger:   logger,
		interval: time.Duration(float64(time.Second) / rate),
	}
}

// Pipeline returns the wrapped pipeline for configuration and input
func (e *ThreadedPipeline) Pipeline() *Pipeline { return e.pipeline }

// Start begins the tick goroutine. A stopped pipeline may be started again.
func (e *ThreadedPipeline) Start() {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.tickLoop(e.stop)
	e.logger.Info("Started threaded pipeline", zap.Duration("interval", e.interval))
}

// Stop halts the tick goroutine and waits for it to exit
func (e *ThreadedPipeline) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	close(e.stop)
	e.wg.Wait()
}

// View calls fn with the latest finished frame. The frame must not be
// retained after fn returns.
func (e *ThreadedPipeline) View(fn func(*Frame)) {
	e.swapMutex.RLock()
	defer e.swapMutex.RUnlock()
	fn(&e.frames[e.readIdx])
}

// FrameTime returns how long the last tick took
func (e *ThreadedPipeline) FrameTime() time.Duration {
	return time.Duration(e.frameTime.Load())
}

// Step runs one tick synchronously and publishes it. It must not be called
// while the tick goroutine is running.
func (e *ThreadedPipeline) Step() {
	start := time.Now()

	// Only the tick goroutine writes, so readIdx is stable here
	e.swapMutex.RLock()
	writeIdx := 1 - e.readIdx
	e.swapMutex.RUnlock()

	e.pipeline.TickInto(&e.frames[writeIdx], e.clock.Elapsed())
	e.frameTime.Store(int64(time.Since(start)))

	e.swapMutex.Lock()
	e.readIdx = writeIdx
	e.swapMutex.Unlock()
}

func (e *ThreadedPipeline) tickLoop(stop <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Step()
		case <-stop:
			return
		}
	}
}
