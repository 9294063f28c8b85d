package server

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"particlesphere/config"
	"particlesphere/metrics"
	"particlesphere/simulation"
)

// Controller owns the live sphere settings and pushes every change into
// the pipeline. File reloads and WebSocket patches both go through it.
type Controller struct {
	logger   *zap.Logger
	pipeline *simulation.Pipeline
	recorder *metrics.Recorder

	// Serializes Apply and Patch so that settings and pipeline params change
	// together and patches never overlay a stale snapshot
	applyMu sync.Mutex
	// Serializes listener calls; held without applyMu
	notifyMu sync.Mutex

	mu        sync.RWMutex
	settings  config.SphereSettings
	listeners []func(config.SphereSettings)
}

// NewController applies settings to p immediately. recorder may be nil.
func NewController(settings config.SphereSettings, p *simulation.Pipeline, recorder *metrics.Recorder, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		logger:   logger,
		pipeline: p,
		recorder: recorder,
	}
	c.Apply("init", settings)
	return c
}

// Pipeline returns the driven pipeline
func (c *Controller) Pipeline() *simulation.Pipeline { return c.pipeline }

// Settings returns the current normalized settings
func (c *Controller) Settings() config.SphereSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// OnChange registers fn to run after every applied change
func (c *Controller) OnChange(fn func(config.SphereSettings)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Apply replaces the settings. Invalid values are clamped or defaulted and
// the stored settings reflect what the pipeline actually runs with.
func (c *Controller) Apply(source string, s config.SphereSettings) config.SphereSettings {
	c.applyMu.Lock()
	normalized := c.apply(source, s)
	c.applyMu.Unlock()

	c.notify()
	return normalized
}

// Patch overlays a partial update keyed by JSON field names
func (c *Controller) Patch(source string, patch map[string]interface{}) (config.SphereSettings, error) {
	c.applyMu.Lock()
	next, err := c.Settings().ApplyPatch(patch)
	if err != nil {
		c.applyMu.Unlock()
		return c.Settings(), fmt.Errorf("invalid patch: %w", err)
	}
	normalized := c.apply(source, next)
	c.applyMu.Unlock()

	c.notify()
	return normalized, nil
}

// apply must be called with applyMu held
func (c *Controller) apply(source string, s config.SphereSettings) config.SphereSettings {
	params, notes := s.Params(c.pipeline.Params())
	for _, n := range notes {
		c.logger.Warn("Adjusted sphere setting", zap.String("source", source), zap.String("detail", n))
	}

	normalized := config.SphereSettings{
		Density:           params.Density,
		Radius:            params.Radius,
		BaseColor:         params.BaseColor.Hex(),
		HighlightColor:    params.HighlightColor.Hex(),
		NoiseFrequency:    params.NoiseFrequency,
		NoiseAmplitude:    params.NoiseAmplitude,
		NoiseKind:         params.NoiseKind.String(),
		NoiseSeed:         params.NoiseSeed,
		ShapeMode:         params.Shape.String(),
		RotationDragSpeed: config.ClampDragSpeed(s.RotationDragSpeed),
	}
	if normalized.RotationDragSpeed != s.RotationDragSpeed {
		c.logger.Warn("Adjusted sphere setting",
			zap.String("source", source),
			zap.Float32("rotationDragSpeed", normalized.RotationDragSpeed))
	}

	c.pipeline.Configure(params)

	c.mu.Lock()
	c.settings = normalized
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.ObserveConfigUpdate(source)
	}
	c.logger.Debug("Applied sphere settings",
		zap.String("source", source),
		zap.Int("density", normalized.Density),
		zap.String("shape", normalized.ShapeMode))
	return normalized
}

// notify hands the latest stored settings to every listener. It must not
// be called with applyMu held.
func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.RLock()
	current := c.settings
	listeners := append([]func(config.SphereSettings){}, c.listeners...)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(current)
	}
}
