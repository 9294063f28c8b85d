package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particlesphere/core"
	"particlesphere/simulation"
)

func TestDefaultMatchesPipelineDefaults(t *testing.T) {
	s := Default()
	params, notes := s.Sphere.Params(simulation.DefaultParams())
	assert.Empty(t, notes)
	assert.Equal(t, simulation.DefaultParams(), params)

	normalized, notes := s.Normalize()
	assert.Empty(t, notes)
	assert.Equal(t, s, normalized)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"sphere": {"density": 64, "shapeMode": "ring", "highlightColor": "#ff8800"},
		"window": {"backend": "raylib"}
	}`), 0o644))

	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 64, s.Sphere.Density)
	assert.Equal(t, "ring", s.Sphere.ShapeMode)
	assert.Equal(t, "#ff8800", s.Sphere.HighlightColor)
	assert.Equal(t, BackendRaylib, s.Window.Backend)

	// Untouched fields keep their defaults
	assert.Equal(t, Default().Sphere.BaseColor, s.Sphere.BaseColor)
	assert.Equal(t, Default().Window.Width, s.Window.Width)
	assert.Equal(t, Default().Server, s.Server)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sphere": {"density": `), 0o644))

	s, err := Load(path, nil)
	assert.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	want := Default()
	want.Sphere.Density = 200
	want.Sphere.ShapeMode = "diamond"

	require.NoError(t, Save(path, want))
	got, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNormalize(t *testing.T) {
	s := Default()
	s.Sphere.RotationDragSpeed = 9
	s.Window.Width = 10
	s.Window.Backend = "vulkan"
	s.Window.TickRate = -1
	s.Server.StatsIntervalMs = 0

	got, notes := s.Normalize()
	assert.Equal(t, float32(MaxRotationDragSpeed), got.Sphere.RotationDragSpeed)
	assert.Equal(t, minWindowSize, got.Window.Width)
	assert.Equal(t, Default().Window.Height, got.Window.Height)
	assert.Equal(t, BackendGL, got.Window.Backend)
	assert.Equal(t, 60.0, got.Window.TickRate)
	assert.Equal(t, 100, got.Server.StatsIntervalMs)
	assert.Len(t, notes, 5)

	s.Sphere.RotationDragSpeed = 0
	got, _ = s.Normalize()
	assert.Equal(t, float32(DefaultRotationDragSpeed), got.Sphere.RotationDragSpeed)

	s.Window.Backend = "Headless"
	got, _ = s.Normalize()
	assert.Equal(t, BackendHeadless, got.Window.Backend)

	s.Window.Backend = "terminal"
	got, _ = s.Normalize()
	assert.Equal(t, BackendTerminal, got.Window.Backend)
}

func TestSphereParams(t *testing.T) {
	prev := simulation.DefaultParams()
	prev.BaseColor = core.MustParseHexColor("#112233")

	tests := []struct {
		name   string
		mutate func(*SphereSettings)
		check  func(*testing.T, simulation.Params)
		notes  int
	}{
		{
			name:   "valid colors",
			mutate: func(s *SphereSettings) { s.BaseColor = "#ff0000" },
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, core.Color{R: 1}, p.BaseColor)
			},
		},
		{
			name:   "malformed color keeps previous",
			mutate: func(s *SphereSettings) { s.BaseColor = "purple-ish" },
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, prev.BaseColor, p.BaseColor)
			},
			notes: 1,
		},
		{
			name:   "unknown shape falls back to circle",
			mutate: func(s *SphereSettings) { s.ShapeMode = "hexagon" },
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, core.ShapeCircle, p.Shape)
			},
			notes: 1,
		},
		{
			name:   "shape names are case insensitive",
			mutate: func(s *SphereSettings) { s.ShapeMode = "Square" },
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, core.ShapeSquare, p.Shape)
			},
		},
		{
			name: "opensimplex noise with seed",
			mutate: func(s *SphereSettings) {
				s.NoiseKind = "opensimplex"
				s.NoiseSeed = 99
			},
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, core.NoiseOpenSimplex, p.NoiseKind)
				assert.Equal(t, int64(99), p.NoiseSeed)
			},
		},
		{
			name:   "unknown noise kind falls back to simplex",
			mutate: func(s *SphereSettings) { s.NoiseKind = "worley" },
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, core.NoiseSimplex, p.NoiseKind)
			},
			notes: 1,
		},
		{
			name: "out of range numbers are clamped",
			mutate: func(s *SphereSettings) {
				s.Density = 1
				s.NoiseAmplitude = -3
			},
			check: func(t *testing.T, p simulation.Params) {
				assert.Equal(t, core.MinDensity, p.Density)
				assert.Equal(t, float32(0), p.NoiseAmplitude)
			},
			notes: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default().Sphere
			tc.mutate(&s)
			p, notes := s.Params(prev)
			tc.check(t, p)
			assert.Len(t, notes, tc.notes)
		})
	}
}

func TestApplyPatch(t *testing.T) {
	base := Default().Sphere

	got, err := base.ApplyPatch(map[string]interface{}{
		"type":           "config",
		"density":        float64(96),
		"noiseAmplitude": 0.4,
		"shapeMode":      "diamond",
		"baseColor":      "#000000",
	})
	require.NoError(t, err)
	assert.Equal(t, 96, got.Density)
	assert.InDelta(t, 0.4, got.NoiseAmplitude, 1e-6)
	assert.Equal(t, "diamond", got.ShapeMode)
	assert.Equal(t, "#000000", got.BaseColor)
	assert.Equal(t, base.HighlightColor, got.HighlightColor)
	assert.Equal(t, base.NoiseFrequency, got.NoiseFrequency)

	got, err = base.ApplyPatch(map[string]interface{}{"density": "48"})
	require.NoError(t, err)
	assert.Equal(t, 48, got.Density)

	got, err = base.ApplyPatch(map[string]interface{}{"density": map[string]interface{}{"nested": 1}})
	assert.Error(t, err)
	assert.Equal(t, base, got)
}
