package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"particlesphere/core"
	"particlesphere/simulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	BackendGL       = "gl"
	BackendRaylib   = "raylib"
	BackendTerminal = "terminal"
	BackendHeadless = "headless"

	DefaultRotationDragSpeed = 0.5
	MinRotationDragSpeed     = 0.1
	MaxRotationDragSpeed     = 2.0

	minWindowSize = 64
)

type Settings struct {
	Sphere SphereSettings `json:"sphere"`
	Window WindowSettings `json:"window"`
	Server ServerSettings `json:"server"`
	Log    LogSettings    `json:"log"`
}

// SphereSettings is the user-facing configuration surface of the particle
// sphere. Colors are hex strings and the shape is a name.
type SphereSettings struct {
	Density           int     `json:"density"`
	Radius            float32 `json:"radius"`
	BaseColor         string  `json:"baseColor"`
	HighlightColor    string  `json:"highlightColor"`
	NoiseFrequency    float32 `json:"noiseFrequency"`
	NoiseAmplitude    float32 `json:"noiseAmplitude"`
	NoiseKind         string  `json:"noiseKind"`
	NoiseSeed         int64   `json:"noiseSeed"`
	ShapeMode         string  `json:"shapeMode"`
	RotationDragSpeed float32 `json:"rotationDragSpeed"`
}

type WindowSettings struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Title    string  `json:"title"`
	Backend  string  `json:"backend"`
	TickRate float64 `json:"tickRate"`
}

type ServerSettings struct {
	Enabled         bool   `json:"enabled"`
	Address         string `json:"address"`
	StatsIntervalMs int    `json:"statsIntervalMs"`
}

type LogSettings struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Default returns the settings used when no file is present
func Default() Settings {
	return Settings{
		Sphere: SphereSettings{
			Density:           simulation.DefaultDensity,
			Radius:            simulation.DefaultRadius,
			BaseColor:         simulation.DefaultBaseColor.Hex(),
			HighlightColor:    simulation.DefaultHighlightColor.Hex(),
			NoiseFrequency:    simulation.DefaultNoiseFrequency,
			NoiseAmplitude:    simulation.DefaultNoiseAmplitude,
			NoiseKind:         core.NoiseSimplex.String(),
			ShapeMode:         core.ShapeCircle.String(),
			RotationDragSpeed: DefaultRotationDragSpeed,
		},
		Window: WindowSettings{
			Width:    1280,
			Height:   800,
			Title:    "Particle Sphere",
			Backend:  BackendGL,
			TickRate: 60,
		},
		Server: ServerSettings{
			Enabled:         true,
			Address:         ":8080",
			StatsIntervalMs: 100,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Load reads settings from path on top of the defaults. A missing file is
// not an error.
func Load(path string, logger *zap.Logger) (Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No settings file found, using defaults", zap.String("path", path))
			return settings, nil
		}
		return settings, fmt.Errorf("reading settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return Default(), fmt.Errorf("error parsing %s: %w", path, err)
	}

	logger.Info("Loaded settings",
		zap.String("path", path),
		zap.Int("density", settings.Sphere.Density),
		zap.Int("particles", (settings.Sphere.Density+1)*(settings.Sphere.Density+1)))
	return settings, nil
}

// Save writes settings as indented JSON
func Save(path string, settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Normalize clamps and defaults every field. Nothing is rejected; each
// adjustment is described in the returned notes.
func (s Settings) Normalize() (Settings, []string) {
	var notes []string

	if v := ClampDragSpeed(s.Sphere.RotationDragSpeed); v != s.Sphere.RotationDragSpeed {
		notes = append(notes, fmt.Sprintf("rotation drag speed %g clamped to %g", s.Sphere.RotationDragSpeed, v))
		s.Sphere.RotationDragSpeed = v
	}

	if s.Window.Width < minWindowSize || s.Window.Height < minWindowSize {
		notes = append(notes, fmt.Sprintf("window %dx%d raised to at least %d", s.Window.Width, s.Window.Height, minWindowSize))
		s.Window.Width = max(s.Window.Width, minWindowSize)
		s.Window.Height = max(s.Window.Height, minWindowSize)
	}
	switch strings.ToLower(s.Window.Backend) {
	case BackendGL, BackendRaylib, BackendTerminal, BackendHeadless:
		s.Window.Backend = strings.ToLower(s.Window.Backend)
	default:
		notes = append(notes, fmt.Sprintf("unknown backend %q, using %s", s.Window.Backend, BackendGL))
		s.Window.Backend = BackendGL
	}
	if s.Window.TickRate <= 0 {
		notes = append(notes, "tick rate defaulted to 60")
		s.Window.TickRate = 60
	}

	if s.Server.StatsIntervalMs <= 0 {
		notes = append(notes, "stats interval defaulted to 100ms")
		s.Server.StatsIntervalMs = 100
	}

	return s, notes
}

// Params converts the sphere settings to pipeline parameters. Colors that
// fail to parse keep their value from prev. The result is normalized.
func (s SphereSettings) Params(prev simulation.Params) (simulation.Params, []string) {
	var notes []string
	p := prev

	p.Density = s.Density
	p.Radius = s.Radius
	p.NoiseFrequency = s.NoiseFrequency
	p.NoiseAmplitude = s.NoiseAmplitude

	if c, err := core.ParseHexColor(s.BaseColor); err == nil {
		p.BaseColor = c
	} else {
		notes = append(notes, fmt.Sprintf("base color: %v, keeping %s", err, prev.BaseColor.Hex()))
	}
	if c, err := core.ParseHexColor(s.HighlightColor); err == nil {
		p.HighlightColor = c
	} else {
		notes = append(notes, fmt.Sprintf("highlight color: %v, keeping %s", err, prev.HighlightColor.Hex()))
	}

	kind, ok := core.ParseNoiseKind(s.NoiseKind)
	if !ok {
		notes = append(notes, fmt.Sprintf("unknown noise kind %q, using simplex", s.NoiseKind))
	}
	p.NoiseKind = kind
	p.NoiseSeed = s.NoiseSeed

	shape, ok := core.ParseShape(s.ShapeMode)
	if !ok {
		notes = append(notes, fmt.Sprintf("unknown shape %q, using circle", s.ShapeMode))
	}
	p.Shape = shape

	p, more := p.Normalize()
	return p, append(notes, more...)
}

// ApplyPatch overlays a partial update, keyed by the JSON field names, onto
// the sphere settings. Numeric strings are accepted.
func (s SphereSettings) ApplyPatch(patch map[string]interface{}) (SphereSettings, error) {
	out := s
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return s, fmt.Errorf("creating patch decoder: %w", err)
	}
	if err := decoder.Decode(patch); err != nil {
		return s, fmt.Errorf("decoding patch: %w", err)
	}
	return out, nil
}

// ClampDragSpeed limits the orbit drag speed to its valid range. Zero
// selects the default.
func ClampDragSpeed(v float32) float32 {
	if v == 0 {
		return DefaultRotationDragSpeed
	}
	return mgl32.Clamp(v, MinRotationDragSpeed, MaxRotationDragSpeed)
}
