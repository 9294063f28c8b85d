package main

import (
	"fmt"

	"go.uber.org/zap"

	"particlesphere/config"
	"particlesphere/rendering"
	"particlesphere/rendering/opengl"
	"particlesphere/rendering/raylib"
	"particlesphere/rendering/terminal"
	"particlesphere/simulation"
)

// display is a window that shows pipeline frames
type display interface {
	ShouldClose() bool
	PollEvents()
	Present(f *simulation.Frame)
	SetTitle(title string)
	Terminate()
}

func openDisplay(ws config.WindowSettings, camera *rendering.Camera, input *simulation.PointerInput, zlog *zap.Logger) (display, error) {
	switch ws.Backend {
	case config.BackendGL:
		r, err := opengl.NewParticleRenderer(opengl.Options{
			Width:  ws.Width,
			Height: ws.Height,
			Title:  ws.Title,
			VSync:  true,
		}, camera, input, zlog.Named("gl"))
		if err != nil {
			return nil, err
		}
		return glDisplay{r}, nil
	case config.BackendRaylib:
		return raylibDisplay{raylib.NewWindow(raylib.Options{
			Width:     ws.Width,
			Height:    ws.Height,
			Title:     ws.Title,
			TargetFPS: int(ws.TickRate),
			ShowFPS:   true,
		}, camera, input, zlog)}, nil
	case config.BackendTerminal:
		s, err := terminal.NewScreen(camera, input, 0, zlog.Named("terminal"))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown backend %q", ws.Backend)
}

type glDisplay struct {
	*opengl.ParticleRenderer
}

func (d glDisplay) Present(f *simulation.Frame) {
	d.Render(f)
	d.SwapBuffers()
}

type raylibDisplay struct {
	*raylib.Window
}

func (d raylibDisplay) Present(f *simulation.Frame) {
	d.Render(f)
}
