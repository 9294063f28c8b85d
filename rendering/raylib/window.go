package raylib

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"particlesphere/logger"
	"particlesphere/rendering"
	"particlesphere/simulation"
)

// Options configure the window
type Options struct {
	Width     int
	Height    int
	Title     string
	TargetFPS int
	Workers   int
	ShowFPS   bool
}

// Window presents software-rasterized frames through a raylib texture
type Window struct {
	logger     *zap.Logger
	camera     *rendering.Camera
	pointer    *rendering.PointerController
	rasterizer *rendering.Rasterizer

	texture rl.Texture2D
	pixels  []color.RGBA
	showFPS bool

	lastMouse rl.Vector2
	onScreen  bool
}

// NewWindow opens the window. It must be called from the main thread.
func NewWindow(opts Options, camera *rendering.Camera, input *simulation.PointerInput, log *zap.Logger) *Window {
	if log == nil {
		log = zap.NewNop()
	}

	rl.SetTraceLogCallback(logger.RaylibSink(log))
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagVsyncHint)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}

	width, height := int(rl.GetScreenWidth()), int(rl.GetScreenHeight())
	camera.Aspect = float32(width) / float32(max(height, 1))

	w := &Window{
		logger:     log.Named("raylib"),
		camera:     camera,
		pointer:    rendering.NewPointerController(camera, input, width, height),
		rasterizer: rendering.NewRasterizer(width, height, opts.Workers),
		showFPS:    opts.ShowFPS,
		lastMouse:  rl.GetMousePosition(),
	}
	w.createTexture(width, height)

	w.logger.Info("Window created", zap.Int("width", width), zap.Int("height", height))
	return w
}

func (w *Window) createTexture(width, height int) {
	img := rl.GenImageColor(width, height, rl.Black)
	w.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	w.pixels = make([]color.RGBA, width*height)
}

// ShouldClose reports a close request or Escape
func (w *Window) ShouldClose() bool {
	return rl.WindowShouldClose()
}

// PollEvents handles resizing and feeds mouse input to the pointer handler
func (w *Window) PollEvents() {
	if rl.IsWindowResized() {
		w.resize(int(rl.GetScreenWidth()), int(rl.GetScreenHeight()))
	}

	mouse := rl.GetMousePosition()
	onScreen := rl.IsCursorOnScreen()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		w.pointer.Press(mouse.X, mouse.Y)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		w.pointer.Release()
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.pointer.Scroll(wheel)
	}

	switch {
	case !onScreen && w.onScreen:
		w.pointer.Leave()
	case onScreen && mouse != w.lastMouse:
		w.pointer.Move(mouse.X, mouse.Y)
	}
	w.onScreen = onScreen
	w.lastMouse = mouse
}

func (w *Window) resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	rl.UnloadTexture(w.texture)
	w.createTexture(width, height)
	w.rasterizer.Resize(width, height)
	w.pointer.Resize(width, height)
	w.camera.Aspect = float32(width) / float32(height)
	w.logger.Debug("Window resized", zap.Int("width", width), zap.Int("height", height))
}

// Render rasterizes f and draws it
func (w *Window) Render(f *simulation.Frame) {
	img := w.rasterizer.Render(f, w.camera)
	copyPixels(w.pixels, img)
	rl.UpdateTexture(w.texture, w.pixels)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.DrawTexture(w.texture, 0, 0, rl.White)
	if w.showFPS {
		rl.DrawFPS(10, 10)
	}
	rl.EndDrawing()
}

func (w *Window) SetTitle(title string) {
	rl.SetWindowTitle(title)
}

// Terminate releases the texture and closes the window
func (w *Window) Terminate() {
	rl.UnloadTexture(w.texture)
	rl.CloseWindow()
}

// copyPixels converts an RGBA image into raylib's pixel layout
func copyPixels(dst []color.RGBA, img *image.RGBA) {
	pix := img.Pix
	for i := range dst {
		o := i * 4
		if o+3 >= len(pix) {
			return
		}
		dst[i] = color.RGBA{R: pix[o], G: pix[o+1], B: pix[o+2], A: pix[o+3]}
	}
}
