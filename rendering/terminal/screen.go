package terminal

import (
	"image"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"particlesphere/rendering"
	"particlesphere/simulation"
)

// upperHalf draws the top pixel in the foreground and the bottom pixel in
// the background, so each cell holds two pixel rows
const upperHalf = '▀'

const eventBuffer = 64

// Screen shows software-rasterized frames in a terminal using true color
// half blocks. Mouse drags orbit, the wheel zooms and losing focus counts as
// pointer leave.
type Screen struct {
	screen     tcell.Screen
	logger     *zap.Logger
	camera     *rendering.Camera
	pointer    *rendering.PointerController
	rasterizer *rendering.Rasterizer

	events chan tcell.Event
	quit   bool
	title  string

	cols, rows int
	buttons    tcell.ButtonMask
}

// NewScreen initializes the terminal
func NewScreen(camera *rendering.Camera, input *simulation.PointerInput, workers int, logger *zap.Logger) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return newScreen(screen, camera, input, workers, logger), nil
}

func newScreen(screen tcell.Screen, camera *rendering.Camera, input *simulation.PointerInput, workers int, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.EnableFocus()
	screen.HideCursor()

	s := &Screen{
		screen:     screen,
		logger:     logger,
		camera:     camera,
		pointer:    rendering.NewPointerController(camera, input, 1, 1),
		rasterizer: rendering.NewRasterizer(1, 1, workers),
		events:     make(chan tcell.Event, eventBuffer),
	}
	s.resize(screen.Size())

	go func() {
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				// Screen finalized
				close(s.events)
				return
			}
			s.events <- ev
		}
	}()

	logger.Info("Terminal initialized", zap.Int("cols", s.cols), zap.Int("rows", s.rows))
	return s
}

// ShouldClose reports whether Escape, q or Ctrl-C was pressed
func (s *Screen) ShouldClose() bool { return s.quit }

// PollEvents handles every pending terminal event without blocking
func (s *Screen) PollEvents() {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				s.quit = true
				return
			}
			s.handleEvent(ev)
		default:
			return
		}
	}
}

func (s *Screen) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			s.quit = true
		}

	case *tcell.EventResize:
		s.resize(s.screen.Size())
		s.screen.Sync()

	case *tcell.EventFocus:
		if !ev.Focused {
			s.pointer.Leave()
		}

	case *tcell.EventMouse:
		x, y := cellToPixel(ev.Position())
		buttons := ev.Buttons()

		if buttons&tcell.WheelUp != 0 {
			s.pointer.Scroll(1)
		}
		if buttons&tcell.WheelDown != 0 {
			s.pointer.Scroll(-1)
		}

		pressed := buttons&tcell.Button1 != 0
		wasPressed := s.buttons&tcell.Button1 != 0
		switch {
		case pressed && !wasPressed:
			s.pointer.Press(x, y)
		case !pressed && wasPressed:
			s.pointer.Release()
		}
		s.buttons = buttons &^ (tcell.WheelUp | tcell.WheelDown)

		s.pointer.Move(x, y)
	}
}

// cellToPixel maps a cell to the center of its pixel pair
func cellToPixel(col, row int) (float32, float32) {
	return float32(col) + 0.5, float32(row*2) + 1
}

func (s *Screen) resize(cols, rows int) {
	s.cols, s.rows = max(cols, 1), max(rows, 1)
	// One status line at the bottom
	imgRows := max(s.rows-1, 1)
	width, height := s.cols, imgRows*2

	s.rasterizer.Resize(width, height)
	s.pointer.Resize(width, height)
	// Terminal cells are about twice as tall as wide; two pixel rows per
	// cell make the pixels roughly square
	s.camera.Aspect = float32(width) / float32(height)
	s.logger.Debug("Terminal resized", zap.Int("cols", s.cols), zap.Int("rows", s.rows))
}

// Present rasterizes f and draws it as half blocks
func (s *Screen) Present(f *simulation.Frame) {
	img := s.rasterizer.Render(f, s.camera)
	s.draw(img)
	s.drawStatus()
	s.screen.Show()
}

func (s *Screen) draw(img *image.RGBA) {
	bounds := img.Bounds()
	for row := 0; row*2 < bounds.Dy(); row++ {
		for col := 0; col < bounds.Dx(); col++ {
			top := img.RGBAAt(col, row*2)
			bottom := img.RGBAAt(col, row*2+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.screen.SetContent(col, row, upperHalf, nil, style)
		}
	}
}

func (s *Screen) drawStatus() {
	row := s.rows - 1
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	text := []rune(s.title)
	for col := 0; col < s.cols; col++ {
		r := ' '
		if col < len(text) {
			r = text[col]
		}
		s.screen.SetContent(col, row, r, nil, style)
	}
}

// SetTitle sets the status line text
func (s *Screen) SetTitle(title string) {
	s.title = title
}

// Terminate restores the terminal
func (s *Screen) Terminate() {
	s.screen.Fini()
}
