package opengl

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"particlesphere/core"
	"particlesphere/rendering"
	"particlesphere/rendering/opengl/shaders"
	"particlesphere/simulation"
)

// Options configure the window
type Options struct {
	Width  int
	Height int
	Title  string
	VSync  bool
}

// ParticleRenderer draws pipeline frames as GL point sprites with additive
// blending. All methods must be called from the thread that created it.
type ParticleRenderer struct {
	window *glfw.Window
	logger *zap.Logger

	// Shader program and uniforms
	program           uint32
	modelViewLoc      int32
	projectionLoc     int32
	colorBaseLoc      int32
	colorHighlightLoc int32
	shapeLoc          int32

	// Interleaved point buffer
	vao         uint32
	vbo         uint32
	vboCapacity int
	vertices    []float32

	camera  *rendering.Camera
	pointer *rendering.PointerController

	// Framebuffer size in pixels
	width, height int
	background    core.Color
}

// NewParticleRenderer opens a window with a GL 4.1 core context
func NewParticleRenderer(opts Options, camera *rendering.Camera, input *simulation.PointerInput, logger *zap.Logger) (*ParticleRenderer, error) {
	runtime.LockOSThread()

	if logger == nil {
		logger = zap.NewNop()
	}

	// Initialize GLFW
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// Configure OpenGL context
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()

	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	program, err := shaders.CompileParticleProgram()
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}

	fbWidth, fbHeight := window.GetFramebufferSize()
	winWidth, winHeight := window.GetSize()

	r := &ParticleRenderer{
		window:     window,
		logger:     logger,
		program:    program,
		camera:     camera,
		pointer:    rendering.NewPointerController(camera, input, winWidth, winHeight),
		background: rendering.Background,
	}
	r.modelViewLoc = r.uniform("modelView")
	r.projectionLoc = r.uniform("projection")
	r.colorBaseLoc = r.uniform("colorBase")
	r.colorHighlightLoc = r.uniform("colorHighlight")
	r.shapeLoc = r.uniform("shape")

	r.createBuffers()
	r.onResize(fbWidth, fbHeight)

	// Setup callbacks
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		r.onResize(width, height)
	})
	window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		r.pointer.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		r.onKey(key, action)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		r.pointer.Scroll(float32(yoff))
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		r.onMouseButton(button, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		r.pointer.Move(float32(xpos), float32(ypos))
	})
	window.SetCursorEnterCallback(func(w *glfw.Window, entered bool) {
		if !entered {
			r.pointer.Leave()
		}
	})

	return r, nil
}

func (r *ParticleRenderer) uniform(name string) int32 {
	return gl.GetUniformLocation(r.program, gl.Str(name+"\x00"))
}

// createBuffers sets up the VAO with one interleaved VBO
func (r *ParticleRenderer) createBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(floatsPerVertex * 4)
	gl.EnableVertexAttribArray(shaders.AttribPosition)
	gl.VertexAttribPointerWithOffset(shaders.AttribPosition, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(shaders.AttribStrength)
	gl.VertexAttribPointerWithOffset(shaders.AttribStrength, 1, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(shaders.AttribNoise)
	gl.VertexAttribPointerWithOffset(shaders.AttribNoise, 1, gl.FLOAT, false, stride, 4*4)
	gl.EnableVertexAttribArray(shaders.AttribDistance)
	gl.VertexAttribPointerWithOffset(shaders.AttribDistance, 1, gl.FLOAT, false, stride, 5*4)

	gl.BindVertexArray(0)
}

// Render draws one frame. The caller swaps buffers.
func (r *ParticleRenderer) Render(f *simulation.Frame) {
	gl.ClearColor(r.background.R, r.background.G, r.background.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	n := f.Len()
	if n == 0 {
		return
	}
	r.upload(f)

	// Additive, no depth writes
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(false)

	gl.UseProgram(r.program)
	modelView := r.camera.View().Mul4(f.Model)
	projection := r.camera.Projection()
	gl.UniformMatrix4fv(r.modelViewLoc, 1, false, &modelView[0])
	gl.UniformMatrix4fv(r.projectionLoc, 1, false, &projection[0])

	app := f.Appearance
	gl.Uniform3f(r.colorBaseLoc, app.BaseColor.R, app.BaseColor.G, app.BaseColor.B)
	gl.Uniform3f(r.colorHighlightLoc, app.HighlightColor.R, app.HighlightColor.G, app.HighlightColor.B)
	gl.Uniform1i(r.shapeLoc, int32(app.Shape))

	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(n))
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)

	if err := gl.GetError(); err != gl.NO_ERROR {
		r.logger.Warn("OpenGL error after render", zap.Uint32("code", err))
	}
}

// upload streams the frame into the VBO, growing it when needed
func (r *ParticleRenderer) upload(f *simulation.Frame) {
	r.vertices = interleave(r.vertices, f)
	size := len(r.vertices) * 4

	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if size > r.vboCapacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(r.vertices), gl.STREAM_DRAW)
		r.vboCapacity = size
		r.logger.Debug("Resized point buffer", zap.Int("bytes", size))
		return
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(r.vertices))
}

func (r *ParticleRenderer) onResize(width, height int) {
	r.width, r.height = max(width, 1), max(height, 1)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	r.camera.Aspect = float32(r.width) / float32(r.height)
}

func (r *ParticleRenderer) onKey(key glfw.Key, action glfw.Action) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		r.window.SetShouldClose(true)
	}
}

func (r *ParticleRenderer) onMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		x, y := r.window.GetCursorPos()
		r.pointer.Press(float32(x), float32(y))
	case glfw.Release:
		r.pointer.Release()
	}
}

// ShouldClose returns true if the window should close
func (r *ParticleRenderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// PollEvents processes window events
func (r *ParticleRenderer) PollEvents() {
	glfw.PollEvents()
}

func (r *ParticleRenderer) SwapBuffers() {
	r.window.SwapBuffers()
}

func (r *ParticleRenderer) SetTitle(title string) {
	r.window.SetTitle(title)
}

// Terminate cleans up OpenGL resources
func (r *ParticleRenderer) Terminate() {
	gl.DeleteProgram(r.program)
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
	r.window.Destroy()
	glfw.Terminate()
}
