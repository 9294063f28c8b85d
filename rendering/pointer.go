package rendering

import "particlesphere/simulation"

// PointerController turns window cursor events into camera orbit and zoom
// and into pointer rays for the pipeline. Window backends feed it from
// their input callbacks; it is not safe for concurrent use.
type PointerController struct {
	camera *Camera
	input  *simulation.PointerInput

	width, height int
	dragging      bool
	inside        bool
	lastX, lastY  float32
}

// NewPointerController binds cam and input for a window of the given size
// in cursor coordinates
func NewPointerController(cam *Camera, input *simulation.PointerInput, width, height int) *PointerController {
	pc := &PointerController{camera: cam, input: input}
	pc.Resize(width, height)
	return pc
}

// Resize updates the window size in cursor coordinates
func (pc *PointerController) Resize(width, height int) {
	pc.width, pc.height = max(width, 1), max(height, 1)
}

// Move handles a cursor move to (x, y). While dragging the camera orbits by
// the delta; in all cases a fresh ray is posted.
func (pc *PointerController) Move(x, y float32) {
	if pc.dragging {
		pc.camera.Orbit(x-pc.lastX, y-pc.lastY, float32(pc.height))
	}
	pc.lastX, pc.lastY = x, y
	pc.inside = true
	pc.input.MoveRay(pc.camera.ScreenRay(x, y, pc.width, pc.height))
}

// Press starts an orbit drag at (x, y)
func (pc *PointerController) Press(x, y float32) {
	pc.dragging = true
	pc.lastX, pc.lastY = x, y
}

// Release ends an orbit drag
func (pc *PointerController) Release() {
	pc.dragging = false
}

// Scroll zooms by wheel steps and re-posts the ray under the cursor
func (pc *PointerController) Scroll(steps float32) {
	pc.camera.Zoom(steps)
	if pc.inside {
		pc.input.MoveRay(pc.camera.ScreenRay(pc.lastX, pc.lastY, pc.width, pc.height))
	}
}

// Leave handles the cursor leaving the window
func (pc *PointerController) Leave() {
	pc.dragging = false
	pc.inside = false
	pc.input.Leave()
}

// Dragging reports whether an orbit drag is in progress
func (pc *PointerController) Dragging() bool { return pc.dragging }
