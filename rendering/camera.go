package rendering

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"particlesphere/simulation"
)

const (
	DefaultFOV          = 45.0
	DefaultDistance     = 2.8
	DefaultDragSpeed    = 0.5
	MinCameraDistance   = 0.5
	MaxCameraDistance   = 5.0
	MinPolarAngle       = math.Pi / 4
	MaxPolarAngle       = 3 * math.Pi / 4
	zoomStep            = 0.95
	cameraNear          = 0.1
	cameraFar           = 100.0
	minDragSpeed        = 0.1
	maxDragSpeed        = 2.0
	defaultCameraAspect = 1.0
)

// Camera orbits the origin. Polar is measured from +Y, azimuth around Y
// starting at +Z, so the default camera sits at (0, 0, 2.8).
type Camera struct {
	Distance  float32
	Polar     float32
	Azimuth   float32
	FOV       float32 // vertical, degrees
	Aspect    float32
	DragSpeed float32
}

func NewCamera(aspect float32) *Camera {
	if aspect <= 0 {
		aspect = defaultCameraAspect
	}
	return &Camera{
		Distance:  DefaultDistance,
		Polar:     math.Pi / 2,
		FOV:       DefaultFOV,
		Aspect:    aspect,
		DragSpeed: DefaultDragSpeed,
	}
}

// SetDragSpeed sets the orbit sensitivity, clamped to [0.1, 2]
func (c *Camera) SetDragSpeed(speed float32) {
	c.DragSpeed = mgl32.Clamp(speed, minDragSpeed, maxDragSpeed)
}

// Position returns the camera eye in world space
func (c *Camera) Position() mgl32.Vec3 {
	sp, cp := math.Sincos(float64(c.Polar))
	sa, ca := math.Sincos(float64(c.Azimuth))
	return mgl32.Vec3{
		c.Distance * float32(sp*sa),
		c.Distance * float32(cp),
		c.Distance * float32(sp*ca),
	}
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, cameraNear, cameraFar)
}

// Orbit rotates the camera by a pointer drag of (dx, dy) pixels in a
// viewport of the given height. A full-height drag turns 2π at speed 1.
func (c *Camera) Orbit(dx, dy, viewportHeight float32) {
	if viewportHeight <= 0 {
		return
	}
	scale := 2 * math.Pi / viewportHeight * c.DragSpeed
	c.Azimuth -= dx * scale
	c.Polar = mgl32.Clamp(c.Polar-dy*scale, MinPolarAngle, MaxPolarAngle)
	c.Azimuth = float32(math.Remainder(float64(c.Azimuth), 2*math.Pi))
}

// Zoom dollies toward the origin for positive wheel steps
func (c *Camera) Zoom(steps float32) {
	c.Distance *= float32(math.Pow(zoomStep, float64(steps)))
	c.Distance = mgl32.Clamp(c.Distance, MinCameraDistance, MaxCameraDistance)
}

// ScreenRay unprojects a window pixel into a world-space ray
func (c *Camera) ScreenRay(x, y float32, width, height int) simulation.Ray {
	// Convert screen coordinates to NDC
	nx := (2.0*x)/float32(width) - 1.0
	ny := 1.0 - (2.0*y)/float32(height) // Flip Y

	invViewProj := c.Projection().Mul4(c.View()).Inv()

	// Near and far points in NDC
	nearWorld := invViewProj.Mul4x1(mgl32.Vec4{nx, ny, -1.0, 1.0})
	farWorld := invViewProj.Mul4x1(mgl32.Vec4{nx, ny, 1.0, 1.0})

	// Perspective divide
	nearWorld = nearWorld.Mul(1.0 / nearWorld[3])
	farWorld = farWorld.Mul(1.0 / farWorld[3])

	origin := nearWorld.Vec3()
	return simulation.Ray{
		Origin:    origin,
		Direction: farWorld.Vec3().Sub(origin).Normalize(),
	}
}
