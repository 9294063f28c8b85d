package rendering

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particlesphere/simulation"
)

func TestCameraDefaults(t *testing.T) {
	c := NewCamera(16.0 / 9.0)
	pos := c.Position()
	assert.InDelta(t, 0, pos[0], 1e-6)
	assert.InDelta(t, 0, pos[1], 1e-6)
	assert.InDelta(t, 2.8, pos[2], 1e-6)

	// The origin sits straight ahead in view space
	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, c.View())
	assert.InDelta(t, -2.8, origin[2], 1e-5)
}

func TestCameraOrbitClampsPolar(t *testing.T) {
	c := NewCamera(1)
	c.Orbit(0, 10000, 600)
	assert.InDelta(t, MinPolarAngle, c.Polar, 1e-6)

	c.Orbit(0, -10000, 600)
	assert.InDelta(t, MaxPolarAngle, c.Polar, 1e-6)

	assert.InDelta(t, 2.8, c.Position().Len(), 1e-5, "orbit keeps distance")
}

func TestCameraOrbitUsesDragSpeed(t *testing.T) {
	slow := NewCamera(1)
	fast := NewCamera(1)
	fast.SetDragSpeed(1)

	slow.Orbit(60, 0, 600)
	fast.Orbit(60, 0, 600)
	assert.InDelta(t, 2*slow.Azimuth, fast.Azimuth, 1e-6)
	assert.InDelta(t, -2*math.Pi*0.1*0.5, slow.Azimuth, 1e-6)

	fast.SetDragSpeed(100)
	assert.Equal(t, float32(2), fast.DragSpeed)
}

func TestCameraZoomClamps(t *testing.T) {
	c := NewCamera(1)
	c.Zoom(1)
	assert.InDelta(t, 2.8*0.95, c.Distance, 1e-5)

	c.Zoom(1000)
	assert.Equal(t, float32(MinCameraDistance), c.Distance)
	c.Zoom(-1000)
	assert.Equal(t, float32(MaxCameraDistance), c.Distance)
}

func TestCameraScreenRay(t *testing.T) {
	c := NewCamera(4.0 / 3.0)

	center := c.ScreenRay(400, 300, 800, 600)
	assert.InDelta(t, 0, center.Direction[0], 1e-4)
	assert.InDelta(t, 0, center.Direction[1], 1e-4)
	assert.InDelta(t, -1, center.Direction[2], 1e-4)

	// A ray just off center hits the sphere front on
	proxy := simulation.NewHitProxy(1.2)
	local, hit := proxy.Intersect(c.ScreenRay(410, 290, 800, 600))
	require.True(t, hit)
	assert.InDelta(t, 1.2, local[2], 0.01)

	// A corner ray misses
	_, hit = proxy.Intersect(c.ScreenRay(0, 0, 800, 600))
	assert.False(t, hit)

	up := c.ScreenRay(400, 100, 800, 600)
	assert.Greater(t, up.Direction[1], float32(0), "screen Y is flipped")
}
