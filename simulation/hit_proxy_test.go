package simulation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitProxyIntersect(t *testing.T) {
	const radius = 1.2
	proxy := NewHitProxy(radius)

	tests := []struct {
		name        string
		orientation Orientation
		ray         Ray
		wantHit     bool
		wantLocal   mgl32.Vec3
	}{
		{
			name:      "front",
			ray:       Ray{Origin: mgl32.Vec3{0.013, 0.021, 5}, Direction: mgl32.Vec3{0, 0, -1}},
			wantHit:   true,
			wantLocal: mgl32.Vec3{0.013, 0.021, radius},
		},
		{
			name:      "unnormalized direction",
			ray:       Ray{Origin: mgl32.Vec3{0.013, 0.021, 5}, Direction: mgl32.Vec3{0, 0, -7}},
			wantHit:   true,
			wantLocal: mgl32.Vec3{0.013, 0.021, radius},
		},
		{
			name:        "rotated quarter turn",
			orientation: Orientation{Y: math.Pi / 2},
			ray:         Ray{Origin: mgl32.Vec3{0.013, 0.021, 5}, Direction: mgl32.Vec3{0, 0, -1}},
			wantHit:     true,
			wantLocal:   mgl32.Vec3{-radius, 0.021, 0.013},
		},
		{
			name:    "miss",
			ray:     Ray{Origin: mgl32.Vec3{0, 3, 5}, Direction: mgl32.Vec3{0, 0, -1}},
			wantHit: false,
		},
		{
			name:    "pointing away",
			ray:     Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, 1}},
			wantHit: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			proxy.SyncOrientation(tc.orientation)
			local, hit := proxy.Intersect(tc.ray)
			require.Equal(t, tc.wantHit, hit)
			if tc.wantHit {
				assert.True(t, local.ApproxEqualThreshold(tc.wantLocal, 5e-3), "got %v want %v", local, tc.wantLocal)
			}
		})
	}
}

func TestHitProxyNearestHit(t *testing.T) {
	proxy := NewHitProxy(1)
	local, hit := proxy.Intersect(Ray{Origin: mgl32.Vec3{0.3, 0.2, 4}, Direction: mgl32.Vec3{0, 0, -1}})
	require.True(t, hit)
	// The front face is hit, not the back one
	assert.Greater(t, local[2], float32(0))
	assert.InDelta(t, 1, local.Len(), 0.01)
}

func TestHitProxyWorldToLocal(t *testing.T) {
	proxy := NewHitProxy(1.2)
	o := Orientation{Y: 0.7, Z: 0.2}
	proxy.SyncOrientation(o)

	local := mgl32.Vec3{0.5, 0.9, 0.6}
	world := mgl32.TransformCoordinate(local, o.Matrix())
	assert.True(t, proxy.WorldToLocal(world).ApproxEqualThreshold(local, 1e-5))
}
