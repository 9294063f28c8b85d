package simulation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"particlesphere/core"
)

// Ray is a half-line in world space. Direction need not be normalized.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// HitProxy is a coarse invisible copy of the sphere used only for pointer
// ray tests. Its orientation is copied from the visible set every tick.
type HitProxy struct {
	radius      float32
	mesh        core.SphereMesh
	orientation Orientation
}

// NewHitProxy tessellates the proxy at the fixed HitProxySegments resolution
func NewHitProxy(radius float32) *HitProxy {
	return &HitProxy{
		radius: radius,
		mesh:   core.GenerateSphereData(radius, core.HitProxySegments, core.HitProxySegments),
	}
}

func (h *HitProxy) Radius() float32 { return h.radius }

// Orientation returns the proxy's current orientation
func (h *HitProxy) Orientation() Orientation { return h.orientation }

// SyncOrientation copies the visible set's orientation onto the proxy
func (h *HitProxy) SyncOrientation(o Orientation) {
	h.orientation = o
}

// WorldToLocal maps a world-space point into object-local space
func (h *HitProxy) WorldToLocal(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, h.orientation.Inverse())
}

// Intersect casts a world-space ray against the proxy mesh and returns the
// nearest hit in object-local space
func (h *HitProxy) Intersect(ray Ray) (mgl32.Vec3, bool) {
	inv := h.orientation.Inverse()
	local := Ray{
		Origin:    mgl32.TransformCoordinate(ray.Origin, inv),
		Direction: mgl32.TransformNormal(ray.Direction, inv),
	}

	// Cheap reject against the bounding sphere before walking triangles
	if _, hit := raySphereIntersect(local.Origin, local.Direction, h.radius*1.01); !hit {
		return mgl32.Vec3{}, false
	}

	best := float32(math.MaxFloat32)
	found := false
	idx := h.mesh.Indices
	pos := h.mesh.Positions
	for i := 0; i+2 < len(idx); i += 3 {
		t, ok := rayTriangle(local, pos[idx[i]], pos[idx[i+1]], pos[idx[i+2]])
		if ok && t < best {
			best = t
			found = true
		}
	}
	if !found {
		return mgl32.Vec3{}, false
	}
	return local.At(best), true
}

// raySphereIntersect performs ray-sphere intersection for a sphere at the
// origin and returns the nearest non-negative ray parameter
func raySphereIntersect(origin, dir mgl32.Vec3, radius float32) (float32, bool) {
	a := dir.Dot(dir)
	b := 2.0 * origin.Dot(dir)
	c := origin.Dot(origin) - radius*radius
	discriminant := b*b - 4*a*c

	if discriminant < 0 || a == 0 {
		return 0, false
	}

	sqrtD := float32(math.Sqrt(float64(discriminant)))
	t0 := (-b - sqrtD) / (2.0 * a)
	t1 := (-b + sqrtD) / (2.0 * a)

	// Use the closer positive intersection
	t := t0
	if t < 0 {
		t = t1
		if t < 0 {
			return 0, false
		}
	}
	return t, true
}

// rayTriangle is the Möller–Trumbore test, double sided
func rayTriangle(r Ray, v0, v1, v2 mgl32.Vec3) (float32, bool) {
	const epsilon = 1e-7

	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(v0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * invDet
	if t < 0 {
		return 0, false
	}
	return t, true
}
