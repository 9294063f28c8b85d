package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinDensity is the smallest tessellation that still closes the sphere
	MinDensity = 3
	// MaxDensity bounds the vertex count to (512+1)^2
	MaxDensity = 512

	// HitProxySegments is the fixed subdivision of the hit-test sphere
	HitProxySegments = 32
)

// SphereMesh holds UV sphere geometry: positions, unit normals and triangle
// indices. Vertex layout is (heightSegments+1) rows of (widthSegments+1).
type SphereMesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// GenerateSphereData generates vertex and index data for a UV sphere
func GenerateSphereData(radius float32, widthSegments, heightSegments int) SphereMesh {
	// Use default values if not specified
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	count := (widthSegments + 1) * (heightSegments + 1)
	mesh := SphereMesh{
		Positions: make([]mgl32.Vec3, 0, count),
		Normals:   make([]mgl32.Vec3, 0, count),
	}

	// Create vertices
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		theta := v * math.Pi
		sinTheta, cosTheta := math.Sin(theta), math.Cos(theta)

		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := u * 2.0 * math.Pi
			sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)

			pos := mgl32.Vec3{
				float32(-float64(radius) * cosPhi * sinTheta),
				float32(float64(radius) * cosTheta),
				float32(float64(radius) * sinPhi * sinTheta),
			}
			mesh.Positions = append(mesh.Positions, pos)
			mesh.Normals = append(mesh.Normals, pos.Normalize())
		}
	}

	// Create indices, skipping the degenerate triangles at both poles
	row := widthSegments + 1
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(iy*row + ix + 1)
			b := uint32(iy*row + ix)
			c := uint32((iy+1)*row + ix)
			d := uint32((iy+1)*row + ix + 1)

			if iy != 0 {
				mesh.Indices = append(mesh.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				mesh.Indices = append(mesh.Indices, b, c, d)
			}
		}
	}

	return mesh
}

// ParticleSet is the immutable base geometry of the point cloud. It is
// built once per density and never mutated afterwards.
type ParticleSet struct {
	density   int
	radius    float32
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
}

// ClampDensity limits a requested density to [MinDensity, MaxDensity]
func ClampDensity(density int) int {
	if density < MinDensity {
		return MinDensity
	}
	if density > MaxDensity {
		return MaxDensity
	}
	return density
}

// NewParticleSet tessellates a sphere with density latitude and longitude
// subdivisions. Out-of-range densities are clamped.
func NewParticleSet(radius float32, density int) *ParticleSet {
	density = ClampDensity(density)
	mesh := GenerateSphereData(radius, density, density)
	return &ParticleSet{
		density:   density,
		radius:    radius,
		positions: mesh.Positions,
		normals:   mesh.Normals,
	}
}

func (ps *ParticleSet) Density() int { return ps.density }
func (ps *ParticleSet) Radius() float32 { return ps.radius }
func (ps *ParticleSet) Len() int { return len(ps.positions) }

// Position returns the base position of vertex i
func (ps *ParticleSet) Position(i int) mgl32.Vec3 { return ps.positions[i] }

// Normal returns the unit base normal of vertex i
func (ps *ParticleSet) Normal(i int) mgl32.Vec3 { return ps.normals[i] }
