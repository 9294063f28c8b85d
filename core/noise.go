package core

import "github.com/go-gl/mathgl/mgl32"

// Simplex noise constants. The permutation polynomial and the 7x7 gradient
// ring follow the widely used GLSL simplex noise, so CPU and GPU evaluations
// of the same point agree.
const (
	simplexSkew     = 1.0 / 3.0
	simplexUnskew   = 1.0 / 6.0
	simplexFalloff  = 0.6
	simplexScale    = 42.0
	gradientRingInv = 0.142857142857 // 1/7
)

func mod289(x float32) float32 {
	return x - floor(x*(1.0/289.0))*289.0
}

func permute(x float32) float32 {
	return mod289((x*34.0 + 1.0) * x)
}

func taylorInvSqrt(r float32) float32 {
	return 1.79284291400159 - 0.85373472095314*r
}

// Simplex3 evaluates 3D simplex gradient noise at p. The result lies roughly
// in [-1, 1]. It is pure and does not allocate.
func Simplex3(p mgl32.Vec3) float32 {
	// Skew into the simplex lattice and find the origin cell
	s := (p[0] + p[1] + p[2]) * simplexSkew
	i := [3]float32{floor(p[0] + s), floor(p[1] + s), floor(p[2] + s)}
	t := (i[0] + i[1] + i[2]) * simplexUnskew
	x0 := [3]float32{p[0] - i[0] + t, p[1] - i[1] + t, p[2] - i[2] + t}

	// Rank the components of x0 to pick the simplex corners. Ties resolve
	// the same way on both sides so i1 and i2 always span a valid simplex.
	i1, i2 := simplexCorners(x0)

	var corners [4][3]float32
	for k := 0; k < 3; k++ {
		corners[0][k] = x0[k]
		corners[1][k] = x0[k] - i1[k] + simplexUnskew
		corners[2][k] = x0[k] - i2[k] + 2*simplexUnskew
		corners[3][k] = x0[k] - 0.5
	}

	for k := 0; k < 3; k++ {
		i[k] = mod289(i[k])
	}
	offsets := [4][3]float32{
		{0, 0, 0},
		{i1[0], i1[1], i1[2]},
		{i2[0], i2[1], i2[2]},
		{1, 1, 1},
	}

	// ns = (2/7, 0.5/7 - 1, 1/7)
	const nsX = 2 * gradientRingInv
	const nsY = 0.5*gradientRingInv - 1
	const nsZ = gradientRingInv

	var sum float32
	for c := 0; c < 4; c++ {
		hash := permute(permute(permute(i[2]+offsets[c][2])+i[1]+offsets[c][1]) + i[0] + offsets[c][0])

		// Map the hash onto a gradient on the octahedron
		j := hash - 49.0*floor(hash*nsZ*nsZ)
		xr := floor(j * nsZ)
		yr := floor(j - 7.0*xr)
		gx := xr*nsX + nsY
		gy := yr*nsX + nsY
		gz := 1.0 - abs(gx) - abs(gy)

		var sh float32
		if gz <= 0 {
			sh = -1
		}
		gx += (floor(gx)*2 + 1) * sh
		gy += (floor(gy)*2 + 1) * sh

		norm := taylorInvSqrt(gx*gx + gy*gy + gz*gz)
		gx, gy, gz = gx*norm, gy*norm, gz*norm

		x := corners[c]
		m := simplexFalloff - (x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
		if m <= 0 {
			continue
		}
		m *= m
		sum += m * m * (gx*x[0] + gy*x[1] + gz*x[2])
	}

	return simplexScale * sum
}

// simplexCorners returns the second and third corner offsets of the simplex
// containing x0, ordered by descending component.
func simplexCorners(x0 [3]float32) (i1, i2 [3]float32) {
	x, y, z := x0[0], x0[1], x0[2]
	switch {
	case x >= y && y >= z:
		return [3]float32{1, 0, 0}, [3]float32{1, 1, 0}
	case x >= y && x >= z:
		return [3]float32{1, 0, 0}, [3]float32{1, 0, 1}
	case x >= y:
		return [3]float32{0, 0, 1}, [3]float32{1, 0, 1}
	case y < z:
		return [3]float32{0, 0, 1}, [3]float32{0, 1, 1}
	case x < z:
		return [3]float32{0, 1, 0}, [3]float32{0, 1, 1}
	default:
		return [3]float32{0, 1, 0}, [3]float32{1, 1, 0}
	}
}
