package opengl

import "particlesphere/simulation"

// floatsPerVertex is position (3), strength, noise and distance
const floatsPerVertex = 6

// interleave packs a frame into dst as [x y z strength noise distance]
// per point, reusing dst's storage
func interleave(dst []float32, f *simulation.Frame) []float32 {
	n := f.Len() * floatsPerVertex
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	for i, p := range f.Positions {
		o := i * floatsPerVertex
		dst[o+0] = p[0]
		dst[o+1] = p[1]
		dst[o+2] = p[2]
		dst[o+3] = f.Strength[i]
		dst[o+4] = f.Noise[i]
		dst[o+5] = f.Distance[i]
	}
	return dst
}
