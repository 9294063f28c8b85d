package simulation

import "github.com/go-gl/mathgl/mgl32"

// Frame is the per-vertex output of one tick. Positions are in object-local
// space; Model carries the orientation into world space.
type Frame struct {
	Tick        uint64
	Time        float64
	Density     int
	Radius      float32
	Model       mgl32.Mat4
	Orientation Orientation
	Interaction InteractionState
	Appearance  AppearanceState

	Positions []mgl32.Vec3
	Strength  []float32
	Noise     []float32
	Distance  []float32
}

// Len is the number of points in the frame
func (f *Frame) Len() int {
	return len(f.Positions)
}

func (f *Frame) resize(n int) {
	if cap(f.Positions) < n {
		f.Positions = make([]mgl32.Vec3, n)
		f.Strength = make([]float32, n)
		f.Noise = make([]float32, n)
		f.Distance = make([]float32, n)
		return
	}
	f.Positions = f.Positions[:n]
	f.Strength = f.Strength[:n]
	f.Noise = f.Noise[:n]
	f.Distance = f.Distance[:n]
}
