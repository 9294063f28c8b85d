package rendering

import (
	"image"
	"image/color"
	"math"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"particlesphere/core"
	"particlesphere/simulation"
)

// Background is the clear color behind the sphere
var Background = core.MustParseHexColor("#020205")

const projectChunk = 2048

type splat struct {
	x, y  float32 // center in pixels
	size  float32 // diameter in pixels, zero if culled
	color core.Color
}

// Rasterizer is the software point renderer. It draws a frame's points as
// shaped splats with additive blending and no depth test, writing into an
// RGBA image. Rows are split into bands that are shaded in parallel.
type Rasterizer struct {
	Background core.Color

	width   int
	height  int
	workers int
	accum   []core.Color
	splats  []splat
	bands   [][]int32
	img     *image.RGBA
}

// NewRasterizer allocates a width×height target. Zero workers means
// GOMAXPROCS.
func NewRasterizer(width, height, workers int) *Rasterizer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	r := &Rasterizer{Background: Background, workers: workers}
	r.Resize(width, height)
	return r
}

// Resize reallocates the target when the size changes
func (r *Rasterizer) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.accum = make([]core.Color, width*height)
	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	r.bands = make([][]int32, min(r.workers*2, height))
}

func (r *Rasterizer) Size() (int, int) { return r.width, r.height }

// Image returns the last rendered image. It is reused by the next Render.
func (r *Rasterizer) Image() *image.RGBA { return r.img }

// Render draws f as seen from cam and returns the target image
func (r *Rasterizer) Render(f *simulation.Frame, cam *Camera) *image.RGBA {
	r.project(f, cam)
	r.bin()

	bandHeight := r.bandHeight()
	var g errgroup.Group
	g.SetLimit(r.workers)
	for b := range r.bands {
		g.Go(func() error {
			lo := b * bandHeight
			hi := min(lo+bandHeight, r.height)
			if lo >= hi {
				return nil
			}
			r.shadeBand(f.Appearance.Shape, lo, hi, r.bands[b])
			return nil
		})
	}
	_ = g.Wait()

	return r.img
}

func (r *Rasterizer) bandHeight() int {
	return (r.height + len(r.bands) - 1) / len(r.bands)
}

// project moves every point to screen space and resolves its color and size
func (r *Rasterizer) project(f *simulation.Frame, cam *Camera) {
	n := f.Len()
	if cap(r.splats) < n {
		r.splats = make([]splat, n)
	}
	r.splats = r.splats[:n]

	modelView := cam.View().Mul4(f.Model)
	proj := cam.Projection()
	w, h := float32(r.width), float32(r.height)

	var g errgroup.Group
	g.SetLimit(r.workers)
	for lo := 0; lo < n; lo += projectChunk {
		hi := min(lo+projectChunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				mv := modelView.Mul4x1(f.Positions[i].Vec4(1))
				clip := proj.Mul4x1(mv)
				size := PointSize(f.Strength[i], mv[2])
				if clip[3] <= 0 || size <= 0 {
					r.splats[i] = splat{}
					continue
				}
				r.splats[i] = splat{
					x:     (clip[0]/clip[3] + 1) * 0.5 * w,
					y:     (1 - clip[1]/clip[3]) * 0.5 * h,
					size:  size,
					color: PointColor(f.Appearance, f.Distance[i], f.Noise[i]),
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// bin assigns each visible splat to every row band its footprint touches
func (r *Rasterizer) bin() {
	for b := range r.bands {
		r.bands[b] = r.bands[b][:0]
	}
	bandHeight := float32(r.bandHeight())
	last := len(r.bands) - 1

	for i, s := range r.splats {
		if s.size <= 0 {
			continue
		}
		half := s.size * 0.5
		if s.x+half < 0 || s.x-half > float32(r.width) || s.y+half < 0 || s.y-half > float32(r.height) {
			continue
		}
		lo := max(int((s.y-half)/bandHeight), 0)
		hi := min(int((s.y+half)/bandHeight), last)
		for b := lo; b <= hi; b++ {
			r.bands[b] = append(r.bands[b], int32(i))
		}
	}
}

func (r *Rasterizer) shadeBand(shape core.Shape, rowLo, rowHi int, members []int32) {
	accum := r.accum[rowLo*r.width : rowHi*r.width]
	clear(accum)

	for _, idx := range members {
		s := r.splats[idx]
		half := s.size * 0.5
		x0 := max(int(math.Floor(float64(s.x-half))), 0)
		x1 := min(int(math.Ceil(float64(s.x+half))), r.width)
		y0 := max(int(math.Floor(float64(s.y-half))), rowLo)
		y1 := min(int(math.Ceil(float64(s.y+half))), rowHi)
		inv := 1 / s.size

		for py := y0; py < y1; py++ {
			cy := (float32(py) + 0.5 - s.y) * inv
			row := accum[(py-rowLo)*r.width:]
			for px := x0; px < x1; px++ {
				coord := mgl32.Vec2{(float32(px) + 0.5 - s.x) * inv, cy}
				frag, ok := Shade(shape, s.color, coord)
				if !ok {
					continue
				}
				c := &row[px]
				c.R += frag.R
				c.G += frag.G
				c.B += frag.B
			}
		}
	}

	for py := rowLo; py < rowHi; py++ {
		for px := 0; px < r.width; px++ {
			c := accum[(py-rowLo)*r.width+px]
			r.img.SetRGBA(px, py, color.RGBA{
				R: toByte(r.Background.R + c.R),
				G: toByte(r.Background.G + c.G),
				B: toByte(r.Background.B + c.B),
				A: 0xff,
			})
		}
	}
}

func toByte(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
