package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/achilleasa/lightfield/types"
)

// A FrameBuffer holds linear radiance per pixel and the fraction of
// reconstruction rays that found support. Rows are written by a single
// goroutine each.
type FrameBuffer struct {
	Width  int
	Height int

	Pixels  []types.Vec3
	Support []float32
}

func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		Width:   width,
		Height:  height,
		Pixels:  make([]types.Vec3, width*height),
		Support: make([]float32, width*height),
	}
}

// Set pixel (x, y).
func (fb *FrameBuffer) Set(x, y int, c types.Vec3, support float32) {
	fb.Pixels[y*fb.Width+x] = c
	fb.Support[y*fb.Width+x] = support
}

// Accumulate into pixel (x, y).
func (fb *FrameBuffer) Add(x, y int, c types.Vec3) {
	p := &fb.Pixels[y*fb.Width+x]
	*p = p.Add(c)
}

// Get pixel (x, y).
func (fb *FrameBuffer) At(x, y int) types.Vec3 {
	return fb.Pixels[y*fb.Width+x]
}

// Paint the one pixel ring around the scissor window with the marker color.
// Ring pixels outside the frame are skipped; a full frame window has no ring.
func (fb *FrameBuffer) MarkScissor(scissor image.Rectangle, marker types.Vec3) {
	frame := image.Rect(0, 0, fb.Width, fb.Height)
	if scissor.Eq(frame) {
		return
	}

	ring := scissor.Inset(-1).Intersect(frame)
	for y := ring.Min.Y; y < ring.Max.Y; y++ {
		for x := ring.Min.X; x < ring.Max.X; x++ {
			if image.Pt(x, y).In(scissor) {
				continue
			}
			fb.Pixels[y*fb.Width+x] = marker
		}
	}
}

// Simple Reinhard operator followed by gamma correction.
func toneMap(v, exposure, invGamma float32) uint16 {
	scaled := math.Max(0, float64(v*exposure))
	mapped := math.Pow(scaled/(1+scaled), float64(invGamma))
	return uint16(math.Min(1, mapped)*0xffff + 0.5)
}

// Convert the frame to a tonemapped 16-bit image.
func (fb *FrameBuffer) Image(exposure, gamma float32) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, fb.Width, fb.Height))
	invGamma := 1 / gamma
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.Pixels[y*fb.Width+x]
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: toneMap(c[0], exposure, invGamma),
				G: toneMap(c[1], exposure, invGamma),
				B: toneMap(c[2], exposure, invGamma),
				A: 0xffff,
			})
		}
	}
	return img
}

// Convert the support fractions to a grayscale image.
func (fb *FrameBuffer) SupportImage() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			s := math.Max(0, math.Min(1, float64(fb.Support[y*fb.Width+x])))
			img.SetGray16(x, y, color.Gray16{Y: uint16(s*0xffff + 0.5)})
		}
	}
	return img
}
