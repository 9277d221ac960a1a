package renderer

import "github.com/achilleasa/lightfield/log"

var logger = log.New("renderer")

type Renderer interface {
	// Render frame.
	Render() error

	// Get the rendered frame.
	Frame() *FrameBuffer

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
