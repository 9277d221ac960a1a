// Package samplebuf defines the container used to exchange traced sample
// data between a path tracer and the reconstruction pipeline.
package samplebuf

import (
	"errors"
	"fmt"

	"github.com/achilleasa/lightfield/types"
)

// Well-known channel names.
const (
	PrimaryNormal   = "PRI_NORMAL"
	PrimaryAlbedo   = "PRI_ALBEDO"
	SecondaryOrigin = "SEC_ORIGIN"
	SecondaryHit    = "SEC_HITPOINT"
	SecondaryMotion = "SEC_MV"
	SecondaryNormal = "SEC_NORMAL"
	DirectLight     = "DIRECT"
	SecondaryAlbedo = "SEC_ALBEDO"
	SecondaryDirect = "SEC_DIRECT"
)

// Hit points with all components at or above this value denote rays that
// did not intersect anything.
const NoHit float32 = 1e10

var (
	ErrMissingChannel = errors.New("samplebuf: missing channel")
	ErrDimensions     = errors.New("samplebuf: invalid buffer dimensions")
)

// A thin-lens camera description. It is only required when reconstructing
// defocus and motion blur.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Lens radius and distance to the plane in focus.
	Aperture      float32
	FocalDistance float32
}

// A Buffer stores Width x Height pixels with SamplesPerPixel sub-samples
// each. Sub-sample i of pixel (x, y) lives at index (y*Width+x)*SamplesPerPixel+i
// in every per sub-sample slice.
type Buffer struct {
	Width           int
	Height          int
	SamplesPerPixel int

	// Intrinsic values for each sub-sample.
	Position  []types.Vec2
	Time      []float32
	Bandwidth []float32
	Color     []types.Vec3

	// Named vector channels.
	ChannelNames []string
	Channels     [][]types.Vec3

	Camera *Camera
}

// Allocate a buffer with storage for the intrinsic values and the listed channels.
func New(width, height, spp int, channels ...string) *Buffer {
	n := width * height * spp
	b := &Buffer{
		Width:           width,
		Height:          height,
		SamplesPerPixel: spp,
		Position:        make([]types.Vec2, n),
		Time:            make([]float32, n),
		Bandwidth:       make([]float32, n),
		Color:           make([]types.Vec3, n),
	}
	for _, name := range channels {
		b.AddChannel(name)
	}
	return b
}

// The total number of sub-samples.
func (b *Buffer) Len() int {
	return b.Width * b.Height * b.SamplesPerPixel
}

// Get the index of sub-sample s of pixel (x, y).
func (b *Buffer) Index(x, y, s int) int {
	return (y*b.Width+x)*b.SamplesPerPixel + s
}

// Register a channel and return its index. Adding an existing channel
// returns the index of the existing one.
func (b *Buffer) AddChannel(name string) int {
	if index, err := b.ChannelIndex(name); err == nil {
		return index
	}
	b.ChannelNames = append(b.ChannelNames, name)
	b.Channels = append(b.Channels, make([]types.Vec3, b.Len()))
	return len(b.Channels) - 1
}

// Resolve a channel name to its index.
func (b *Buffer) ChannelIndex(name string) (int, error) {
	for index, chName := range b.ChannelNames {
		if chName == name {
			return index, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrMissingChannel, name)
}

// Get channel value for a sub-sample. A negative channel index yields a zero vector.
func (b *Buffer) Vec3(channel, index int) types.Vec3 {
	if channel < 0 {
		return types.Vec3{}
	}
	return b.Channels[channel][index]
}

// Check that all per sub-sample slices match the buffer dimensions.
func (b *Buffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 || b.SamplesPerPixel <= 0 {
		return fmt.Errorf("%w: %dx%d with %d spp", ErrDimensions, b.Width, b.Height, b.SamplesPerPixel)
	}

	n := b.Len()
	if len(b.Position) != n || len(b.Time) != n || len(b.Bandwidth) != n || len(b.Color) != n {
		return fmt.Errorf("%w: intrinsic data does not match %d sub-samples", ErrDimensions, n)
	}
	if len(b.ChannelNames) != len(b.Channels) {
		return fmt.Errorf("%w: %d channel names for %d channels", ErrDimensions, len(b.ChannelNames), len(b.Channels))
	}
	for index, ch := range b.Channels {
		if len(ch) != n {
			return fmt.Errorf("%w: channel %s has %d entries; expected %d", ErrDimensions, b.ChannelNames[index], len(ch), n)
		}
	}
	return nil
}
