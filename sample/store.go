package sample

import (
	"errors"
	"math"
	"time"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/log"
	"github.com/achilleasa/lightfield/types"
)

var ErrNoValidSamples = errors.New("sample: buffer contains no valid secondary hits")

// A primary hit seen through a pixel. The pixel driver spawns
// reconstruction rays from these.
type PrimaryHit struct {
	Position types.Vec2
	T        float32
	Origin   types.Vec3
	Normal   types.Vec3
	Albedo   types.Vec3
	Direct   types.Vec3
}

// Ingestion options.
type IngestOptions struct {
	// Keep motion vectors. When false hit points are treated as static.
	Motion bool
}

// A Store holds the index-stable sample collection and the per pixel
// primary hits extracted from a sample buffer.
type Store struct {
	Width  int
	Height int

	Samples []Sample

	// Primary hits of pixel p are Primary[pixelOffset[p]:pixelOffset[p+1]].
	Primary     []PrimaryHit
	pixelOffset []int32

	Camera *samplebuf.Camera
}

// Number of stored samples.
func (st *Store) Len() int {
	return len(st.Samples)
}

// Get the primary hits for pixel (x, y).
func (st *Store) PixelHits(x, y int) []PrimaryHit {
	p := y*st.Width + x
	return st.Primary[st.pixelOffset[p]:st.pixelOffset[p+1]]
}

// Calculate the bounding box of the sample hit points at time 0.
func (st *Store) Bounds() (min, max types.Vec3) {
	min = types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max = types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := range st.Samples {
		p := st.Samples[i].HitPoint(0)
		min = types.MinVec3(min, p)
		max = types.MaxVec3(max, p)
	}
	return min, max
}

// Get the length of the diagonal of the sample bounding box.
func (st *Store) Diagonal() float32 {
	if len(st.Samples) == 0 {
		return 0
	}
	min, max := st.Bounds()
	return max.Sub(min).Len()
}

// Set every sample radius to r.
func (st *Store) ResetRadii(r float32) {
	for i := range st.Samples {
		st.Samples[i].SetRadius(r)
	}
}

// Snapshot the current sample radii.
func (st *Store) Radii() []float32 {
	out := make([]float32, len(st.Samples))
	for i := range st.Samples {
		out[i] = st.Samples[i].Radius()
	}
	return out
}

type channelSet struct {
	priNormal, priAlbedo, origin, hit, motion, normal, direct, secAlbedo, secDirect int
}

func resolveChannels(buf *samplebuf.Buffer, opts IngestOptions) (channelSet, error) {
	var (
		cs  channelSet
		err error
	)

	// Required channels.
	for _, req := range []struct {
		name string
		dst  *int
	}{
		{samplebuf.SecondaryOrigin, &cs.origin},
		{samplebuf.SecondaryHit, &cs.hit},
		{samplebuf.SecondaryNormal, &cs.normal},
	} {
		if *req.dst, err = buf.ChannelIndex(req.name); err != nil {
			return cs, err
		}
	}

	// Optional channels resolve to -1 when missing.
	for _, opt := range []struct {
		name string
		dst  *int
	}{
		{samplebuf.PrimaryNormal, &cs.priNormal},
		{samplebuf.PrimaryAlbedo, &cs.priAlbedo},
		{samplebuf.SecondaryMotion, &cs.motion},
		{samplebuf.DirectLight, &cs.direct},
		{samplebuf.SecondaryAlbedo, &cs.secAlbedo},
		{samplebuf.SecondaryDirect, &cs.secDirect},
	} {
		*opt.dst, _ = buf.ChannelIndex(opt.name)
	}

	if !opts.Motion {
		cs.motion = -1
	}
	return cs, nil
}

// Build a Store from a sample buffer. Channel names are resolved once;
// sub-samples whose secondary ray missed the scene do not produce a Sample
// but may still contribute a PrimaryHit.
func Ingest(buf *samplebuf.Buffer, opts IngestOptions) (*Store, error) {
	logger := log.New("ingest")
	start := time.Now()

	if err := buf.Validate(); err != nil {
		return nil, err
	}
	cs, err := resolveChannels(buf, opts)
	if err != nil {
		return nil, err
	}

	st := &Store{
		Width:       buf.Width,
		Height:      buf.Height,
		Samples:     make([]Sample, 0, buf.Len()),
		Primary:     make([]PrimaryHit, 0, buf.Len()),
		pixelOffset: make([]int32, buf.Width*buf.Height+1),
		Camera:      buf.Camera,
	}

	white := types.XYZ(1, 1, 1)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			for s := 0; s < buf.SamplesPerPixel; s++ {
				index := buf.Index(x, y, s)
				origin := buf.Vec3(cs.origin, index)
				priNormal := buf.Vec3(cs.priNormal, index).Normalize()
				priAlbedo := white
				if cs.priAlbedo >= 0 {
					priAlbedo = buf.Vec3(cs.priAlbedo, index)
				}

				hit := buf.Vec3(cs.hit, index)
				secondaryMiss := hit.AllGreaterEq(samplebuf.NoHit) || origin.AllGreaterEq(samplebuf.NoHit)

				// Without primary normals the secondary ray direction selects
				// the hemisphere; hits whose secondary ray missed are dropped.
				if cs.priNormal < 0 && !secondaryMiss {
					priNormal = hit.Sub(origin).Normalize()
				}

				if !origin.AllGreaterEq(samplebuf.NoHit) && priNormal != (types.Vec3{}) {
					st.Primary = append(st.Primary, PrimaryHit{
						Position: buf.Position[index],
						T:        buf.Time[index],
						Origin:   origin,
						Normal:   priNormal,
						Albedo:   priAlbedo,
						Direct:   buf.Vec3(cs.direct, index),
					})
				}

				if secondaryMiss {
					continue
				}

				normal := buf.Vec3(cs.normal, index).Normalize()
				if normal == (types.Vec3{}) {
					normal = origin.Sub(hit).Normalize()
				}

				st.Samples = append(st.Samples, Sample{
					Position:      buf.Position[index],
					T:             buf.Time[index],
					Color:         buf.Color[index],
					PrimaryNormal: priNormal,
					PrimaryAlbedo: priAlbedo,
					Origin:        origin,
					Hit:           hit,
					Motion:        buf.Vec3(cs.motion, index),
					Normal:        normal,
					Albedo:        buf.Vec3(cs.secAlbedo, index),
					Direct:        buf.Vec3(cs.secDirect, index),
					Bandwidth:     buf.Bandwidth[index],
					Index:         int32(index),
				})
			}
			st.pixelOffset[y*buf.Width+x+1] = int32(len(st.Primary))
		}
	}

	if len(st.Samples) == 0 {
		return nil, ErrNoValidSamples
	}

	logger.Noticef(
		"ingested %d samples and %d primary hits out of %d sub-samples in %d ms",
		len(st.Samples), len(st.Primary), buf.Len(), time.Since(start).Nanoseconds()/1000000,
	)
	return st, nil
}
