package renderer

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/lightfield/asset/raydump"
	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/recon"
	"github.com/achilleasa/lightfield/sample"
	"github.com/achilleasa/lightfield/tracer"
	"github.com/achilleasa/lightfield/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthStore(t *testing.T, size int) (*sample.Store, samplebuf.SynthOptions) {
	t.Helper()
	opts := samplebuf.DefaultSynthOptions()
	opts.Width, opts.Height = size, size

	store, err := sample.Ingest(samplebuf.FloorUnderCeiling(opts), sample.IngestOptions{})
	require.NoError(t, err)
	return store, opts
}

func testOptions() Options {
	cfg := recon.DefaultConfig()
	cfg.RaysPerHit = 8
	return Options{
		Recon:            cfg,
		NumTracers:       2,
		WorkersPerTracer: 2,
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := testOptions()
	assert.Equal(t, ErrNoSamples, opts.Validate())

	opts.FrameW, opts.FrameH = 10, 8
	require.NoError(t, opts.Validate())
	assert.Equal(t, image.Rect(0, 0, 10, 8), opts.Scissor)
	assert.Equal(t, float32(1), opts.Exposure)
	assert.Equal(t, float32(2.2), opts.Gamma)
	assert.Equal(t, DefaultMarkerColor, opts.MarkerColor)

	opts.MarkerColor = types.XYZ(0, 1, 0)
	require.NoError(t, opts.Validate())
	assert.Equal(t, types.XYZ(0, 1, 0), opts.MarkerColor)

	opts.Scissor = image.Rect(5, 5, 20, 20)
	require.NoError(t, opts.Validate())
	assert.Equal(t, image.Rect(5, 5, 10, 8), opts.Scissor)

	opts.Scissor = image.Rect(20, 20, 30, 30)
	assert.Equal(t, ErrInvalidScissor, opts.Validate())
}

func TestDefaultRenderer(t *testing.T) {
	store, synthOpts := synthStore(t, 16)

	r, err := NewDefault(store, tracer.PerfectScheduler(), testOptions())
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Render())

	frame := r.Frame()
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			c := frame.At(x, y)
			require.Greater(t, frame.Support[y*frame.Width+x], float32(0), "pixel (%d, %d)", x, y)
			assert.InDeltaSlice(t, synthOpts.Albedo[:], c[:], 1e-3, "pixel (%d, %d)", x, y)
		}
	}

	stats := r.Stats()
	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, float32(1), stats.PixelCoverage)
	require.Len(t, stats.Tracers, 2)
	assert.Equal(t, uint32(16), stats.Tracers[0].BlockH+stats.Tracers[1].BlockH)

	var passes []string
	for _, pass := range stats.Passes {
		passes = append(passes, pass.Name)
	}
	assert.Equal(t, []string{"build", "density", "shrink", "filter"}, passes)
}

func TestDefaultRendererIsDeterministic(t *testing.T) {
	var frames [][]types.Vec3
	for _, numTracers := range []int{1, 3} {
		store, _ := synthStore(t, 8)
		opts := testOptions()
		opts.NumTracers = numTracers

		r, err := NewDefault(store, tracer.NaiveScheduler(), opts)
		require.NoError(t, err)
		require.NoError(t, r.Render())
		frames = append(frames, r.Frame().Pixels)
		r.Close()
	}
	assert.Equal(t, frames[0], frames[1])
}

func TestDefaultRendererScissor(t *testing.T) {
	store, _ := synthStore(t, 10)
	marker := types.XYZ(1, 0, 1)

	opts := testOptions()
	opts.Scissor = image.Rect(3, 3, 6, 6)
	opts.MarkerColor = marker

	r, err := NewDefault(store, tracer.NaiveScheduler(), opts)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Render())

	frame := r.Frame()
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			p := image.Pt(x, y)
			switch {
			case p.In(opts.Scissor):
				assert.NotEqual(t, types.Vec3{}, frame.At(x, y), "pixel (%d, %d)", x, y)
				assert.NotEqual(t, marker, frame.At(x, y), "pixel (%d, %d)", x, y)
			case p.In(image.Rect(2, 2, 7, 7)):
				assert.Equal(t, marker, frame.At(x, y), "pixel (%d, %d)", x, y)
			default:
				assert.Equal(t, types.Vec3{}, frame.At(x, y), "pixel (%d, %d)", x, y)
			}
		}
	}
}

func TestDefaultRendererErrors(t *testing.T) {
	_, err := NewDefault(&sample.Store{}, tracer.NaiveScheduler(), testOptions())
	assert.Equal(t, ErrNoSamples, err)

	store, _ := synthStore(t, 4)
	opts := testOptions()
	opts.Recon.Mode = recon.DefocusMotion
	_, err = NewDefault(store, tracer.NaiveScheduler(), opts)
	assert.Equal(t, ErrNoCamera, err)
}

func TestRayDumpRenderer(t *testing.T) {
	store, synthOpts := synthStore(t, 8)

	// Two straight up rays per pixel of the left half of a 4x2 frame.
	var buf bytes.Buffer
	wr, err := raydump.NewWriter(&buf, 4, 2, 8)
	require.NoError(t, err)
	for y := int32(0); y < 2; y++ {
		for x := int32(0); x < 2; x++ {
			for i := 0; i < 2; i++ {
				require.NoError(t, wr.Write(raydump.Record{
					X:      x,
					Y:      y,
					Origin: types.XYZ(0.4+float32(x)*0.1, 0, 0.4+float32(y)*0.1),
					Dir:    types.XYZ(0, 1, 0),
					Weight: 0.5,
				}))
			}
		}
	}
	require.NoError(t, wr.Close())

	reader, err := raydump.NewReader(&buf)
	require.NoError(t, err)

	opts := testOptions()
	opts.RayDumpBatchSize = 3
	r, err := NewRayDump(store, reader, opts)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Render())

	frame := r.Frame()
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := frame.At(x, y)
			if x < 2 {
				assert.InDeltaSlice(t, synthOpts.Radiance[:], c[:], 1e-4, "pixel (%d, %d)", x, y)
				continue
			}
			assert.Equal(t, types.Vec3{}, c, "pixel (%d, %d)", x, y)
		}
	}

	stats := r.Stats()
	assert.Equal(t, uint64(8), stats.ProcessedRays)
	assert.Equal(t, uint64(8), stats.SupportedRays)
}

func TestRayDumpRendererFailsOnCorruptStream(t *testing.T) {
	store, _ := synthStore(t, 4)

	var buf bytes.Buffer
	wr, err := raydump.NewWriter(&buf, 2, 2, 2)
	require.NoError(t, err)
	require.NoError(t, wr.Write(raydump.Record{X: 0, Y: 0, Dir: types.XYZ(0, 1, 0), Weight: 1}))

	// The header announces two records but only one is present.
	assert.ErrorIs(t, wr.Close(), raydump.ErrRecordCount)
	reader, err := raydump.NewReader(&buf)
	require.NoError(t, err)

	r, err := NewRayDump(store, reader, testOptions())
	require.NoError(t, err)
	defer r.Close()

	assert.ErrorIs(t, r.Render(), raydump.ErrTruncated)
}

func TestWriteImage(t *testing.T) {
	fb := NewFrameBuffer(4, 3)
	fb.Set(1, 1, types.XYZ(1, 0.5, 0), 1)
	dir := t.TempDir()

	for _, name := range []string{"frame.png", "frame.tiff", "support.tif"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteImage(path, fb.Image(1, 2.2)))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	assert.ErrorIs(t, WriteImage(filepath.Join(dir, "frame.bmp"), fb.SupportImage()), ErrUnsupportedFormat)
}

func TestToneMap(t *testing.T) {
	assert.Equal(t, uint16(0), toneMap(0, 1, 1))
	assert.Equal(t, uint16(0x8000), toneMap(1, 1, 1))
	assert.Equal(t, uint16(0), toneMap(-5, 1, 1))
	assert.True(t, toneMap(100, 1, 1/2.2) > toneMap(1, 1, 1/2.2))
}

func TestScanlineRanges(t *testing.T) {
	type spec struct {
		rows []int32
		exp  [][2]int
	}

	specs := []spec{
		{nil, nil},
		{[]int32{0}, [][2]int{{0, 1}}},
		{[]int32{0, 0, 1, 3, 3, 3}, [][2]int{{0, 2}, {2, 3}, {3, 6}}},
	}

	for index, s := range specs {
		records := make([]raydump.Record, len(s.rows))
		for i, y := range s.rows {
			records[i].Y = y
		}
		out := scanlineRanges(records, nil)
		if len(out) != len(s.exp) {
			t.Fatalf("[spec %d] expected %d ranges; got %d", index, len(s.exp), len(out))
		}
		for i := range out {
			if out[i] != s.exp[i] {
				t.Fatalf("[spec %d] expected range %d to be %v; got %v", index, i, s.exp[i], out[i])
			}
		}
	}
}
