package sample

import (
	"sync"
	"testing"

	"github.com/achilleasa/lightfield/asset/samplebuf"
	"github.com/achilleasa/lightfield/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitPointFollowsMotion(t *testing.T) {
	s := Sample{
		T:      0.5,
		Hit:    types.XYZ(1, 2, 3),
		Motion: types.XYZ(2, 0, 0),
		Normal: types.XYZ(0, 0, 1),
	}

	assert.Equal(t, types.XYZ(0, 2, 3), s.HitPoint(0))
	assert.Equal(t, types.XYZ(2, 2, 3), s.HitPoint(1))

	plane := s.TangentPlane(0.5)
	assert.Equal(t, types.XYZW(0, 0, 1, -3), plane)
}

func TestShrinkRadiusIsMonotonic(t *testing.T) {
	var s Sample
	s.SetRadius(1)

	assert.False(t, s.ShrinkRadius(2))
	assert.Equal(t, float32(1), s.Radius())
	assert.True(t, s.ShrinkRadius(0.25))
	assert.Equal(t, float32(0.25), s.Radius())

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(r float32) {
			defer wg.Done()
			s.ShrinkRadius(r)
		}(0.2 - float32(i)*0.001)
	}
	wg.Wait()

	assert.InDelta(t, 0.2-63*0.001, s.Radius(), 1e-6)
}

func TestSplatExtent(t *testing.T) {
	s := Sample{Normal: types.XYZ(0, 0, 1)}
	s.SetRadius(2)
	assert.Equal(t, types.XYZ(2, 2, 0), s.SplatExtent())
}

func TestIngestFiltersMissedRays(t *testing.T) {
	buf := samplebuf.New(2, 1, 2,
		samplebuf.SecondaryOrigin, samplebuf.SecondaryHit, samplebuf.SecondaryNormal, samplebuf.PrimaryNormal,
	)
	origin, _ := buf.ChannelIndex(samplebuf.SecondaryOrigin)
	hit, _ := buf.ChannelIndex(samplebuf.SecondaryHit)
	normal, _ := buf.ChannelIndex(samplebuf.SecondaryNormal)
	priNormal, _ := buf.ChannelIndex(samplebuf.PrimaryNormal)

	for index := 0; index < buf.Len(); index++ {
		buf.Channels[origin][index] = types.XYZ(float32(index), 0, 0)
		buf.Channels[hit][index] = types.XYZ(float32(index), 1, 0)
		buf.Channels[normal][index] = types.XYZ(0, -2, 0)
		buf.Channels[priNormal][index] = types.XYZ(0, 1, 0)
	}
	// Secondary ray miss; the primary hit survives.
	buf.Channels[hit][1] = types.XYZ(2e10, 2e10, 2e10)
	// Primary ray miss.
	buf.Channels[origin][3] = types.XYZ(2e10, 2e10, 2e10)

	st, err := Ingest(buf, IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, st.Len())
	assert.Equal(t, int32(0), st.Samples[0].Index)
	assert.Equal(t, int32(2), st.Samples[1].Index)
	assert.Equal(t, types.XYZ(0, -1, 0), st.Samples[0].Normal)
	assert.Len(t, st.PixelHits(0, 0), 2)
	assert.Len(t, st.PixelHits(1, 0), 1)
}

func TestIngestRequiresChannels(t *testing.T) {
	buf := samplebuf.New(1, 1, 1, samplebuf.SecondaryOrigin)
	_, err := Ingest(buf, IngestOptions{})
	assert.ErrorIs(t, err, samplebuf.ErrMissingChannel)
}

func TestIngestSynthScene(t *testing.T) {
	opts := samplebuf.DefaultSynthOptions()
	opts.Motion = types.XYZ(0.1, 0, 0)
	buf := samplebuf.FloorUnderCeiling(opts)

	static, err := Ingest(buf, IngestOptions{})
	require.NoError(t, err)
	for i := range static.Samples {
		require.Equal(t, types.Vec3{}, static.Samples[i].Motion)
	}

	moving, err := Ingest(buf, IngestOptions{Motion: true})
	require.NoError(t, err)
	assert.Equal(t, opts.Motion, moving.Samples[0].Motion)
	assert.Greater(t, moving.Diagonal(), float32(0))
}

func TestIngestDerivesMissingPrimaryNormal(t *testing.T) {
	buf := samplebuf.New(2, 1, 1, samplebuf.SecondaryOrigin, samplebuf.SecondaryHit, samplebuf.SecondaryNormal)
	origin, _ := buf.ChannelIndex(samplebuf.SecondaryOrigin)
	hit, _ := buf.ChannelIndex(samplebuf.SecondaryHit)
	normal, _ := buf.ChannelIndex(samplebuf.SecondaryNormal)

	buf.Channels[origin][0] = types.XYZ(0, 0, 0)
	buf.Channels[hit][0] = types.XYZ(0, 2, 0)
	buf.Channels[normal][0] = types.XYZ(0, -1, 0)

	// Secondary miss; without a primary normal the hit has no hemisphere.
	buf.Channels[origin][1] = types.XYZ(1, 0, 0)
	buf.Channels[hit][1] = types.XYZ(2e10, 2e10, 2e10)

	st, err := Ingest(buf, IngestOptions{})
	require.NoError(t, err)

	hits := st.PixelHits(0, 0)
	require.Len(t, hits, 1)
	assert.Equal(t, types.XYZ(0, 1, 0), hits[0].Normal)
	assert.Equal(t, types.XYZ(0, 1, 0), st.Samples[0].PrimaryNormal)
	assert.Empty(t, st.PixelHits(1, 0))
}
