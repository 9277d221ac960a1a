package recon

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the quantity reconstructed by the filter.
type Mode uint8

const (
	// Indirect illumination gathered over the hemisphere of each primary hit.
	Illumination Mode = iota

	// Binary occlusion within a fixed distance.
	AmbientOcclusion

	// Keep only the highest weight sample of a surface. Used for glossy
	// reflections and externally supplied rays.
	NearestSample

	// Primary visibility through a thin-lens camera with motion blur.
	DefocusMotion
)

var modeNames = map[Mode]string{
	Illumination:     "illumination",
	AmbientOcclusion: "ao",
	NearestSample:    "nearest",
	DefocusMotion:    "defocus",
}

var ErrUnknownMode = errors.New("recon: unknown reconstruction mode")

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Parse a mode name.
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Tuned constants.
const (
	// Directional support threshold schedule of the density search.
	densityThresholdStart float32 = 1.0
	densityThresholdDecay float32 = 0.75
	densityMaxAttempts            = 16

	// A search attempt is abandoned after inspecting this many samples per
	// requested neighbor.
	densityBudgetFactor = 64

	// Scale applied to the along-normal component of neighbor offsets.
	DefaultAnisotropy float32 = 4.0

	// Radius of samples without any neighbor relative to the scene diagonal.
	isolatedRadiusScale float32 = 0.01

	// Ray epsilon relative to the scene diagonal.
	rayEpsilonScale float32 = 1e-4

	// Cosine sign tolerance of the segmentation orientation tests.
	segmentEpsilon float32 = 0.01

	// Runs with fewer candidates are candidates for small-surface merging.
	smallSurfaceThreshold = 3

	// Projected splat centers are bloated into disks of this fraction of the
	// splat radius when building the small-surface hull.
	hullBloat float32 = 0.5

	// Points used to approximate a projected disk.
	hullDiskPoints = 8

	DefaultK1 = 16
	DefaultK2 = 8
)

// Reconstruction settings.
type Config struct {
	Mode Mode

	// Neighbor count of the density search and the neighbor rank used as
	// the splat radius.
	K1 int
	K2 int

	Anisotropy float32

	// Use the sample bandwidth for neighbor rejection and weighting.
	BandwidthFilter bool

	// Occlusion distance in AmbientOcclusion mode.
	AOLength float32

	// Merge short surface runs into the following run.
	SmallSurfaceMerge bool

	// Skip the occlusion shrinking pass.
	NoShrink bool

	// Reconstruction rays per primary hit.
	RaysPerHit int

	// Add the direct lighting channel to the reconstructed color.
	AddDirect bool

	// Interpolate hit points and bounds over time.
	Motion bool

	// Base seed; each scanline uses Seed ^ y.
	Seed uint32
}

// Get a configuration populated with defaults.
func DefaultConfig() Config {
	return Config{
		Mode:       Illumination,
		K1:         DefaultK1,
		K2:         DefaultK2,
		Anisotropy: DefaultAnisotropy,
		RaysPerHit: 16,
		Seed:       1,
	}
}

var (
	ErrInvalidNeighborCount = errors.New("recon: K2 must be in [1, K1]")
	ErrInvalidRayCount      = errors.New("recon: rays per hit must be positive")
	ErrInvalidAnisotropy    = errors.New("recon: anisotropy must be >= 1")
	ErrInvalidAOLength      = errors.New("recon: ambient occlusion requires a positive AO length")
)

// Validate the configuration and fill unset values with defaults.
func (c *Config) Validate() error {
	if c.K1 == 0 {
		c.K1 = DefaultK1
	}
	if c.K2 == 0 {
		c.K2 = DefaultK2
		if c.K2 > c.K1 {
			c.K2 = c.K1
		}
	}
	if c.Anisotropy == 0 {
		c.Anisotropy = DefaultAnisotropy
	}

	switch {
	case c.K1 < 1 || c.K2 < 1 || c.K2 > c.K1:
		return ErrInvalidNeighborCount
	case c.RaysPerHit < 1:
		return ErrInvalidRayCount
	case c.Anisotropy < 1:
		return ErrInvalidAnisotropy
	case c.Mode == AmbientOcclusion && c.AOLength <= 0:
		return ErrInvalidAOLength
	}
	return nil
}
