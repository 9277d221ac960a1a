package tracer

import "time"

type UpdateType uint8

const (
	// Replace the kernel used for rendering rows.
	UpdateKernel UpdateType = iota
)

// A Kernel renders individual frame rows. Implementations must be safe for
// concurrent use on distinct rows.
type Kernel interface {
	RenderRow(y uint32, seed uint32) error
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// A seed value for the tracer's random number generators. Each row
	// derives its own seed from it.
	Seed uint32

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block.
	RenderTime time.Duration

	// The time for applying pending updates.
	UpdateTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracer's relative computation speed estimate.
	Speed() uint32

	// Initialize tracer and start its worker.
	Init() error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Queue an update; it is applied before the next block is processed.
	Update(UpdateType, interface{})

	// Retrieve last frame statistics.
	Stats() *Stats
}
