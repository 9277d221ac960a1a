package cpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/achilleasa/lightfield/log"
	"github.com/achilleasa/lightfield/tracer"
)

var (
	ErrNoKernel          = errors.New("cpu tracer: no kernel defined")
	ErrUnsupportedUpdate = errors.New("cpu tracer: unsupported update type")
)

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// The pool used for processing block rows in parallel.
	pool       *tracer.Pool
	numWorkers int

	// A buffer for queuing updates. Latest updates always overwrite the
	// previous ones.
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *tracer.Stats

	kernel tracer.Kernel
}

// Create a new cpu tracer that renders rows using numWorkers goroutines.
func NewTracer(id string, numWorkers int) tracer.Tracer {
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		numWorkers:   numWorkers,
		blockReqChan: make(chan tracer.BlockRequest, 1),
		updateBuffer: make(map[tracer.UpdateType]interface{}),
		stats:        &tracer.Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// The speed estimate of a cpu tracer is its worker count.
func (tr *cpuTracer) Speed() uint32 {
	if tr.pool != nil {
		return uint32(tr.pool.NumWorkers())
	}
	return uint32(tr.numWorkers)
}

// Initialize tracer.
func (tr *cpuTracer) Init() error {
	tr.Lock()
	defer tr.Unlock()

	if tr.pool == nil {
		tr.pool = tracer.NewPool(tr.numWorkers)
	}

	// Start worker
	if tr.closeChan == nil {
		tr.startWorker()
	}

	tr.logger.Infof("initialized with %d workers", tr.pool.NumWorkers())
	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
		tr.wg.Wait()
	}

	if tr.pool != nil {
		tr.pool.Close()
		tr.pool = nil
	}
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq tracer.BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- fmt.Errorf("cpu tracer (%s): block request dropped", tr.id)
	}
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) Update(updateType tracer.UpdateType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()
	tr.updateBuffer[updateType] = data
}

// Retrieve last frame statistics.
func (tr *cpuTracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes.
func (tr *cpuTracer) commitUpdates() error {
	tr.Lock()
	defer tr.Unlock()

	for updateType, data := range tr.updateBuffer {
		switch updateType {
		case tracer.UpdateKernel:
			kernel, ok := data.(tracer.Kernel)
			if !ok {
				return ErrNoKernel
			}
			tr.kernel = kernel
		default:
			return ErrUnsupportedUpdate
		}
	}

	tr.updateBuffer = make(map[tracer.UpdateType]interface{})
	return nil
}

// Spawn a go-routine to process block render requests.
func (tr *cpuTracer) startWorker() {
	tr.closeChan = make(chan struct{})

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq tracer.BlockRequest
		var startTime time.Time
		var err error
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				// Apply any pending changes
				startTime = time.Now()
				if err = tr.commitUpdates(); err != nil {
					blockReq.ErrChan <- err
					continue
				}
				tr.stats.UpdateTime = time.Since(startTime)

				// Render block and reply with our completion status
				startTime = time.Now()
				if err = tr.renderBlock(&blockReq); err != nil {
					blockReq.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.RenderTime = time.Since(startTime)

				blockReq.DoneChan <- blockReq.BlockH
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Render the block rows in parallel. The first row error is reported.
func (tr *cpuTracer) renderBlock(blockReq *tracer.BlockRequest) error {
	if tr.kernel == nil {
		return ErrNoKernel
	}

	var (
		errMutex sync.Mutex
		firstErr error
	)
	tr.pool.Run(int(blockReq.BlockH), func(row int) {
		if err := tr.kernel.RenderRow(blockReq.BlockY+uint32(row), blockReq.Seed); err != nil {
			errMutex.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMutex.Unlock()
		}
	})

	return firstErr
}
