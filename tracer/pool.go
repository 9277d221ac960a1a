package tracer

import (
	"runtime"
	"sync"
)

type task struct {
	partition int
	fn        func(partition int)
	wg        *sync.WaitGroup
}

// A Pool runs partitioned work on a fixed set of worker goroutines.
type Pool struct {
	taskQueue  chan task
	numWorkers int
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// Create a pool with the specified number of workers. A non-positive
// value selects one worker per CPU.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	p := &Pool{
		taskQueue:  make(chan task, numWorkers),
		numWorkers: numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.taskQueue {
		t.fn(t.partition)
		t.wg.Done()
	}
}

// Get the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Invoke fn once for each partition in [0, numPartitions) and block until
// all invocations return. Run must not be called from inside a task.
func (p *Pool) Run(numPartitions int, fn func(partition int)) {
	var wg sync.WaitGroup
	wg.Add(numPartitions)
	for partition := 0; partition < numPartitions; partition++ {
		p.taskQueue <- task{partition: partition, fn: fn, wg: &wg}
	}
	wg.Wait()
}

// Split the index range [0, count) into the requested number of contiguous
// partitions and invoke fn for each non-empty sub range in parallel.
func (p *Pool) RunRange(count, numPartitions int, fn func(from, to int)) {
	if count <= 0 {
		return
	}
	if numPartitions <= 0 || numPartitions > count {
		numPartitions = count
	}

	chunk := (count + numPartitions - 1) / numPartitions
	p.Run(numPartitions, func(partition int) {
		from := partition * chunk
		to := from + chunk
		if to > count {
			to = count
		}
		if from < to {
			fn(from, to)
		}
	})
}

// Shutdown the workers.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.taskQueue)
		p.wg.Wait()
	})
}
