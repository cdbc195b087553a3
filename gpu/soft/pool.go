package soft

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum texel count to rasterize in parallel.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 4096

// rowChunk is a band of rows [start, end) for one worker.
type rowChunk struct {
	start, end int
	fn         func(y0, y1 int)
}

// pool is a persistent set of rasterizer workers. Each Draw fans rows out
// to the workers and waits for every band, so a draw is complete when run
// returns.
type pool struct {
	numWorkers int

	workChan chan rowChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newPool(workers int) *pool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{numWorkers: workers}
}

// start launches the worker goroutines.
func (p *pool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *pool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run calls fn over rows [0, rows) split into bands. width is used only to
// decide whether the draw is large enough to parallelize.
func (p *pool) run(rows, width int, fn func(y0, y1 int)) {
	if p.numWorkers == 1 || rows*width < parallelThreshold {
		fn(0, rows)
		return
	}
	if !p.running {
		p.start()
	}

	chunkSize := (rows + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, rows)
		if start >= end {
			continue
		}
		p.workChan <- rowChunk{start: start, end: end, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
