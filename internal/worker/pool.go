package worker

import (
	"sync"

	"github.com/ecotrade/ecotrade-backend/internal/metrics"
)

type task func()

// Pool runs background tasks (notification dispatch) on a fixed number of
// goroutines. Ledger and wallet writes never go through here; anything that
// must be atomic with a request stays on the request path.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan task
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan task, 1024)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
				metrics.WorkerQueueDepth.Dec()
			}
		}()
	}
	return p
}

func (p *Pool) Submit(f task) {
	metrics.WorkerQueueDepth.Inc()
	p.jobs <- f
}

func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
