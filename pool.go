package decs

import "sync"

// workerPool runs the systems of a stage on a fixed set of goroutines.
type workerPool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

func newWorkerPool(workers int) *workerPool {
	p := &workerPool{
		jobs: make(chan func(), workers*4),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// worker is a pool worker that executes jobs.
func (p *workerPool) worker() {
	defer p.wg.Done()
	for fn := range p.jobs {
		fn()
	}
}

// submit queues job, reporting false if the queue is full. The caller then
// runs the job inline.
func (p *workerPool) submit(job func()) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// stop drains the queue and waits for every worker to exit.
func (p *workerPool) stop() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}
