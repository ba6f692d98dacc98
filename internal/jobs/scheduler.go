// Package jobs runs fire-and-forget tasks on a fixed pool of goroutines.
package jobs

import (
	"runtime"
	"sync"
)

// Scheduler is a FIFO task queue drained by a fixed set of workers. A single
// mutex and condition variable guard the queue. There is no priority, no work
// stealing and no result channel; tasks report back through their own
// side effects.
type Scheduler struct {
	name    string
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	running bool

	wg sync.WaitGroup
}

// New starts a scheduler with the given number of workers. Values below one
// start a single worker.
func New(name string, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{
		name:    name,
		workers: workers,
		running: true,
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.work()
	}
	return s
}

// WorkersFor maps a configured worker count to a pool size; zero means one
// worker per CPU.
func WorkersFor(configured int) int {
	if configured <= 0 {
		return runtime.NumCPU()
	}
	return configured
}

func (s *Scheduler) Name() string {
	return s.name
}

func (s *Scheduler) Workers() int {
	return s.workers
}

// Enqueue appends a task and wakes one worker. It never blocks on task
// execution. Tasks enqueued after Close are dropped.
func (s *Scheduler) Enqueue(task func()) {
	if task == nil {
		return
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, task)
	s.mu.Unlock()
	s.cond.Signal()
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops the workers and waits for them to exit. Tasks still queued are
// discarded; tasks already running finish first.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.pending = nil
	s.mu.Unlock()
	s.cond.Broadcast()
	s.wg.Wait()
}

func (s *Scheduler) work() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for s.running && len(s.pending) == 0 {
			s.cond.Wait()
		}
		if !s.running {
			s.mu.Unlock()
			return
		}
		task := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		task()
	}
}
