package worker

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultSize        = 4
	DefaultIdleTimeout = 30 * time.Second
	defaultQueueDepth  = 256
)

// Pool runs persistence tasks off the tick loop on a bounded set of
// goroutines. Workers are spawned on demand up to the configured size
// and exit after sitting idle for the idle timeout.
type Pool struct {
	tasks       chan func()
	size        int
	idleTimeout time.Duration

	mu      sync.Mutex
	workers int

	pending atomic.Int64
}

type PoolOpt func(*Pool)

func WithSize(n int) PoolOpt {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

func WithIdleTimeout(d time.Duration) PoolOpt {
	return func(p *Pool) {
		if d > 0 {
			p.idleTimeout = d
		}
	}
}

func NewPool(opts ...PoolOpt) *Pool {
	p := &Pool{
		tasks:       make(chan func(), defaultQueueDepth),
		size:        DefaultSize,
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit queues a task, spawning a worker when none are free. It
// blocks only when the queue is full and the pool is at its size
// limit.
func (p *Pool) Submit(task func()) {
	p.pending.Add(1)

	wrapped := func() {
		defer p.pending.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("persistence task panicked", "panic", r)
			}
		}()
		task()
	}

	// Enqueue before the spawn decision. An idle worker deciding to
	// exit re-checks the queue under the same lock ensureWorker takes,
	// so the task is seen either by that worker or by a fresh one.
	p.tasks <- wrapped
	p.ensureWorker()
}

// Pending returns the number of tasks queued or running. The
// migrator's drain loop polls this down to zero.
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

func (p *Pool) ensureWorker() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A worker is spawned whenever there is still queued work and
	// capacity; an idle worker may win the race for the task, and the
	// extra one simply times out.
	if p.workers >= p.size {
		return
	}
	if p.workers > 0 && len(p.tasks) == 0 {
		return
	}

	p.workers++
	go p.run()
}

func (p *Pool) run() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case task := <-p.tasks:
			task()
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(p.idleTimeout)
		case <-idle.C:
			p.mu.Lock()
			if len(p.tasks) > 0 {
				// A task landed between the timer firing and the
				// exit decision; stay alive to run it.
				p.mu.Unlock()
				idle.Reset(p.idleTimeout)
				continue
			}
			p.workers--
			p.mu.Unlock()
			return
		}
	}
}
