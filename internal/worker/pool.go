// Package worker processes inbound chat events on a fixed pool. Events are
// routed to workers by conversation key, so one conversation never runs two
// turns concurrently while distinct conversations proceed in parallel.
package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/infrastructure/metrics"
	"docbot/internal/interfaces/chat"
)

// Config contains worker pool configuration.
type Config struct {
	WorkerCount  int
	QueueSize    int
	EventTimeout time.Duration
}

// Pool manages the chat event workers.
type Pool struct {
	workers []*Worker
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a worker pool over the given handler.
func NewPool(handler Handler, cfg Config, log zerolog.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	p := &Pool{
		log: log.With().Str("component", "worker-pool").Logger(),
	}
	p.workers = make([]*Worker, cfg.WorkerCount)
	for i := range p.workers {
		p.workers[i] = NewWorker(i+1, cfg.QueueSize, handler, cfg.EventTimeout, log)
	}
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", len(p.workers)).Msg("starting worker pool")

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(w)
	}
}

// Enqueue routes an event to the worker owning its conversation key. It
// fails when the worker's queue is full or the pool is stopped, so callers
// can signal backpressure instead of blocking.
func (p *Pool) Enqueue(ev chat.Event) error {
	// The send happens under the same lock Stop takes before closing the
	// queues, so a send can never race the close.
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return fmt.Errorf("worker pool is stopped")
	}

	w := p.workers[p.workerIndex(chat.Key(ev))]
	select {
	case w.events <- ev:
		metrics.ChatQueueDepth.Inc()
		return nil
	default:
		metrics.ChatEventsTotal.WithLabelValues("dropped").Inc()
		return fmt.Errorf("event queue full for worker %d", w.id)
	}
}

// Stop closes the queues and waits for in-flight events to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.log.Info().Msg("stopping worker pool")
	for _, w := range p.workers {
		close(w.events)
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}

func (p *Pool) workerIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.workers)))
}
