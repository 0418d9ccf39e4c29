package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/infrastructure/metrics"
	"docbot/internal/interfaces/chat"
)

// Handler processes one chat event to completion.
type Handler interface {
	HandleEvent(ctx context.Context, ev chat.Event) error
}

// Worker drains its own event queue so events sharing a queue are processed
// strictly in order.
type Worker struct {
	id           int
	events       chan chat.Event
	handler      Handler
	eventTimeout time.Duration
	log          zerolog.Logger
}

// NewWorker creates a worker with a bounded queue.
func NewWorker(id, queueSize int, handler Handler, eventTimeout time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		id:           id,
		events:       make(chan chat.Event, queueSize),
		handler:      handler,
		eventTimeout: eventTimeout,
		log:          log.With().Int("worker_id", id).Str("component", "worker").Logger(),
	}
}

// Start begins processing events until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.log.Info().Msg("worker stopped by context")
			return
		case ev, ok := <-w.events:
			if !ok {
				w.log.Info().Msg("worker queue closed")
				return
			}
			metrics.ChatQueueDepth.Dec()
			w.process(ctx, ev)
		}
	}
}

// drain empties whatever is still buffered after cancellation so the queue
// depth gauge settles back to zero. The events are dropped, not processed; a
// cancelled context cannot complete a turn.
func (w *Worker) drain() {
	for {
		select {
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			metrics.ChatQueueDepth.Dec()
			metrics.ChatEventsTotal.WithLabelValues("dropped").Inc()
			w.log.Warn().Str("channel", ev.Channel).Msg("dropping queued event at shutdown")
		default:
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, ev chat.Event) {
	evCtx := ctx
	var cancel context.CancelFunc
	if w.eventTimeout > 0 {
		evCtx, cancel = context.WithTimeout(ctx, w.eventTimeout)
		defer cancel()
	}

	w.log.Info().Str("channel", ev.Channel).Str("user_id", ev.UserID).Msg("processing chat event")

	if err := w.handler.HandleEvent(evCtx, ev); err != nil {
		w.log.Error().Err(err).Str("channel", ev.Channel).Msg("chat event failed")
		metrics.ChatEventsTotal.WithLabelValues("error").Inc()
		return
	}

	metrics.ChatEventsTotal.WithLabelValues("ok").Inc()
}
