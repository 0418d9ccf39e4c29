package run

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/infrastructure/metrics"
)

// ErrPollTimeout is returned when a run stays pending past the attempt
// ceiling. Fatal for the turn; not retried.
var ErrPollTimeout = errors.New("run polling exceeded attempt ceiling")

// PollPolicy controls the backoff between status polls.
type PollPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultPollPolicy returns the production polling policy: 1s initial delay
// doubling up to 5s, at most 100 polls.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		MaxAttempts:  100,
	}
}

// DelayFor calculates the delay after the given zero-based pending poll.
func (p PollPolicy) DelayFor(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(2, float64(attempt)))
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return delay
}

// Poller blocks until a run leaves the pending states. It does not
// distinguish transient from permanent fetch failures; any fetch error ends
// the wait.
type Poller struct {
	svc    Service
	policy PollPolicy
	log    zerolog.Logger
}

// NewPoller creates a poller over the given run service.
func NewPoller(svc Service, policy PollPolicy, log zerolog.Logger) *Poller {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPollPolicy()
	}
	return &Poller{
		svc:    svc,
		policy: policy,
		log:    log.With().Str("component", "run-poller").Logger(),
	}
}

// Wait polls the run until it reaches a non-pending status and returns it.
// The wait suspends cooperatively between polls and honours ctx.
func (p *Poller) Wait(ctx context.Context, threadID, runID string) (*Run, error) {
	for attempt := 0; attempt < p.policy.MaxAttempts; attempt++ {
		r, err := p.svc.GetRun(ctx, threadID, runID)
		if err != nil {
			return nil, fmt.Errorf("fetch run %s: %w", runID, err)
		}
		metrics.RunPollsTotal.Inc()

		if !r.Status.IsPending() {
			p.log.Debug().
				Str("run_id", runID).
				Str("status", string(r.Status)).
				Int("polls", attempt+1).
				Msg("run left pending state")
			return r, nil
		}

		delay := p.policy.DelayFor(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	p.log.Error().Str("run_id", runID).Int("attempts", p.policy.MaxAttempts).Msg("run never left pending state")
	return nil, ErrPollTimeout
}
