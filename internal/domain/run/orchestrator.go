package run

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/domain/tool"
	"docbot/internal/infrastructure/metrics"
)

// Apology is the fixed degraded answer when no recovery path produced text.
const Apology = "Sorry, I wasn't able to answer that right now. Please try again in a moment."

// continueNudge is posted to the thread when a requires_action run yields no
// extractable tool calls at all, so the run does not stall silently.
const continueNudge = "Please continue without tool results."

// salvagedOutput is the placeholder submitted on the secondary extraction
// path for calls the dispatcher could not resolve.
const salvagedOutput = "Error: tool call could not be resolved"

// Outcome is the result of one conversational turn. Text is always set;
// Failed marks the thread as potentially poisoned so the session prepares a
// fresh one for the next turn.
type Outcome struct {
	Text   string
	Failed bool
}

// Orchestrator drives one full conversational turn through the remote
// assistant: create run, poll, dispatch tool calls, fetch the final message,
// and recover when the run fails or stalls. Execute never surfaces an error
// to its caller; every branch degrades to some text.
type Orchestrator struct {
	svc         Service
	assistantID string
	registry    *tool.Registry
	poller      *Poller
	dispatcher  *Dispatcher
	recovery    []RecoveryRule
	log         zerolog.Logger
}

// NewOrchestrator assembles the turn state machine.
func NewOrchestrator(
	svc Service,
	assistantID string,
	registry *tool.Registry,
	poller *Poller,
	dispatcher *Dispatcher,
	recovery []RecoveryRule,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		svc:         svc,
		assistantID: assistantID,
		registry:    registry,
		poller:      poller,
		dispatcher:  dispatcher,
		recovery:    recovery,
		log:         log.With().Str("component", "run-orchestrator").Logger(),
	}
}

// Execute runs one turn against the given thread. lastUserText is the most
// recent user message, used only by the recovery path.
func (o *Orchestrator) Execute(ctx context.Context, threadID, lastUserText string) Outcome {
	start := time.Now()
	defer func() {
		metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	tools := append(o.registry.Specs(), tool.FileSearchSpec())
	r, err := o.svc.CreateRun(ctx, threadID, o.assistantID, tools)
	if err != nil {
		o.log.Error().Err(err).Str("thread_id", threadID).Msg("create run failed")
		return o.degrade(ctx, lastUserText, false)
	}

	log := o.log.With().Str("thread_id", threadID).Str("run_id", r.ID).Logger()
	nudged := false

	for {
		r, err = o.poller.Wait(ctx, threadID, r.ID)
		if err != nil {
			log.Error().Err(err).Msg("polling ended abnormally")
			metrics.RunsTotal.WithLabelValues("poll_error").Inc()
			return o.degrade(ctx, lastUserText, false)
		}

		switch r.Status {
		case StatusRequiresAction:
			submitted, err := o.dispatcher.Dispatch(ctx, threadID, r)
			if err != nil {
				log.Error().Err(err).Msg("tool dispatch failed")
				metrics.RunsTotal.WithLabelValues("dispatch_error").Inc()
				return o.degrade(ctx, lastUserText, false)
			}
			if submitted > 0 {
				continue
			}

			// Anomaly: requires_action with nothing the dispatcher could
			// extract. Try the raw payload the poller already returned, then
			// nudge the thread once before giving up.
			if o.salvage(ctx, threadID, r) {
				log.Warn().Msg("submitted salvaged placeholder outputs")
				continue
			}
			if nudged {
				log.Error().Msg("run stalled in requires_action with no tool calls")
				metrics.RunsTotal.WithLabelValues("stalled").Inc()
				return o.degrade(ctx, lastUserText, false)
			}
			if err := o.svc.CreateMessage(ctx, threadID, "user", continueNudge); err != nil {
				log.Error().Err(err).Msg("posting continuation nudge failed")
				return o.degrade(ctx, lastUserText, false)
			}
			metrics.FallbacksTotal.WithLabelValues("nudge").Inc()
			nudged = true

		case StatusCompleted:
			text, err := o.svc.LatestAssistantMessage(ctx, threadID)
			if err != nil {
				log.Error().Err(err).Msg("fetching final message failed")
				metrics.RunsTotal.WithLabelValues("fetch_error").Inc()
				return o.degrade(ctx, lastUserText, false)
			}
			metrics.RunsTotal.WithLabelValues(string(StatusCompleted)).Inc()
			return Outcome{Text: text}

		default:
			// failed, cancelled or expired.
			if r.LastError != nil {
				log.Warn().
					Str("status", string(r.Status)).
					Str("code", r.LastError.Code).
					Str("message", r.LastError.Message).
					Msg("run ended in failure state")
			} else {
				log.Warn().Str("status", string(r.Status)).Msg("run ended in failure state")
			}
			metrics.RunsTotal.WithLabelValues(string(r.Status)).Inc()
			return o.degrade(ctx, lastUserText, true)
		}
	}
}

// salvage is the defensive secondary extraction path: it reads tool calls
// straight off the raw required-action payload and submits placeholder
// outputs so the count invariant still holds.
func (o *Orchestrator) salvage(ctx context.Context, threadID string, r *Run) bool {
	calls := r.ToolCalls()
	if len(calls) == 0 {
		return false
	}

	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, ToolOutput{ToolCallID: call.ID, Output: salvagedOutput})
	}
	if err := o.svc.SubmitToolOutputs(ctx, threadID, r.ID, outputs); err != nil {
		o.log.Error().Err(err).Str("run_id", r.ID).Msg("salvage submission failed")
		return false
	}
	metrics.FallbacksTotal.WithLabelValues("salvage").Inc()
	return true
}

// degrade produces the turn's substitute answer. Direct tool recovery is
// attempted only for runs that ended in a remote failure state; transport
// errors go straight to the apology.
func (o *Orchestrator) degrade(ctx context.Context, lastUserText string, runFailure bool) Outcome {
	if runFailure {
		if text, ok := o.recoverDirect(ctx, lastUserText); ok {
			metrics.FallbacksTotal.WithLabelValues("direct_tool").Inc()
			return Outcome{Text: text, Failed: true}
		}
	}
	metrics.FallbacksTotal.WithLabelValues("apology").Inc()
	return Outcome{Text: Apology, Failed: true}
}
