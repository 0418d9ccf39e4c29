package run

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/domain/tool"
	"docbot/internal/infrastructure/metrics"
)

// Dispatcher converts a requires_action run into a complete set of tool
// outputs and submits them. Exactly one output is produced per requested
// call: unknown functions, empty arguments and invocation errors all become
// textual error outputs so the batch count always matches.
type Dispatcher struct {
	svc      Service
	registry *tool.Registry
	timeout  time.Duration
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher over the registry and run service.
func NewDispatcher(svc Service, registry *tool.Registry, toolTimeout time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		svc:      svc,
		registry: registry,
		timeout:  toolTimeout,
		log:      log.With().Str("component", "tool-dispatcher").Logger(),
	}
}

// Dispatch refreshes the run, executes every requested tool call in order
// and submits the full output batch in one call. It returns the number of
// outputs submitted. A zero return with nil error means the required-action
// payload carried no extractable calls; the orchestrator handles that
// anomaly.
func (d *Dispatcher) Dispatch(ctx context.Context, threadID string, r *Run) (int, error) {
	detail, err := d.svc.GetRun(ctx, threadID, r.ID)
	if err != nil {
		return 0, fmt.Errorf("refresh run %s: %w", r.ID, err)
	}

	calls := detail.ToolCalls()
	if len(calls) == 0 {
		d.log.Warn().Str("run_id", r.ID).Msg("requires_action run carries no tool calls")
		return 0, nil
	}

	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, d.execute(ctx, call))
	}

	if err := d.svc.SubmitToolOutputs(ctx, threadID, r.ID, outputs); err != nil {
		return 0, fmt.Errorf("submit %d tool outputs for run %s: %w", len(outputs), r.ID, err)
	}

	d.log.Info().
		Str("run_id", r.ID).
		Int("outputs", len(outputs)).
		Msg("tool outputs submitted")
	return len(outputs), nil
}

// execute runs one tool call. Errors never escape; they are folded into the
// output text so the run can progress.
func (d *Dispatcher) execute(ctx context.Context, call ToolCall) ToolOutput {
	name := call.Function.Name

	def, ok := d.registry.Find(name)
	if !ok {
		d.log.Warn().Str("tool_name", name).Str("call_id", call.ID).Msg("unknown function requested")
		metrics.ToolCallsTotal.WithLabelValues(name, "not_found").Inc()
		return ToolOutput{
			ToolCallID: call.ID,
			Output:     fmt.Sprintf("Error: function %s is not registered", name),
		}
	}

	if strings.TrimSpace(call.Function.Arguments) == "" {
		d.log.Warn().Str("tool_name", name).Str("call_id", call.ID).Msg("tool call without arguments")
		metrics.ToolCallsTotal.WithLabelValues(name, "bad_arguments").Inc()
		return ToolOutput{
			ToolCallID: call.ID,
			Output:     fmt.Sprintf("Error: no arguments provided for function %s", name),
		}
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if d.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	start := time.Now()
	out, err := def.Invoke(callCtx, json.RawMessage(call.Function.Arguments))
	if cancel != nil {
		cancel()
	}
	metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		d.log.Warn().Err(err).Str("tool_name", name).Str("call_id", call.ID).Msg("tool invocation failed")
		metrics.ToolCallsTotal.WithLabelValues(name, "error").Inc()
		return ToolOutput{
			ToolCallID: call.ID,
			Output:     fmt.Sprintf("Error executing function %s: %s", name, err.Error()),
		}
	}

	metrics.ToolCallsTotal.WithLabelValues(name, "ok").Inc()
	return ToolOutput{ToolCallID: call.ID, Output: out}
}
