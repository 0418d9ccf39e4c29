// Package run implements the client-side protocol that drives one assistant
// run to completion: polling with backoff, tool-call dispatch, output
// submission and fallback recovery.
package run

import (
	"context"

	"docbot/internal/domain/tool"
)

// Status is the remote run status.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
)

// IsPending reports whether the run is still being processed remotely.
func (s Status) IsPending() bool {
	return s == StatusQueued || s == StatusInProgress
}

// IsTerminal reports whether the run reached a final state. No polling
// happens past a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Run is one assistant execution attempt. Identity never changes; only the
// remote service moves the status.
type Run struct {
	ID             string          `json:"id"`
	Status         Status          `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
}

// RequiredAction carries the tool calls the assistant is blocked on.
type RequiredAction struct {
	Type              string             `json:"type"`
	SubmitToolOutputs *SubmitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

// SubmitToolOutputs lists the pending tool calls of a requires_action run.
type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ToolCall is one pending invocation request emitted by the assistant.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the requested function and carries its raw JSON
// arguments. Arguments may be malformed and are handled defensively.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RunError is the remote failure detail attached to failed runs.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolCalls extracts the ordered tool calls from the required-action
// payload. Missing or malformed payloads yield nil.
func (r *Run) ToolCalls() []ToolCall {
	if r == nil || r.RequiredAction == nil || r.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// ToolOutput is the result submitted for one tool call, correlated by id.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Service is the remote assistant run API the protocol is driven against.
// Failures are signalled as errors wrapping the non-2xx response.
type Service interface {
	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, text string) error
	CreateRun(ctx context.Context, threadID, assistantID string, tools []tool.Spec) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error
	LatestAssistantMessage(ctx context.Context, threadID string) (string, error)
}
