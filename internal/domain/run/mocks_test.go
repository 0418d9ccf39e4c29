package run_test

import (
	"context"
	"errors"

	"docbot/internal/domain/run"
	"docbot/internal/domain/tool"
)

// mockService implements run.Service with per-method function fields so each
// test only wires the calls it expects.
type mockService struct {
	createThreadFn           func(ctx context.Context) (string, error)
	createMessageFn          func(ctx context.Context, threadID, role, text string) error
	createRunFn              func(ctx context.Context, threadID, assistantID string, tools []tool.Spec) (*run.Run, error)
	getRunFn                 func(ctx context.Context, threadID, runID string) (*run.Run, error)
	submitToolOutputsFn      func(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error
	latestAssistantMessageFn func(ctx context.Context, threadID string) (string, error)
}

var errNotWired = errors.New("mock method not wired")

func (m *mockService) CreateThread(ctx context.Context) (string, error) {
	if m.createThreadFn == nil {
		return "", errNotWired
	}
	return m.createThreadFn(ctx)
}

func (m *mockService) CreateMessage(ctx context.Context, threadID, role, text string) error {
	if m.createMessageFn == nil {
		return errNotWired
	}
	return m.createMessageFn(ctx, threadID, role, text)
}

func (m *mockService) CreateRun(ctx context.Context, threadID, assistantID string, tools []tool.Spec) (*run.Run, error) {
	if m.createRunFn == nil {
		return nil, errNotWired
	}
	return m.createRunFn(ctx, threadID, assistantID, tools)
}

func (m *mockService) GetRun(ctx context.Context, threadID, runID string) (*run.Run, error) {
	if m.getRunFn == nil {
		return nil, errNotWired
	}
	return m.getRunFn(ctx, threadID, runID)
}

func (m *mockService) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error {
	if m.submitToolOutputsFn == nil {
		return errNotWired
	}
	return m.submitToolOutputsFn(ctx, threadID, runID, outputs)
}

func (m *mockService) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	if m.latestAssistantMessageFn == nil {
		return "", errNotWired
	}
	return m.latestAssistantMessageFn(ctx, threadID)
}

var _ run.Service = (*mockService)(nil)

// fastPolicy keeps test polling effectively instant.
func fastPolicy() run.PollPolicy {
	return run.PollPolicy{InitialDelay: 1, MaxDelay: 2, MaxAttempts: 20}
}
