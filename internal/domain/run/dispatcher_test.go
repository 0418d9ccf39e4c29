package run_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"docbot/internal/domain/run"
	"docbot/internal/domain/tool"
)

func testRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	registry := tool.NewRegistry(zerolog.Nop())
	registry.Register(tool.Definition{
		Name:        "echo",
		Description: "echoes its input",
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return "echo: " + in.Text, nil
		},
	})
	registry.Register(tool.Definition{
		Name:        "always_fails",
		Description: "fails on every invocation",
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", errors.New("backend unavailable")
		},
	})
	return registry
}

func requiresActionRun(id string, calls ...run.ToolCall) *run.Run {
	return &run.Run{
		ID:     id,
		Status: run.StatusRequiresAction,
		RequiredAction: &run.RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: &run.SubmitToolOutputs{ToolCalls: calls},
		},
	}
}

func functionCall(id, name, args string) run.ToolCall {
	return run.ToolCall{ID: id, Type: "function", Function: run.FunctionCall{Name: name, Arguments: args}}
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("produces exactly one output per call", func(t *testing.T) {
		detail := requiresActionRun("run_1",
			functionCall("call_1", "echo", `{"text":"hello"}`),
			functionCall("call_2", "no_such_tool", `{"x":1}`),
			functionCall("call_3", "echo", "  "),
			functionCall("call_4", "always_fails", `{"x":1}`),
		)

		var submitted []run.ToolOutput
		svc := &mockService{
			getRunFn: func(ctx context.Context, threadID, runID string) (*run.Run, error) {
				return detail, nil
			},
			submitToolOutputsFn: func(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error {
				submitted = outputs
				return nil
			},
		}

		d := run.NewDispatcher(svc, testRegistry(t), time.Second, zerolog.Nop())
		n, err := d.Dispatch(context.Background(), "th_1", &run.Run{ID: "run_1", Status: run.StatusRequiresAction})
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if n != 4 {
			t.Fatalf("Dispatch() = %d outputs, want 4", n)
		}
		if len(submitted) != 4 {
			t.Fatalf("submitted %d outputs, want 4", len(submitted))
		}

		wants := []struct {
			callID   string
			contains string
		}{
			{"call_1", "echo: hello"},
			{"call_2", "Error: function no_such_tool is not registered"},
			{"call_3", "Error: no arguments provided for function echo"},
			{"call_4", "Error executing function always_fails: backend unavailable"},
		}
		for i, want := range wants {
			if submitted[i].ToolCallID != want.callID {
				t.Errorf("output[%d].ToolCallID = %s, want %s", i, submitted[i].ToolCallID, want.callID)
			}
			if !strings.Contains(submitted[i].Output, want.contains) {
				t.Errorf("output[%d] = %q, want it to contain %q", i, submitted[i].Output, want.contains)
			}
		}
	})

	t.Run("payload without tool calls submits nothing", func(t *testing.T) {
		submitCalled := false
		svc := &mockService{
			getRunFn: func(ctx context.Context, threadID, runID string) (*run.Run, error) {
				return &run.Run{ID: runID, Status: run.StatusRequiresAction}, nil
			},
			submitToolOutputsFn: func(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error {
				submitCalled = true
				return nil
			},
		}

		d := run.NewDispatcher(svc, testRegistry(t), time.Second, zerolog.Nop())
		n, err := d.Dispatch(context.Background(), "th_1", &run.Run{ID: "run_1", Status: run.StatusRequiresAction})
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if n != 0 {
			t.Errorf("Dispatch() = %d outputs, want 0", n)
		}
		if submitCalled {
			t.Error("SubmitToolOutputs must not be called for an empty batch")
		}
	})

	t.Run("refresh failure is fatal", func(t *testing.T) {
		fetchErr := errors.New("gone")
		svc := &mockService{
			getRunFn: func(ctx context.Context, threadID, runID string) (*run.Run, error) {
				return nil, fetchErr
			},
		}

		d := run.NewDispatcher(svc, testRegistry(t), time.Second, zerolog.Nop())
		_, err := d.Dispatch(context.Background(), "th_1", &run.Run{ID: "run_1"})
		if !errors.Is(err, fetchErr) {
			t.Errorf("Dispatch() error = %v, want wrapped %v", err, fetchErr)
		}
	})

	t.Run("submission failure is fatal", func(t *testing.T) {
		submitErr := errors.New("run no longer accepts outputs")
		detail := requiresActionRun("run_1", functionCall("call_1", "echo", `{"text":"x"}`))
		svc := &mockService{
			getRunFn: func(ctx context.Context, threadID, runID string) (*run.Run, error) {
				return detail, nil
			},
			submitToolOutputsFn: func(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error {
				return submitErr
			},
		}

		d := run.NewDispatcher(svc, testRegistry(t), time.Second, zerolog.Nop())
		_, err := d.Dispatch(context.Background(), "th_1", &run.Run{ID: "run_1"})
		if !errors.Is(err, submitErr) {
			t.Errorf("Dispatch() error = %v, want wrapped %v", err, submitErr)
		}
	})

	t.Run("malformed arguments become an error output, not a crash", func(t *testing.T) {
		detail := requiresActionRun("run_1", functionCall("call_1", "echo", `{"text":`))
		var submitted []run.ToolOutput
		svc := &mockService{
			getRunFn: func(ctx context.Context, threadID, runID string) (*run.Run, error) {
				return detail, nil
			},
			submitToolOutputsFn: func(ctx context.Context, threadID, runID string, outputs []run.ToolOutput) error {
				submitted = outputs
				return nil
			},
		}

		d := run.NewDispatcher(svc, testRegistry(t), time.Second, zerolog.Nop())
		n, err := d.Dispatch(context.Background(), "th_1", &run.Run{ID: "run_1"})
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if n != 1 || len(submitted) != 1 {
			t.Fatalf("Dispatch() = %d outputs, want 1", n)
		}
		if !strings.HasPrefix(submitted[0].Output, "Error executing function echo:") {
			t.Errorf("output = %q, want an execution error", submitted[0].Output)
		}
	})
}
