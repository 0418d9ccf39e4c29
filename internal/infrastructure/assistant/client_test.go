package assistant_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbot/internal/domain/run"
	"docbot/internal/domain/tool"
	"docbot/internal/infrastructure/assistant"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*assistant.Config)) *assistant.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := assistant.Config{
		BaseURL:    server.URL,
		APIKey:     "secret-key",
		APIVersion: "2024-05-01-preview",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return assistant.NewClient(cfg)
}

func TestClient_CreateThread(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/threads", r.URL.Path)
		assert.Equal(t, "2024-05-01-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"thread_abc"}`))
	}, nil)

	threadID, err := client.CreateThread(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", threadID)
}

func TestClient_ManagedIdentityUsesBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer projected-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"thread_abc"}`))
	}, func(cfg *assistant.Config) {
		cfg.APIKey = ""
		cfg.UseManagedIdentity = true
		cfg.TokenSource = assistant.StaticTokenSource("projected-token")
	})

	_, err := client.CreateThread(context.Background())
	require.NoError(t, err)
}

func TestClient_CreateRun(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/th_1/runs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"run_1","status":"queued"}`))
	}, func(cfg *assistant.Config) {
		cfg.VectorStoreID = "vs_9"
	})

	tools := []tool.Spec{
		{Type: "function", Function: &tool.FunctionSpec{Name: "search_docs"}},
		tool.FileSearchSpec(),
	}
	r, err := client.CreateRun(context.Background(), "th_1", "asst_1", tools)
	require.NoError(t, err)
	assert.Equal(t, "run_1", r.ID)
	assert.Equal(t, run.StatusQueued, r.Status)

	assert.Equal(t, "asst_1", body["assistant_id"])
	sentTools, ok := body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, sentTools, 2)

	resources, ok := body["tool_resources"].(map[string]any)
	require.True(t, ok, "tool_resources must be present when a vector store is configured")
	fileSearch := resources["file_search"].(map[string]any)
	assert.Equal(t, []any{"vs_9"}, fileSearch["vector_store_ids"])
}

func TestClient_CreateRun_NoVectorStore(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"run_1","status":"queued"}`))
	}, nil)

	_, err := client.CreateRun(context.Background(), "th_1", "asst_1", nil)
	require.NoError(t, err)
	_, present := body["tool_resources"]
	assert.False(t, present, "tool_resources must be omitted without a vector store")
}

func TestClient_GetRun_ParsesRequiredAction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/th_1/runs/run_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "run_1",
			"status": "requires_action",
			"required_action": {
				"type": "submit_tool_outputs",
				"submit_tool_outputs": {
					"tool_calls": [
						{"id": "call_1", "type": "function", "function": {"name": "search_docs", "arguments": "{\"query\":\"x\"}"}}
					]
				}
			}
		}`))
	}, nil)

	r, err := client.GetRun(context.Background(), "th_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, run.StatusRequiresAction, r.Status)

	calls := r.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "search_docs", calls[0].Function.Name)
	assert.JSONEq(t, `{"query":"x"}`, calls[0].Function.Arguments)
}

func TestClient_SubmitToolOutputs(t *testing.T) {
	var body struct {
		ToolOutputs []run.ToolOutput `json:"tool_outputs"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/th_1/runs/run_1/submit_tool_outputs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"run_1","status":"queued"}`))
	}, nil)

	outputs := []run.ToolOutput{
		{ToolCallID: "call_1", Output: "result one"},
		{ToolCallID: "call_2", Output: "result two"},
	}
	require.NoError(t, client.SubmitToolOutputs(context.Background(), "th_1", "run_1", outputs))
	assert.Equal(t, outputs, body.ToolOutputs)
}

func TestClient_LatestAssistantMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/th_1/messages", r.URL.Path)
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "assistant", r.URL.Query().Get("role"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"role": "assistant",
					"content": [
						{"type": "text", "text": {"value": "first block"}},
						{"type": "image_file"},
						{"type": "text", "text": {"value": "second block"}}
					]
				}
			]
		}`))
	}, nil)

	text, err := client.LatestAssistantMessage(context.Background(), "th_1")
	require.NoError(t, err)
	assert.Equal(t, "first block\nsecond block", text)
}

func TestClient_LatestAssistantMessage_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, nil)

	_, err := client.LatestAssistantMessage(context.Background(), "th_1")
	assert.Error(t, err)
}

func TestClient_APIErrorsSurfaceStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad things"}}`, http.StatusInternalServerError)
	}, nil)

	_, err := client.GetRun(context.Background(), "th_1", "run_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFileTokenSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("tok-1\n"), 0o600))

	source := assistant.FileTokenSource(path)
	token, err := source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Cached: a rewritten file is not picked up within the TTL.
	require.NoError(t, os.WriteFile(path, []byte("tok-2"), 0o600))
	token, err = source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	t.Run("missing file", func(t *testing.T) {
		source := assistant.FileTokenSource(filepath.Join(dir, "absent"))
		_, err := source(context.Background())
		assert.Error(t, err)
	})
}
