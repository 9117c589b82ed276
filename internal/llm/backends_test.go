package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"narrative-engine/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAIClient_StreamsCompletion(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{`{"verbs"`, `: ["go"]}`} {
			data, _ := json.Marshal(map[string]any{
				"id":      "cmpl-1",
				"object":  "text_completion",
				"model":   "test-model",
				"choices": []map[string]any{{"text": chunk, "index": 0}},
			})
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", "key", "test-model", 5*time.Second, zap.NewNop())
	out, err := Collect(context.Background(), client, GenerationRequest{
		SessionKey: "s",
		Prompt:     "<s>find verbs",
		Grammar:    "root ::= VerbsResponse",
		MaxLength:  150,
		Creativity: Predictable,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"verbs": ["go"]}`, out)
	assert.Equal(t, "<s>find verbs", body["prompt"])
	assert.Equal(t, true, body["stream"])
	assert.InDelta(t, 0.5, body["temperature"], 0.0001)
	assert.NotContains(t, body, "grammar")
}

func TestOllamaClient_StreamsRawGenerate(t *testing.T) {
	var req map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"model":"m","response":"{\"count\"","done":false}`)
		fmt.Fprintln(w, `{"model":"m","response":": 1}","done":false}`)
		fmt.Fprintln(w, `{"model":"m","response":"","done":true,"done_reason":"stop","prompt_eval_count":10,"eval_count":4}`)
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL+"/v1", "m", 5*time.Second, zap.NewNop())
	require.NoError(t, err)

	out, err := Collect(context.Background(), client, GenerationRequest{
		Prompt:    "<s>parse",
		Grammar:   "root ::= Commands",
		MaxLength: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count": 1}`, out)
	assert.Equal(t, true, req["raw"])
	assert.Equal(t, "json", req["format"])
	options, ok := req["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 150, options["num_predict"], 0.0001)
	assert.InDelta(t, 1.1, options["repeat_penalty"], 0.0001)
}

func TestNewTransport(t *testing.T) {
	cfg := &config.Config{
		LLMBackend:            "kobold",
		LLMBaseURL:            "http://localhost:5001/api",
		LLMTimeout:            time.Second,
		LLMReconnectAttempts:  3,
		LLMReconnectBaseDelay: time.Second,
		LLMReconnectMaxDelay:  time.Minute,
	}

	tr, err := NewTransport(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "kobold", tr.Backend())

	cfg.LLMBackend = "OpenAI"
	tr, err = NewTransport(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", tr.Backend())

	cfg.LLMBackend = "ollama"
	tr, err = NewTransport(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", tr.Backend())

	cfg.LLMBackend = "telegraph"
	_, err = NewTransport(cfg, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
