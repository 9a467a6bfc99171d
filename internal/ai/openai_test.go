package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Stream    bool   `json:"stream"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI(config.AIConfig{
		OpenAIAPIKey:    "test-key",
		OpenAIBaseURL:   srv.URL + "/v1",
		ChatModel:       "gpt-4o-mini",
		MaxChatTokens:   2000,
		Temperature:     0.7,
		RequestTimeout:  5 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	})
}

func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var req capturedRequest
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func writeChunks(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, c := range chunks {
		payload, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion.chunk",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": c}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", payload)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func TestStreamChat(t *testing.T) {
	var got capturedRequest
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		got = decodeRequest(t, r)
		writeChunks(w, "Boil ", "the ", "rice.")
	})

	var deltas []string
	reply, err := o.StreamChat(context.Background(), ChefSystemPrompt("Ghana"), []Message{
		{Role: RoleUser, Content: "jollof?"},
	}, func(s string) error {
		deltas = append(deltas, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Boil the rice.", reply)
	assert.Equal(t, []string{"Boil ", "the ", "rice."}, deltas)

	assert.True(t, got.Stream)
	assert.Equal(t, 2000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "The user is from Ghana.")
	assert.Equal(t, "jollof?", got.Messages[1].Content)
}

func TestStreamChat_DeltaErrorAborts(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "a", "b", "c")
	})
	stop := errors.New("client gone")

	n := 0
	_, err := o.StreamChat(context.Background(), "sys", nil, func(string) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestStreamChat_ServerError(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	})

	_, err := o.StreamChat(context.Background(), "sys", nil, nil)
	assert.Error(t, err)
}

func TestGenerateJSON(t *testing.T) {
	var got capturedRequest
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-2",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]string{
					"role":    "assistant",
					"content": `{"meals":[{"name":"Waakye","description":"rice and beans","time":"40 min","difficulty":"easy"}]}`,
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	var out struct {
		Meals []struct {
			Name string `json:"name"`
		} `json:"meals"`
	}
	require.NoError(t, o.GenerateJSON(context.Background(), "prompt", 1000, &out))
	require.Len(t, out.Meals, 1)
	assert.Equal(t, "Waakye", out.Meals[0].Name)

	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, 1000, got.MaxTokens)
}

func TestGenerateJSON_MalformedReply(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-3",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "length",
				"message":       map[string]string{"role": "assistant", "content": `{"meals":[{"name":"Wa`},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	var out struct {
		Meals []struct {
			Name string `json:"name"`
		} `json:"meals"`
	}
	err := o.GenerateJSON(context.Background(), "prompt", 1000, &out)
	assert.ErrorIs(t, err, ErrBadResponse)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestOpenAI_BreakerOpens(t *testing.T) {
	calls := 0
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for range 3 {
		_, err := o.StreamChat(context.Background(), "sys", nil, nil)
		require.Error(t, err)
	}
	_, err := o.StreamChat(context.Background(), "sys", nil, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestOpenAI_NotConfigured(t *testing.T) {
	o := NewOpenAI(config.AIConfig{})
	assert.False(t, o.Configured())

	_, err := o.StreamChat(context.Background(), "sys", nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, o.GenerateJSON(context.Background(), "p", 10, &struct{}{}), ErrNotConfigured)
}
