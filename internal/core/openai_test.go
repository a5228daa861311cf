package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, content string) (*httptest.Server, *openai.ChatCompletionRequest) {
	t.Helper()
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestOpenAICompleterSendsPromptAsUserMessage(t *testing.T) {
	srv, got := newFakeOpenAI(t, "Stay hydrated.")
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	c := newOpenAICompleterWithConfig(cfg, "gpt-test")

	text, err := c.Complete(context.Background(), "How much water?")
	require.NoError(t, err)

	assert.Equal(t, "Stay hydrated.", text)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[0].Role)
	assert.Equal(t, "How much water?", got.Messages[0].Content)
}

func TestOpenAICompleterEmptyChoice(t *testing.T) {
	srv, _ := newFakeOpenAI(t, "")
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	c := newOpenAICompleterWithConfig(cfg, "gpt-test")

	_, err := c.Complete(context.Background(), "hi")

	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAICompleterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("wrong")
	cfg.BaseURL = srv.URL + "/v1"
	c := newOpenAICompleterWithConfig(cfg, "gpt-test")

	_, err := c.Complete(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion failed")
}
