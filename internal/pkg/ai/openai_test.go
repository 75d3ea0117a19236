package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestOpenAIClient(server *httptest.Server) *OpenAIClient {
	return &OpenAIClient{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      defaultChatModel,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestChatCompletion(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hello there"}},
			},
		})
	}))
	defer server.Close()

	client := newTestOpenAIClient(server)
	reply, err := client.ChatCompletion(context.Background(), []ChatMessage{
		{Role: "user", Content: "hi"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, defaultChatModel, gotBody["model"])
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "hello there", reply.Content)
}

func TestCodeCompletionPrependsSystemInstruction(t *testing.T) {
	var gotBody struct {
		Messages []ChatMessage `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "```go\n```"}},
			},
		})
	}))
	defer server.Close()

	client := newTestOpenAIClient(server)
	_, err := client.CodeCompletion(context.Background(), []ChatMessage{
		{Role: "user", Content: "write a hello world"},
	})
	assert.NoError(t, err)

	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(gotBody.Messages))
	}
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, codeSystemInstruction, gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
}

func TestGenerateImagesAppliesDefaults(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"url": "https://img.example/1.png"}},
		})
	}))
	defer server.Close()

	client := newTestOpenAIClient(server)
	urls, err := client.GenerateImages(context.Background(), "a red cube", 0, "")
	assert.NoError(t, err)
	assert.Equal(t, []string{"https://img.example/1.png"}, urls)
	assert.Equal(t, float64(1), gotBody["n"])
	assert.Equal(t, "512x512", gotBody["size"])
}

func TestGenerateImagesMultiple(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"url": "https://img.example/1.png"},
				{"url": "https://img.example/2.png"},
			},
		})
	}))
	defer server.Close()

	client := newTestOpenAIClient(server)
	urls, err := client.GenerateImages(context.Background(), "two cubes", 2, "1024x1024")
	assert.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestChatCompletionUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestOpenAIClient(server)
	_, err := client.ChatCompletion(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestChatCompletionMissingKey(t *testing.T) {
	client := &OpenAIClient{APIKey: "", BaseURL: "http://unused", HTTPClient: http.DefaultClient}
	_, err := client.ChatCompletion(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}
