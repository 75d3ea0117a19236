package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inceptionai/inception/internal/pkg/env"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultChatModel     = "gpt-3.5-turbo"

	defaultImageAmount     = 1
	defaultImageResolution = "512x512"

	// System instruction for the code route.
	codeSystemInstruction = "You are a code generator. You must answer only in markdown code snippets. Use code comments for explanations."
)

// ChatMessage is one turn of a chat completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIClient struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

func NewOpenAIClientFromEnv() *OpenAIClient {
	return &OpenAIClient{
		APIKey:  strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("OPENAI_API_BASE_URL", defaultOpenAIBaseURL), "/"),
		Model:   strings.TrimSpace(env.GetEnv("OPENAI_CHAT_MODEL", defaultChatModel)),
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ChatCompletion sends the conversation to the chat completions endpoint
// and returns the assistant's reply.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []ChatMessage) (*ChatMessage, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	if len(messages) == 0 {
		return nil, errors.New("messages are required")
	}

	payload := map[string]interface{}{
		"model":    c.Model,
		"messages": messages,
	}

	body, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Choices []struct {
			Message ChatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("openai chat completion returned no choices")
	}
	return &out.Choices[0].Message, nil
}

// CodeCompletion is ChatCompletion with the code generator system
// instruction prepended.
func (c *OpenAIClient) CodeCompletion(ctx context.Context, messages []ChatMessage) (*ChatMessage, error) {
	withSystem := make([]ChatMessage, 0, len(messages)+1)
	withSystem = append(withSystem, ChatMessage{Role: "system", Content: codeSystemInstruction})
	withSystem = append(withSystem, messages...)
	return c.ChatCompletion(ctx, withSystem)
}

// GenerateImages calls the image generation endpoint and returns the
// result URLs. Zero amount and empty resolution fall back to the
// defaults (1 image at 512x512).
func (c *OpenAIClient) GenerateImages(ctx context.Context, prompt string, amount int, resolution string) ([]string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	if amount <= 0 {
		amount = defaultImageAmount
	}
	if strings.TrimSpace(resolution) == "" {
		resolution = defaultImageResolution
	}

	payload := map[string]interface{}{
		"prompt": prompt,
		"n":      amount,
		"size":   resolution,
	}

	body, err := c.post(ctx, "/images/generations", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, errors.New("openai image generation returned no data")
	}

	urls := make([]string, 0, len(out.Data))
	for _, d := range out.Data {
		urls = append(urls, d.URL)
	}
	return urls, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai request %s failed: status=%d body=%s", path, resp.StatusCode, string(body))
	}
	return body, nil
}
