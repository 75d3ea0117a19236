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
	defaultReplicateBaseURL = "https://api.replicate.com/v1"

	// musicgen pinned version used for music generation.
	musicGenVersion = "671ac645ce5e552cc63a54a2bbff63fcf798043055d2dac5fc9e36a837eedcfb"

	videoModel = "minimax/video-01"

	replicatePollInterval = 2 * time.Second
)

type ReplicateClient struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client

	// PollInterval overrides the wait between status checks; zero means
	// the default.
	PollInterval time.Duration
}

func NewReplicateClientFromEnv() *ReplicateClient {
	return &ReplicateClient{
		APIKey:  strings.TrimSpace(env.GetEnv("REPLICATE_API_TOKEN", "")),
		BaseURL: strings.TrimRight(env.GetEnv("REPLICATE_API_BASE_URL", defaultReplicateBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
}

// GenerateMusic runs the musicgen model and returns the audio URL.
func (c *ReplicateClient) GenerateMusic(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is required")
	}

	payload := map[string]interface{}{
		"version": musicGenVersion,
		"input": map[string]interface{}{
			"prompt":                 prompt,
			"model_version":          "stereo-large",
			"output_format":          "mp3",
			"normalization_strategy": "peak",
		},
	}

	prediction, err := c.createPrediction(ctx, "/predictions", payload)
	if err != nil {
		return "", err
	}
	final, err := c.waitForPrediction(ctx, prediction.ID)
	if err != nil {
		return "", err
	}
	return decodeSingleOutput(final.Output)
}

// GenerateVideo runs the video model and returns the video URL.
func (c *ReplicateClient) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is required")
	}

	payload := map[string]interface{}{
		"input": map[string]interface{}{
			"prompt": prompt,
		},
	}

	prediction, err := c.createPrediction(ctx, "/models/"+videoModel+"/predictions", payload)
	if err != nil {
		return "", err
	}
	final, err := c.waitForPrediction(ctx, prediction.ID)
	if err != nil {
		return "", err
	}
	return decodeSingleOutput(final.Output)
}

func (c *ReplicateClient) createPrediction(ctx context.Context, path string, payload interface{}) (*replicatePrediction, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("REPLICATE_API_TOKEN is not configured")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate prediction create failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out replicatePrediction
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("replicate prediction response missing id")
	}
	return &out, nil
}

func (c *ReplicateClient) waitForPrediction(ctx context.Context, id string) (*replicatePrediction, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = replicatePollInterval
	}

	for {
		prediction, err := c.getPrediction(ctx, id)
		if err != nil {
			return nil, err
		}

		switch prediction.Status {
		case "succeeded":
			return prediction, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("replicate prediction %s %s: %v", id, prediction.Status, prediction.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *ReplicateClient) getPrediction(ctx context.Context, id string) (*replicatePrediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate prediction get failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out replicatePrediction
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeSingleOutput accepts the two output shapes replicate models
// return, a plain string or a list of strings, and yields the first URL.
func decodeSingleOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("replicate prediction returned no output")
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}
	return "", fmt.Errorf("replicate prediction output has unexpected shape: %s", string(raw))
}
