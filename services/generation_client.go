package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"envisionWeb/internal/manifestation"
)

const defaultGenerationError = "Failed to generate manifestation"

// Generator produces a manifestation for a completed form.
type Generator interface {
	GenerateManifestation(ctx context.Context, data manifestation.FormData) (*manifestation.ManifestationResponse, error)
}

// APIError is a non-2xx answer from the generation API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

type GenerationClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGenerationClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*GenerationClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid generation API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("generation API URL must be http or https, got %q", baseURL)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	return &GenerationClient{
		baseURL:    u,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (c *GenerationClient) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

func (c *GenerationClient) GenerateManifestation(ctx context.Context, data manifestation.FormData) (*manifestation.ManifestationResponse, error) {
	start := time.Now()

	result, err := c.generate(ctx, data)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	generationRequests.WithLabelValues(outcome).Inc()
	generationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return result, err
}

func (c *GenerationClient) generate(ctx context.Context, data manifestation.FormData) (*manifestation.ManifestationResponse, error) {
	payload, err := json.Marshal(manifestation.NewGenerateRequest(data))
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/generate-manifestation"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
		c.logger.Warn("generation API rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail),
		)
		return nil, apiErr
	}

	var result manifestation.ManifestationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	return &result, nil
}

// errorDetail pulls a string "detail" out of an error body, falling back to a generic message.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return defaultGenerationError
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil || detail == "" {
		return defaultGenerationError
	}
	return detail
}

// AudioURL resolves an audio_path returned by the API against the API base.
// Only paths are accepted so the server never fetches from another host.
func (c *GenerationClient) AudioURL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid audio path: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" || path == "" {
		return "", fmt.Errorf("audio path %q must be a relative path", path)
	}
	return c.endpoint(ref.Path), nil
}

// FetchAudio opens the audio resource. The caller closes the response body.
func (c *GenerationClient) FetchAudio(ctx context.Context, path string) (*http.Response, error) {
	target, err := c.AudioURL(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: "audio not available"}
	}
	return resp, nil
}
