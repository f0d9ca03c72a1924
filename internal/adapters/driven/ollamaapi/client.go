// Package ollamaapi provides the HTTP client shared by the Ollama embedding and
// generation runtimes: model download, load, unload and inference calls.
package ollamaapi

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

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Default configuration values.
const (
	DefaultBaseURL = domain.DefaultOllamaBaseURL
	DefaultTimeout = 120 * time.Second

	// DefaultKeepAlive keeps a loaded model resident between calls.
	DefaultKeepAlive = "30m"
)

// Config holds configuration for the Ollama client.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Timeout bounds non-streaming requests (default: 120s).
	// Model downloads are bounded by their context only.
	Timeout time.Duration

	// KeepAlive is sent with inference calls (default: 30m).
	KeepAlive string
}

// Client talks to a local Ollama server.
type Client struct {
	client    *http.Client
	stream    *http.Client
	baseURL   string
	keepAlive string
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}

	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		stream:    &http.Client{},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keepAlive: cfg.KeepAlive,
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// KeepAlive returns the keep-alive duration sent with inference calls.
func (c *Client) KeepAlive() string {
	return c.keepAlive
}

// pullRequest is the /api/pull request format.
type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// pullResponse is one line of the /api/pull progress stream.
type pullResponse struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// showRequest is the /api/show request format.
type showRequest struct {
	Model string `json:"model"`
}

// Has reports whether the model is already downloaded.
func (c *Client) Has(ctx context.Context, model string) (bool, error) {
	resp, err := c.post(ctx, c.client, "/api/show", showRequest{Model: model})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

// Pull downloads a model, reporting progress for each streamed status line.
func (c *Client) Pull(ctx context.Context, model string, progress driven.ProgressFunc) error {
	resp, err := c.post(ctx, c.stream, "/api/pull", pullRequest{Model: model, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var line pullResponse
		if err := dec.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("decode pull progress: %w", err)
		}
		if line.Error != "" {
			return fmt.Errorf("ollama: pull %s: %s", model, line.Error)
		}
		if progress != nil {
			progress(domain.PullProgress{Status: line.Status, Completed: line.Completed, Total: line.Total})
		}
		if line.Status == "success" {
			return nil
		}
	}

	return fmt.Errorf("ollama: pull %s: stream ended before success", model)
}

// Ensure downloads the model when it is missing.
func (c *Client) Ensure(ctx context.Context, model string, progress driven.ProgressFunc) error {
	ok, err := c.Has(ctx, model)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return c.Pull(ctx, model, progress)
}

// Ping validates the server is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return unavailable(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Call posts a JSON request and decodes the JSON response into out.
func (c *Client) Call(ctx context.Context, path string, in, out any) error {
	resp, err := c.post(ctx, c.client, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, path string, body any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, unavailable(ctx, err)
	}
	return resp, nil
}

// unavailable maps transport failures to domain.ErrRuntimeUnavailable.
// Context errors are returned as they are.
func unavailable(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", domain.ErrRuntimeUnavailable, err)
}

// statusError reads the error body of a failed response.
func statusError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
