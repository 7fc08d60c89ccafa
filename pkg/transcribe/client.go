// Package transcribe wraps a third-party speech-to-text API behind a small
// HTTP gateway: submit by URL, submit by uploaded file, poll by id, and a
// signed completion webhook.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ProviderError reports a non-success response from the provider.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

// Client calls the speech-to-text provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient injects the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a provider client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("provider API key is required")
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitURL submits a transcription job by audio URL. Metadata is round
// tripped back in the completion webhook.
func (c *Client) SubmitURL(ctx context.Context, audioURL, webhookURL string, metadata map[string]any) (*Job, error) {
	body := map[string]any{"audio_url": audioURL}
	if metadata != nil {
		body["metadata"] = metadata
	}
	if webhookURL != "" {
		body["webhook_url"] = webhookURL
	}

	var job Job
	if err := c.postJSON(ctx, "/v2/transcript", body, &job); err != nil {
		return nil, err
	}
	c.logger.Info().Str("id", job.ID).Str("status", job.Status).Msg("transcript job submitted")
	return &job, nil
}

// SubmitFile streams an audio file to the provider's upload endpoint and
// submits the resulting URL for transcription.
func (c *Client) SubmitFile(ctx context.Context, audio io.Reader, webhookURL string, metadata map[string]any) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", audio)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, providerError(resp)
	}

	var uploaded struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return c.SubmitURL(ctx, uploaded.UploadURL, webhookURL, metadata)
}

// Get polls a transcript job by id.
func (c *Client) Get(ctx context.Context, id string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, providerError(resp)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &job, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return providerError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func providerError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &ProviderError{Status: resp.StatusCode, Body: string(body)}
}
