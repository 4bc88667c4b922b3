package remoteindex

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
)

const defaultHTTPTimeout = 15 * time.Second

// Row is one document row mirrored to the remote index.
type Row struct {
	DocumentID   string         `json:"document_id"`
	SourceFile   string         `json:"source_file"`
	DetectedAt   string         `json:"detected_at"`
	DocumentType string         `json:"document_type,omitempty"`
	Supplier     string         `json:"supplier,omitempty"`
	DocumentDate string         `json:"document_date,omitempty"`
	KeyInfo      map[string]any `json:"key_info,omitempty"`
	Confidence   float64        `json:"confidence,omitempty"`
	Status       string         `json:"status"`
	ArchivePath  string         `json:"archive_path,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Client posts document rows to an external index endpoint. The remote index
// is a convenience mirror; the local record store stays authoritative.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option customizes the remote index client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a remote index client for the given endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Append posts one row to the remote index.
func (c *Client) Append(ctx context.Context, row Row) error {
	if strings.TrimSpace(c.endpoint) == "" {
		return errors.New("remote index: endpoint required")
	}
	if strings.TrimSpace(row.DocumentID) == "" {
		return errors.New("remote index: document id required")
	}

	encoded, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("remote index: encode row: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("remote index: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote index: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("remote index: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
