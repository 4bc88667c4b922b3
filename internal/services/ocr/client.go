package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.cloudconvert.com"
	defaultLanguage    = "eng"
	defaultHTTPTimeout = 120 * time.Second
)

// Client wraps the OCR conversion API. Documents are uploaded whole and the
// recognized text comes back in the job response.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option customizes the OCR client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithLanguage sets the recognition language hint.
func WithLanguage(language string) Option {
	return func(c *Client) {
		language = strings.TrimSpace(language)
		if language != "" {
			c.language = language
		}
	}
}

// NewClient constructs an OCR API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type recognizeResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Recognize uploads the document at path and returns the recognized text.
func (c *Client) Recognize(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", errors.New("ocr recognize: api key required")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ocr recognize: open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("ocr recognize: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("ocr recognize: read document: %w", err)
	}
	if err := writer.WriteField("language", c.language); err != nil {
		return "", fmt.Errorf("ocr recognize: build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("ocr recognize: finish form: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v2/recognize")
	if err != nil {
		return "", fmt.Errorf("ocr recognize: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("ocr recognize: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr recognize: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ocr recognize: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("ocr recognize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded recognizeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("ocr recognize: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("ocr recognize: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	text := strings.TrimSpace(decoded.Text)
	if text == "" {
		return "", errors.New("ocr recognize: empty text")
	}
	return text, nil
}
