package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docfactory/internal/config"
)

const userAgent = "docfactory/0.1.0"

// EventType labels the kinds of events published to the webhook.
type EventType string

const (
	EventDocumentProcessed EventType = "document_processed"
	EventDuplicateFound    EventType = "duplicate_found"
	EventAnomalyDetected   EventType = "anomaly_detected"
	EventProcessingError   EventType = "processing_error"
)

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyDocumentProcessed(ctx context.Context, documentID, fileName, documentType, supplier string) error
	NotifyDuplicateFound(ctx context.Context, documentID, fileName, duplicateOf string, similarity float64) error
	NotifyAnomalyDetected(ctx context.Context, documentID string, anomalies []string) error
	NotifyProcessingError(ctx context.Context, documentID, stage, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by a webhook when
// configured. When no webhook URL is configured, a noop implementation is
// returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// envelope is the wire shape of every published event.
type envelope struct {
	EventType EventType      `json:"event_type"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (s *webhookService) NotifyDocumentProcessed(ctx context.Context, documentID, fileName, documentType, supplier string) error {
	data := map[string]any{
		"document_id":   documentID,
		"file_name":     fileName,
		"document_type": strings.TrimSpace(documentType),
	}
	if supplier = strings.TrimSpace(supplier); supplier != "" {
		data["supplier"] = supplier
	}
	return s.send(ctx, EventDocumentProcessed, data)
}

func (s *webhookService) NotifyDuplicateFound(ctx context.Context, documentID, fileName, duplicateOf string, similarity float64) error {
	return s.send(ctx, EventDuplicateFound, map[string]any{
		"document_id":  documentID,
		"file_name":    fileName,
		"duplicate_of": duplicateOf,
		"similarity":   similarity,
	})
}

func (s *webhookService) NotifyAnomalyDetected(ctx context.Context, documentID string, anomalies []string) error {
	if len(anomalies) == 0 {
		return nil
	}
	return s.send(ctx, EventAnomalyDetected, map[string]any{
		"document_id": documentID,
		"anomalies":   anomalies,
	})
}

func (s *webhookService) NotifyProcessingError(ctx context.Context, documentID, stage, message string) error {
	return s.send(ctx, EventProcessingError, map[string]any{
		"document_id": documentID,
		"stage":       stage,
		"message":     strings.TrimSpace(message),
	})
}

func (s *webhookService) TestNotification(ctx context.Context) error {
	return s.send(ctx, EventDocumentProcessed, map[string]any{
		"document_id": "test",
		"test":        true,
	})
}

func (s *webhookService) send(ctx context.Context, event EventType, data map[string]any) error {
	if s == nil || s.client == nil {
		return nil
	}

	body := envelope{
		EventType: event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDocumentProcessed(context.Context, string, string, string, string) error {
	return nil
}
func (noopService) NotifyDuplicateFound(context.Context, string, string, string, float64) error {
	return nil
}
func (noopService) NotifyAnomalyDetected(context.Context, string, []string) error { return nil }
func (noopService) NotifyProcessingError(context.Context, string, string, string) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
