package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JoshuaC215/agent-service-toolkit/schema"
)

// FeedbackRecorder forwards user feedback about a run to an external
// collector. The service never interprets feedback itself.
type FeedbackRecorder interface {
	Record(ctx context.Context, feedback schema.Feedback) error
}

// NoopFeedbackRecorder accepts and discards feedback.
type NoopFeedbackRecorder struct{}

// Record implements FeedbackRecorder.
func (NoopFeedbackRecorder) Record(ctx context.Context, feedback schema.Feedback) error {
	return nil
}

// WebhookFeedbackRecorder posts feedback as JSON to a configured endpoint.
type WebhookFeedbackRecorder struct {
	url    string
	client *http.Client
}

// NewWebhookFeedbackRecorder creates a recorder posting to the given URL.
func NewWebhookFeedbackRecorder(url string) *WebhookFeedbackRecorder {
	return &WebhookFeedbackRecorder{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Record implements FeedbackRecorder.
func (r *WebhookFeedbackRecorder) Record(ctx context.Context, feedback schema.Feedback) error {
	body, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("failed to encode feedback: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build feedback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver feedback: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("feedback endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
