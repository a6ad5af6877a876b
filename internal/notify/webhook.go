package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// WebhookBackend POSTs notifications as JSON to a configured URL.
type WebhookBackend struct {
	url    string
	client *http.Client
}

func NewWebhookBackend(webhookURL string) *WebhookBackend {
	return &WebhookBackend{
		url:    webhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *WebhookBackend) Name() string { return "webhook" }

func (b *WebhookBackend) Available() bool {
	u, err := url.Parse(b.url)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (b *WebhookBackend) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(map[string]string{
		"title": n.Title,
		"body":  n.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
