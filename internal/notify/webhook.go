package notify

import (
	"context"
	"net/http"
	"time"
)

// WebhookAdapter POSTs the message as JSON to the destination URL.
type WebhookAdapter struct {
	Client *http.Client
}

func NewWebhookAdapter() *WebhookAdapter {
	return &WebhookAdapter{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (a *WebhookAdapter) Class() string { return "webhook" }

func (a *WebhookAdapter) Send(ctx context.Context, destination string, msg Message) error {
	return postJSON(ctx, a.Client, destination, msg)
}
