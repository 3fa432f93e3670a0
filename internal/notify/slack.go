package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// SlackAdapter posts to a Slack incoming-webhook URL.
type SlackAdapter struct {
	Client *http.Client
}

func NewSlackAdapter() *SlackAdapter {
	return &SlackAdapter{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (a *SlackAdapter) Class() string { return "slack" }

func (a *SlackAdapter) Send(ctx context.Context, destination string, msg Message) error {
	payload := map[string]string{
		"text": fmt.Sprintf("*%s*\n%s", msg.Subject, msg.Body),
	}
	return postJSON(ctx, a.Client, destination, payload)
}
