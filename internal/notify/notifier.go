package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Message is the transport-agnostic content of one alert notification.
type Message struct {
	TenantID  string `json:"tenantId"`
	AlertType string `json:"alertType"`
	Severity  string `json:"severity"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Adapter delivers a message to one destination. Class identifies the
// outbound call class and doubles as the circuit-breaker key.
type Adapter interface {
	Class() string
	Send(ctx context.Context, destination string, msg Message) error
}

// Target binds an adapter to a concrete destination (an address, a URL).
type Target struct {
	Adapter     Adapter
	Destination string
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
