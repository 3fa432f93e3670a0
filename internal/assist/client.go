package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"loglens-backend/internal/model"
)

// Client fetches remediation guidance from the AI sidecar. Best-effort:
// callers tolerate failures and simply omit the guidance.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

type playbookRequest struct {
	LogEntry model.Event `json:"logEntry"`
}

// Playbook asks the sidecar for a remediation playbook for the event.
func (c *Client) Playbook(ctx context.Context, ev model.Event) (model.Proposal, error) {
	if c.Endpoint == "" {
		return model.Proposal{}, errors.New("assist endpoint not configured")
	}
	data, err := json.Marshal(playbookRequest{LogEntry: ev})
	if err != nil {
		return model.Proposal{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/playbook", bytes.NewReader(data))
	if err != nil {
		return model.Proposal{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.Proposal{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Proposal{}, fmt.Errorf("assist service HTTP %d", resp.StatusCode)
	}
	var proposal model.Proposal
	if err := json.NewDecoder(resp.Body).Decode(&proposal); err != nil {
		return model.Proposal{}, err
	}
	return proposal, nil
}
