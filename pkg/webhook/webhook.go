package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/harrisonrobin/grind/pkg/taskapi"
)

// Payload is the task summary posted when a task is approved.
type Payload struct {
	Name         string `json:"name"`
	Notes        string `json:"notes"`
	Organization string `json:"organization"`
}

// NewPayload builds the summary. duration is shown as given by the caller.
func NewPayload(task taskapi.Task, orgName, duration string) Payload {
	if duration == "" {
		duration = "n/a"
	}
	due := task.DueDate
	if due == "" {
		due = "n/a"
	}
	return Payload{
		Name:         fmt.Sprintf("☕ %s (duration: %s, due: %s)", task.Name, duration, due),
		Notes:        task.Description,
		Organization: orgName,
	}
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, httpClient: httpClient}
}

// Send posts p once. Any 2xx answer counts as delivered.
func (c *Client) Send(ctx context.Context, p Payload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", res.StatusCode, body)
	}
	return nil
}
