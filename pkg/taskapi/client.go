package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// Client talks to the task management API. Every call is a single attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetTask fetches task details. A non-200 answer is returned as *StatusError.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	resp, err := c.do(ctx, http.MethodGet, c.taskPath(taskID), nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	var task Task
	if err := json.Unmarshal([]byte(resp.Body), &task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", taskID, err)
	}
	return &task, nil
}

func (c *Client) PutTrackedTime(ctx context.Context, taskID string, tt TrackedTime) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.taskPath(taskID, "trackedTime"), tt)
}

func (c *Client) PutStatus(ctx context.Context, taskID, status string) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.taskPath(taskID, "details"), StatusUpdate{Status: status})
}

func (c *Client) PostUpdate(ctx context.Context, taskID string, ev UpdateEvent) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.taskPath(taskID, "updates"), ev)
}

func (c *Client) taskPath(taskID string, segments ...string) string {
	parts := append([]string{c.baseURL, "tasks", url.PathEscape(taskID)}, segments...)
	return strings.Join(parts, "/")
}

// do sends one request and reads the whole body. Only transport and encoding
// failures are errors; any HTTP status is returned in the Response.
func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	c.logger.Debug("task api request",
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.String("request_id", requestID))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s %s: %w", method, endpoint, err)
	}

	c.logger.Debug("task api response",
		zap.String("request_id", requestID),
		zap.Int("status", res.StatusCode))

	return &Response{StatusCode: res.StatusCode, Body: string(b)}, nil
}
