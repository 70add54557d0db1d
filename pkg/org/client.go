package org

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when the client was built without a bearer token.
var ErrNoToken = errors.New("organization API token is not set")

type Organization struct {
	Name string `json:"name"`
}

// Client reads organizations from a third-party identity API that expects a
// static bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	hasToken   bool
}

// NewClient builds an authenticated client. The base transport is taken from
// ctx the usual oauth2 way (oauth2.HTTPClient), which tests use to inject one.
func NewClient(ctx context.Context, baseURL, token string, timeout time.Duration) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	hc := oauth2.NewClient(ctx, src)
	hc.Timeout = timeout
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		hasToken:   token != "",
	}
}

func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	if !c.hasToken {
		return nil, ErrNoToken
	}
	if orgID == "" {
		return nil, errors.New("task has no organization id")
	}

	endpoint := c.baseURL + "/organizations/" + url.PathEscape(orgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("organization %s: unexpected status %d: %s", orgID, res.StatusCode, body)
	}

	var o Organization
	if err := json.NewDecoder(res.Body).Decode(&o); err != nil {
		return nil, fmt.Errorf("failed to decode organization %s: %w", orgID, err)
	}
	return &o, nil
}
