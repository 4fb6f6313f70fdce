// Package notify announces a new release to the release-hosting API with a
// single authenticated POST.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/toolchain"
)

// DefaultAPIURL is used when the api_url parameter is empty.
const DefaultAPIURL = "https://api.github.com"

// Client is the HTTP implementation of toolchain.ReleaseNotifier.
type Client struct {
	HTTP *http.Client
}

var _ toolchain.ReleaseNotifier = (*Client)(nil)

// New returns a Client. A zero timeout means the pipeline imposes none.
func New(timeout time.Duration) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// Requires lists the parameters Notify needs.
func (c *Client) Requires() []string {
	return []string{params.Token, params.Repository, params.Version}
}

// Notify POSTs the descriptor to {api_url}/repos/{repository}/releases. Any
// 2xx response is success; anything else returns a *ResponseError carrying
// the raw body. Missing parameters fail before the request is built.
func (c *Client) Notify(ctx context.Context, p *params.Set, d toolchain.ReleaseDescriptor) error {
	if err := p.Require(c.Requires()...); err != nil {
		return err
	}

	endpoint := ReleasesURL(p.Value(params.APIURL), p.Value(params.Repository))
	logger := ctxlog.FromContext(ctx).With("url", endpoint, "tag", d.TagName)

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode release descriptor: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+p.Value(params.Token))

	logger.Info("Creating release")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ResponseError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	logger.Info("Release created", "status", resp.Status)
	return nil
}

// ReleasesURL builds the releases endpoint for repository ("owner/name").
func ReleasesURL(apiURL, repository string) string {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return strings.TrimRight(apiURL, "/") + "/repos/" + strings.Trim(repository, "/") + "/releases"
}

// ResponseError is a non-2xx answer from the release API.
type ResponseError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("release API rejected request: %s: %s", e.Status, strings.TrimSpace(e.Body))
}
