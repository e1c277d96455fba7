// Package ipecho resolves the machine's public IP through a plain-text echo
// service. The result is diagnostic only and never drives control decisions.
package ipecho

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentuity/go-common/logger"
)

// DefaultURL is the echo service queried unless overridden in config.
const DefaultURL = "https://checkip.amazonaws.com"

// Unknown is reported when the echo service cannot be reached.
const Unknown = "unavailable"

type Client struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

func New(logger logger.Logger, url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:     url,
		timeout: timeout,
		client:  http.DefaultClient,
		logger:  logger,
	}
}

// PublicIP returns the caller's public IP as reported by the echo service,
// or Unknown if the lookup fails for any reason.
func (c *Client) PublicIP(ctx context.Context) string {
	ip, err := c.lookup(ctx)
	if err != nil {
		c.logger.Debug("public ip lookup failed: %s", err)
		return Unknown
	}
	return ip
}

func (c *Client) lookup(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode > 299 {
		return "", fmt.Errorf("request failed with status (%s)", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return "", fmt.Errorf("echo service returned an empty body")
	}
	return ip, nil
}
