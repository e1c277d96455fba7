package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/agentuity/go-common/logger"
	"github.com/cenkalti/backoff/v4"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

// ErrAllEndpointsFailed is returned when every configured endpoint was
// exhausted without a transport-level success. Callers must treat this as
// fatal for the current operation.
var ErrAllEndpointsFailed = errors.New("all configuration endpoints failed")

const (
	// DefaultRetries is the per-endpoint attempt budget.
	DefaultRetries = 3
	// DefaultRetryDelay is the fixed delay between attempts on the same endpoint.
	DefaultRetryDelay = 2 * time.Second
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 10 * time.Second
)

// Config carries the failover client settings. It is constructed once at
// startup and passed in explicitly rather than read from shared globals.
type Config struct {
	// Endpoints is the ordered list of base URLs. Order is the failover
	// priority order.
	Endpoints []string
	// Timeout bounds a single attempt, including connection setup and body read.
	Timeout time.Duration
	// Retries is the number of attempts per endpoint.
	Retries int
	// RetryDelay is the fixed delay between attempts on the same endpoint.
	RetryDelay time.Duration
}

// Client fetches a resource from an ordered failover set of base endpoints.
// The first endpoint that answers at the transport level wins; response
// bodies are passed through uninterpreted.
type Client struct {
	config Config
	client *http.Client
	logger logger.Logger
}

func New(logger logger.Logger, config Config) (*Client, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("endpoint list must not be empty")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Retries <= 0 {
		config.Retries = DefaultRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	return &Client{
		config: config,
		client: http.DefaultClient,
		logger: logger,
	}, nil
}

func UserAgent() string {
	gitSHA := Commit
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitSHA = setting.Value
			}
		}
	}
	return "tunlease CLI/" + Version + " (" + gitSHA + ")"
}

// Fetch issues a GET for pathAndQuery against each endpoint in priority
// order and returns the body of the first successful response. A response
// counts as successful at the transport level only; the payload is not
// inspected.
func (c *Client) Fetch(ctx context.Context, pathAndQuery string) ([]byte, error) {
	return c.FetchWithTimeout(ctx, pathAndQuery, c.config.Timeout)
}

// FetchWithTimeout is Fetch with a per-attempt timeout override.
func (c *Client) FetchWithTimeout(ctx context.Context, pathAndQuery string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	var lastErr error
	for _, base := range c.config.Endpoints {
		url := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(pathAndQuery, "/")
		body, err := c.fetchOne(ctx, url, timeout)
		if err == nil {
			c.logger.Debug("endpoint %s answered (%d bytes)", base, len(body))
			return body, nil
		}
		c.logger.Warn("endpoint %s exhausted: %s", base, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: last error: %s", ErrAllEndpointsFailed, lastErr)
	}
	return nil, ErrAllEndpointsFailed
}

// fetchOne runs the retry budget for a single endpoint with a fixed delay
// between attempts. Recovery from a dead endpoint happens by failing over,
// not by backing off longer.
func (c *Client) fetchOne(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	var body []byte
	attempts := uint64(c.config.Retries)
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.config.RetryDelay), attempts-1), ctx)
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgent())
		c.logger.Trace("sending request: GET %s", url)
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		c.logger.Debug("response status: %s", resp.Status)
		if resp.StatusCode > 299 {
			return fmt.Errorf("request failed with status (%s)", resp.Status)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error reading response body: %w", err)
		}
		return nil
	}
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
