package httpsource

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/buildpeek/buildpeek/internal/domain"
	"github.com/buildpeek/buildpeek/internal/port"
)

// Client is an HTTP implementation of port.LogSource. It opens streaming
// responses and leaves all read pacing to the caller; no timeout is imposed
// here, the caller's context is the only deadline.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Ensure Client implements port.LogSource
var _ port.LogSource = (*Client)(nil)

// Config contains optional client settings
type Config struct {
	SkipTLSVerify bool
	UserAgent     string
}

// NewClient creates a new streaming HTTP log source
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "buildpeek"
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		userAgent:  userAgent,
	}
}

// Open opens a streaming response for the given URL. A non-2xx status is a
// transport failure: the body is drained and closed, and the status code is
// carried on the returned error.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewTransportError(url, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(url, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, domain.NewTransportError(url, resp.StatusCode, nil)
	}

	return resp.Body, nil
}
