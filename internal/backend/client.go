// Package backend is the HTTP client of the REST backend: the credential
// exchange and the authenticated per-resource fetch wrappers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/api/metrics"
	"github.com/fleetdesk/portal/internal/core/domain"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultSessionCookie = "laravel_session"
	defaultXSRFCookie    = "XSRF-TOKEN"
	defaultHealthPath    = "/up"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 1 << 20
)

// Config captures the settings of the backend client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	SessionCookie string
	XSRFCookie    string
	HealthPath    string
}

// Client talks to the REST backend. It is safe for concurrent use.
type Client struct {
	baseURL       string
	sessionCookie string
	xsrfCookie    string
	healthPath    string
	httpClient    *http.Client
	log           zerolog.Logger
}

// NewClient returns a Client. Zero-valued settings fall back to defaults.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		sessionCookie: cfg.SessionCookie,
		xsrfCookie:    cfg.XSRFCookie,
		healthPath:    cfg.HealthPath,
		httpClient:    &http.Client{Timeout: timeout},
		log:           log,
	}
	if c.sessionCookie == "" {
		c.sessionCookie = defaultSessionCookie
	}
	if c.xsrfCookie == "" {
		c.xsrfCookie = defaultXSRFCookie
	}
	if c.healthPath == "" {
		c.healthPath = defaultHealthPath
	}
	return c
}

// Users returns the fetch wrappers of /users.
func (c *Client) Users() *Resource[domain.User] { return newResource[domain.User](c, "users") }

// Cars returns the fetch wrappers of /cars.
func (c *Client) Cars() *Resource[domain.Car] { return newResource[domain.Car](c, "cars") }

// FuelPrices returns the fetch wrappers of /fuel-prices.
func (c *Client) FuelPrices() *Resource[domain.FuelPrice] {
	return newResource[domain.FuelPrice](c, "fuel-prices")
}

// TravelPurposes returns the fetch wrappers of /travel-purpose-dictionaries.
func (c *Client) TravelPurposes() *Resource[domain.TravelPurposeDictionary] {
	return newResource[domain.TravelPurposeDictionary](c, "travel-purpose-dictionaries")
}

// Laws returns the fetch wrappers of /laws.
func (c *Client) Laws() *Resource[domain.Law] { return newResource[domain.Law](c, "laws") }

// Addresses returns the fetch wrappers of /addresses.
func (c *Client) Addresses() *Resource[domain.Address] {
	return newResource[domain.Address](c, "addresses")
}

// Ping checks that the backend answers its health route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req, "health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health check returned %d", domain.ErrBackendUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and records metrics. Transport failures wrap
// domain.ErrBackendUnavailable; the caller closes the response body.
func (c *Client) do(req *http.Request, resource string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.BackendRequestDuration.WithLabelValues(resource, req.Method).Observe(elapsed.Seconds())

	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(resource, req.Method, "error").Inc()
		c.log.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("backend request failed")
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, req.Method, req.URL.Path, err)
	}

	metrics.BackendRequestsTotal.WithLabelValues(resource, req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("backend request")
	return resp, nil
}
