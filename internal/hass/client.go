package hass

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/luki/hasensors/internal/logging"
)

const (
	statesPath = "/api/states"

	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4096
)

// ErrMissingToken is returned when no long-lived access token is configured.
var ErrMissingToken = eris.New("missing Home Assistant long-lived access token")

func logger() *zerolog.Logger {
	return logging.For("hass")
}

// Fetcher returns the current entity list. The driving loops depend on this
// rather than on *Client so tests can substitute it.
type Fetcher interface {
	FetchEntities(ctx context.Context) ([]Entity, error)
}

// Endpoint describes where and how to reach Home Assistant.
type Endpoint struct {
	Host  string
	Port  string
	HTTPS bool
	Token string
	// RejectUnauthorized set to false accepts self-signed certificates.
	// nil keeps certificate verification on.
	RejectUnauthorized *bool
	Timeout            time.Duration
}

// URL builds {scheme}://{host}{:port}/api/states.
func (e Endpoint) URL() string {
	scheme := "http"
	if e.HTTPS {
		scheme = "https"
	}
	host := strings.TrimRight(e.Host, "/")
	port := ""
	if e.Port != "" {
		port = ":" + e.Port
	}
	return scheme + "://" + host + port + statesPath
}

func (e Endpoint) insecure() bool {
	return e.HTTPS && e.RejectUnauthorized != nil && !*e.RejectUnauthorized
}

// FetchError is a non-2xx response from Home Assistant.
type FetchError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *FetchError) Error() string {
	return strings.TrimSpace(fmt.Sprintf("HTTP %d %s %s", e.StatusCode, e.Status, e.Body))
}

// Client fetches entity state over HTTP(S).
type Client struct {
	endpoint Endpoint
	http     *http.Client
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a client for the given endpoint.
func NewClient(ep Endpoint) *Client {
	if ep.Timeout <= 0 {
		ep.Timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if ep.insecure() {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via rejectUnauthorized: false
	}

	return &Client{
		endpoint: ep,
		http:     &http.Client{Transport: transport},
	}
}

// Endpoint returns the endpoint the client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// FetchEntities performs GET /api/states and decodes the entity array.
func (c *Client) FetchEntities(ctx context.Context) ([]Entity, error) {
	if strings.TrimSpace(c.endpoint.Token) == "" {
		return nil, ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(ctx, c.endpoint.Timeout)
	defer cancel()

	url := c.endpoint.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "unable to create request for %s", url)
	}
	req.Header.Set("Authorization", "Bearer "+c.endpoint.Token)
	req.Header.Set("Accept", "application/json")

	logger().Debug().Str("url", url).Msg("fetching entities")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "unable to reach Home Assistant")
	}
	defer resp.Body.Close()

	logger().Debug().Int("status", resp.StatusCode).Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		ferr := &FetchError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       strings.TrimSpace(string(body)),
		}
		logger().Warn().Err(ferr).Msg("request failed")
		return nil, ferr
	}

	entities, err := DecodeEntities(resp.Body)
	if err != nil {
		return nil, err
	}
	logger().Debug().Int("entities", len(entities)).Msg("fetched entities")
	return entities, nil
}

// statusText strips the numeric code from resp.Status ("401 Unauthorized").
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, fmt.Sprintf("%d ", resp.StatusCode)); ok {
		return text
	}
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}
