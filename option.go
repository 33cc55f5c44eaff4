package iriapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tanglekit/iriapi/metrics"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxResponseSize = 64 << 20 // 64 MiB
)

var _ Doer = (*http.Client)(nil)

type (
	// Doer sends an HTTP request and returns its response. *http.Client
	// implements Doer.
	Doer interface {
		Do(*http.Request) (*http.Response, error)
	}

	// config contains all options for the client.
	config struct {
		httpClient      Doer
		timeout         time.Duration
		metrics         *metrics.Metrics
		maxResponseSize int64
	}

	// Option is a function that sets a value in a config.
	Option func(*config) error
)

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		timeout:         defaultTimeout,
		maxResponseSize: defaultMaxResponseSize,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d error: %w", i, err)
		}
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return cfg, nil
}

// WithHTTPClient sets the transport used to send commands. The timeout set
// by WithTimeout does not apply to a client set this way.
func WithHTTPClient(d Doer) Option {
	return func(c *config) error {
		if d == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = d
		return nil
	}
}

// WithTimeout sets the timeout of the default HTTP client, covering the
// whole exchange. Zero means no timeout. Defaults to 30 seconds.
func WithTimeout(t time.Duration) Option {
	return func(c *config) error {
		if t < 0 {
			return fmt.Errorf("timeout must not be negative, got %s", t)
		}
		c.timeout = t
		return nil
	}
}

// WithMetrics configures metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) error {
		c.metrics = m
		return nil
	}
}

// WithMaxResponseSize bounds the number of response body bytes read per
// command. Defaults to 64 MiB.
func WithMaxResponseSize(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("max response size must be positive, got %d", n)
		}
		c.maxResponseSize = n
		return nil
	}
}
