package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	logging "github.com/ipfs/go-log/v2"
	"github.com/tanglekit/iriapi"
	"github.com/tanglekit/iriapi/metrics"
)

var logger = logging.Logger("retry")

// Getter fetches trytes by hash; *iriapi.Client implements it.
type Getter interface {
	GetTrytes(ctx context.Context, hashes []string) (*iriapi.GetTrytesResponse, error)
}

var _ Getter = (*iriapi.Client)(nil)

// GetTrytes calls g.GetTrytes, retrying with exponential backoff while the
// failure is a transport failure that may be transient: no response at all,
// or a 5xx status without a node error. Validation and decode failures, and
// context cancellation, are returned as is without retrying.
func GetTrytes(ctx context.Context, g Getter, hashes []string, options ...Option) (*iriapi.GetTrytesResponse, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	var attempt int
	op := func() (*iriapi.GetTrytesResponse, error) {
		attempt++
		if attempt > 1 && opts.metrics != nil {
			opts.metrics.RecordRetry(context.Background(), "getTrytes")
		}
		resp, err := g.GetTrytes(ctx, hashes)
		if err != nil && !Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(opts.backOff()),
		backoff.WithMaxTries(opts.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debugw("Retrying getTrytes", "attempt", attempt, "next", next, "err", err)
		}),
	}
	if opts.maxElapsed > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxElapsedTime(opts.maxElapsed))
	}
	return backoff.Retry(ctx, op, retryOpts...)
}

// Retryable reports whether err is a transport failure that may succeed if
// the command is sent again.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te iriapi.ErrTransport
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == 0 || te.StatusCode >= 500
}

type (
	// config contains all options for retrying.
	config struct {
		maxTries   uint
		maxElapsed time.Duration
		newBackOff func() backoff.BackOff
		metrics    *metrics.Metrics
	}

	// Option is a function that sets a value in a config.
	Option func(*config) error
)

func getOpts(opts []Option) (config, error) {
	cfg := config{
		maxTries: 3,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d error: %w", i, err)
		}
	}
	return cfg, nil
}

func (c config) backOff() backoff.BackOff {
	if c.newBackOff != nil {
		return c.newBackOff()
	}
	return backoff.NewExponentialBackOff()
}

// WithMaxTries sets the total number of attempts, including the first one.
// Defaults to 3.
func WithMaxTries(n uint) Option {
	return func(c *config) error {
		if n == 0 {
			return errors.New("max tries must be at least 1")
		}
		c.maxTries = n
		return nil
	}
}

// WithMaxElapsed bounds the total time spent retrying.
func WithMaxElapsed(d time.Duration) Option {
	return func(c *config) error {
		c.maxElapsed = d
		return nil
	}
}

// WithBackOff sets the function that creates the backoff policy of each
// call. Defaults to exponential backoff.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *config) error {
		c.newBackOff = f
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
