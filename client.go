package iriapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/tanglekit/iriapi/metrics"
)

var logger = logging.Logger("iriapi")

const (
	outcomeOK         = "ok"
	outcomeValidation = "validation"
	outcomeTransport  = "transport"
	outcomeDecode     = "decode"
)

var errResponseTooLarge = errors.New("response body exceeds maximum size")

// Client sends commands to a single node endpoint. A Client holds no mutable
// state and is safe for concurrent use.
type Client struct {
	endpoint        string
	httpClient      Doer
	metrics         *metrics.Metrics
	maxResponseSize int64
}

// New instantiates a client for the node command API served at endpoint,
// which must be an absolute http or https URL.
func New(endpoint string, options ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint:        u.String(),
		httpClient:      opts.httpClient,
		metrics:         opts.metrics,
		maxResponseSize: opts.maxResponseSize,
	}, nil
}

// Endpoint returns the URL commands are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// GetTrytes returns the raw transaction trytes of the transactions with the
// given hashes. Every hash must be valid, and at least one must be given;
// otherwise ErrValidation is returned and no request is sent.
func (c *Client) GetTrytes(ctx context.Context, hashes []string) (*GetTrytesResponse, error) {
	var resp GetTrytesResponse
	if err := c.Send(ctx, NewGetTrytesCommand(hashes), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTrytes sends a single getTrytes command to endpoint using a client
// with default options. An endpoint that is not a valid URL is reported as
// ErrTransport.
func GetTrytes(ctx context.Context, endpoint string, hashes []string) (*GetTrytesResponse, error) {
	cmd := NewGetTrytesCommand(hashes)
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	c, err := New(endpoint)
	if err != nil {
		return nil, ErrTransport{Command: cmd.Name(), Endpoint: endpoint, Err: err}
	}
	var resp GetTrytesResponse
	if err := c.Send(ctx, cmd, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send validates cmd, posts it to the node and decodes the response into v.
// The returned error is one of ErrValidation, ErrTransport or ErrDecode.
// v is only written to when the response decodes successfully.
func (c *Client) Send(ctx context.Context, cmd Command, v any) error {
	start := time.Now()
	outcome := outcomeOK
	var status int
	if c.metrics != nil {
		defer func() {
			c.metrics.RecordCommandLatency(context.Background(), time.Since(start), cmd.Name(), outcome, status)
		}()
	}

	if err := cmd.validate(); err != nil {
		outcome = outcomeValidation
		return err
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		// Command variants only marshal plain strings and slices.
		outcome = outcomeValidation
		return err
	}

	status, respBody, err := c.post(ctx, body)
	if errors.Is(err, errResponseTooLarge) {
		outcome = outcomeDecode
		return ErrDecode{Command: cmd.Name(), StatusCode: status, Err: err}
	}
	if err != nil {
		outcome = outcomeTransport
		logger.Debugw("Failed to send command", "command", cmd.Name(), "endpoint", c.endpoint, "err", err)
		return ErrTransport{Command: cmd.Name(), Endpoint: c.endpoint, StatusCode: status, Err: err}
	}

	if status < 200 || status > 299 {
		if msg, ok := nodeError(respBody); ok {
			outcome = outcomeDecode
			logger.Debugw("Node returned error", "command", cmd.Name(), "status", status, "error", msg)
			return ErrDecode{Command: cmd.Name(), StatusCode: status, NodeError: msg}
		}
		outcome = outcomeTransport
		logger.Debugw("Node returned non-2xx status", "command", cmd.Name(), "status", status)
		return ErrTransport{Command: cmd.Name(), Endpoint: c.endpoint, StatusCode: status}
	}
	// A 2xx body is only taken as an error envelope when it is not a valid
	// response, so unknown fields such as "error" on a success are ignored.
	if err := json.Unmarshal(respBody, v); err != nil {
		outcome = outcomeDecode
		if msg, ok := nodeError(respBody); ok {
			logger.Debugw("Node returned error", "command", cmd.Name(), "status", status, "error", msg)
			return ErrDecode{Command: cmd.Name(), StatusCode: status, NodeError: msg}
		}
		logger.Debugw("Failed to decode response", "command", cmd.Name(), "err", err)
		return ErrDecode{Command: cmd.Name(), StatusCode: status, Err: err}
	}
	logger.Debugw("Command completed", "command", cmd.Name(), "status", status, "time", time.Since(start))
	return nil
}

// post sends body to the endpoint and returns the status code and body of
// the response. errResponseTooLarge is returned when the body exceeds the
// maximum size.
func (c *Client) post(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	setCommandHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if int64(len(b)) > c.maxResponseSize {
		return resp.StatusCode, nil, errResponseTooLarge
	}
	return resp.StatusCode, b, nil
}
