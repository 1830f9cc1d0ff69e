// Package dsa talks to the administrative REST API of a Teradata DSA
// backup-and-restore server.
package dsa

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/foomo/barctl/pkg/metrics"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const headerRequestID = "X-Request-Id"

type (
	Client struct {
		l          *zap.Logger
		baseURL    *url.URL
		httpClient *http.Client
		username   string
		password   string
		attempts   uint
		delay      time.Duration
		maxDelay   time.Duration
	}
	Option func(*Client)
	// Request describes a single call against the DSA API.
	Request struct {
		Method   string
		Endpoint string
		Body     any
		Params   url.Values
		Header   http.Header
		// Idempotent marks a request that may be replayed after a transport
		// failure. GET and HEAD always are.
		Idempotent bool
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New returns a client for the DSA server at baseURL, e.g. https://dsc:9090
func New(l *zap.Logger, baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("dsa base url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid dsa base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported dsa url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Errorf("dsa base url %q has no host", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	inst := &Client{
		l:          l.Named("dsa"),
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   3,
		delay:      250 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		if v != nil {
			o.httpClient = v
		}
	}
}

func WithBasicAuth(username, password string) Option {
	return func(o *Client) {
		o.username = username
		o.password = password
	}
}

// WithRetries sets how often a failed transport is retried.
func WithRetries(v int) Option {
	return func(o *Client) {
		if v < 0 {
			v = 0
		}
		o.attempts = uint(v) + 1
	}
}

func WithRetryDelay(delay, maxDelay time.Duration) Option {
	return func(o *Client) {
		o.delay = delay
		o.maxDelay = maxDelay
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// BaseURL returns the server url requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends req and decodes the DSA envelope.
// Transport failures are returned as errors. A DSA envelope is returned as
// Response regardless of the HTTP status, since DSA reports rejections there.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	if req.Method == "" {
		return nil, errors.New("request method is required")
	}

	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request body")
		}
		body = b
	}

	fullURL, err := c.buildURL(req.Endpoint, req.Params)
	if err != nil {
		return nil, err
	}

	var (
		start     = time.Now()
		requestID = uuid.New().String()
		l         = c.l.With(
			zap.String("method", req.Method),
			zap.String("endpoint", req.Endpoint),
			zap.String("request_id", requestID),
		)
		resp       *Response
		replayable = req.Idempotent || req.Method == http.MethodGet || req.Method == http.MethodHead
	)

	err = retry.Do(
		func() error {
			r, err := c.do(ctx, req, fullURL, requestID, body)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(c.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return isRetryable(err, replayable)
		}),
		retry.OnRetry(func(n uint, err error) {
			l.Warn("retrying dsa request", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)

	result := "success"
	if err != nil {
		result = "error"
	} else if !resp.IsValid() {
		result = "invalid"
	}
	metrics.RemoteRequestCounter.WithLabelValues(req.Method, result).Inc()
	metrics.RemoteRequestDuration.WithLabelValues(req.Method, result).Observe(time.Since(start).Seconds())

	if err != nil {
		l.Error("dsa request failed", zap.Error(err))
		return nil, err
	}
	l.Debug("dsa request done", zap.String("status", resp.Status), zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, req *Request, fullURL, requestID string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, reader)
	if err != nil {
		return nil, retry.Unrecoverable(errors.Wrap(err, "failed to create request"))
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, values := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(headerRequestID, requestID)
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if len(bytes.TrimSpace(respBody)) == 0 && httpResp.StatusCode < http.StatusBadRequest {
		return &Response{}, nil
	}

	resp, decodeErr := decodeResponse(respBody)
	if httpResp.StatusCode >= http.StatusBadRequest {
		if decodeErr == nil && resp.hasEnvelope() {
			return resp, nil
		}
		return nil, &HTTPError{
			Method:     req.Method,
			Endpoint:   req.Endpoint,
			StatusCode: httpResp.StatusCode,
			Body:       respBody,
		}
	}
	if decodeErr != nil {
		return nil, retry.Unrecoverable(errors.Wrap(decodeErr, "failed to decode response"))
	}
	return resp, nil
}

func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", errors.Wrap(err, "invalid endpoint")
	}
	if len(params) > 0 {
		ref.RawQuery = params.Encode()
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// isRetryable tells whether err may be followed by another attempt. A request
// that is not replayable is only sent again when the server cannot have
// applied it: the connection was never established or the answer was 429 or 503.
func isRetryable(err error, replayable bool) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if replayable {
			return httpErr.Temporary()
		}
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode == http.StatusServiceUnavailable
	}
	if replayable {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
