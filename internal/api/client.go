// Package api is the REST client for the FoodIt backend. It implements the
// restaurant, favourites, review and user repositories over JSON/HTTP.
//
// Every call runs in its own client span and is counted by operation and
// outcome. Failures surface as coded errors whose user message becomes
// the resource.Failure message shown to the user.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodit-dev/foodit/internal/config"
	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/internal/metrics"
)

const tracerName = "github.com/foodit-dev/foodit/internal/api"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the backend. A Client is safe for concurrent use; use
// WithTokens to give each signed-in user their own token.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	retries uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenStore sets where the bearer token is kept.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) {
		if ts != nil {
			c.tokens = ts
		}
	}
}

// WithMetrics records call counts and latencies on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetries sets how many times a failed GET is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = uint(n)
		}
	}
}

// New returns a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tokens:  &MemoryTokens{},
		tracer:  otel.Tracer(tracerName),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig returns a client configured from cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.APITimeout()}),
		WithRetries(cfg.API.Retries),
	}
	return New(cfg.API.BaseURL, append(base, opts...)...)
}

// WithTokens returns a copy of c that keeps its token in ts.
func (c *Client) WithTokens(ts TokenStore) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// Tokens returns the client's token store.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// Restaurants returns the restaurant repository.
func (c *Client) Restaurants() *Restaurants { return &Restaurants{c: c} }

// Favourites returns the favourites repository.
func (c *Client) Favourites() *Favourites { return &Favourites{c: c} }

// Reviews returns the review repository.
func (c *Client) Reviews() *Reviews { return &Reviews{c: c} }

// Users returns the account repository.
func (c *Client) Users() *Users { return &Users{c: c} }

// do performs one traced and counted call. in is sent as the JSON body
// when non-nil; the response is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, "foodit.api."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	err := c.send(ctx, method, path, in, out)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("api call failed", "operation", op, "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	c.metrics.RecordAPICall(op, outcome, time.Since(start))
	return err
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return errors.New("E501").Wrap(err)
		}
	}

	attempt := func() (struct{}, error) {
		err := c.roundTrip(ctx, method, path, body, out)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	if method != http.MethodGet || c.retries == 0 {
		_, err := attempt()
		return unwrapPermanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.retries+1),
	)
	return unwrapPermanent(err)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return errors.New("E501").Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return errors.New("E203").Wrap(err)
		}
		return errors.New("E201").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New("E202").WithDetail("invalid JSON body").Wrap(err)
	}
	return nil
}

// decodeError turns an error response into a FooditError. The server's
// message is kept so it reaches the user verbatim.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var b errors.Body
	if err := json.Unmarshal(data, &b); err != nil || b.Message == "" {
		return errors.New("E202").WithDetailf("status %d", resp.StatusCode)
	}
	return &errors.FooditError{
		Code:       b.Code,
		Category:   b.Category,
		Message:    b.Message,
		Detail:     b.Detail,
		Suggestion: b.Suggestion,
		Status:     resp.StatusCode,
	}
}

// retryable reports whether a GET may be tried again: the server was not
// reached, or it answered with a gateway or availability error.
func retryable(err error) bool {
	var fe *errors.FooditError
	if !stderrors.As(err, &fe) {
		return false
	}
	if fe.Code == "E201" {
		return true
	}
	switch fe.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fe.Code != "E203"
	}
	return false
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if stderrors.As(err, &perm) {
		return perm.Err
	}
	return err
}
