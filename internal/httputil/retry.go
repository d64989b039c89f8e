// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP plumbing shared by the catalog API
// client: rate limiting, request ids, and retry on HTTP 429.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

// RequestIDHeader carries a per-request UUID so server logs can be matched
// with client logs.
const RequestIDHeader = "X-Request-ID"

// Doer sends requests through a rate limiter and retries on HTTP 429.
type Doer struct {
	client     *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
	log        *logrus.Entry
}

// Options configures a Doer. Zero values pick the defaults.
type Options struct {
	UserAgent  string
	MaxRetries int
	// RateLimit is requests per second; 0 means unlimited.
	RateLimit float64
	Burst     int
}

// NewDoer wraps client. A nil client uses http.DefaultClient.
func NewDoer(client *http.Client, opts Options, log *logrus.Entry) *Doer {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Doer{
		client:     client,
		limiter:    rate.NewLimiter(limit, burst),
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		log:        log,
	}
}

// Do waits for the limiter, stamps the request headers, and sends it with
// DoWithRetry. The caller owns the returned body.
func (d *Doer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	start := time.Now()
	resp, err := DoWithRetry(ctx, d.client, req, d.maxRetries)
	fields := logrus.Fields{
		"request_id": id,
		"method":     req.Method,
		"path":       req.URL.Path,
		"duration":   time.Since(start).Round(time.Millisecond),
	}
	if err != nil {
		d.log.WithFields(fields).WithError(err).Debug("request failed")
		return nil, err
	}
	fields["status"] = resp.StatusCode
	d.log.WithFields(fields).Debug("request completed")
	return resp, nil
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) with exponential backoff starting at RetryBaseDelay and doubling
// each attempt.
//
// When maxRetries is 0 the default (3) is used. On each 429 the response
// body is drained and closed before sleeping. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last 429 response is returned so the caller can inspect it.
// The request body, if any, must be replayable through req.GetBody.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
