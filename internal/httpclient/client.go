// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpclient provides the shared throttled, retrying HTTP client
// used by every stage that talks to scholarly APIs or publisher sites.
package httpclient

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-scraper/pkg/types"
)

// serviceLimitStatuses are the responses treated as "slow down" signals.
var serviceLimitStatuses = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

const defaultRetryCount = 5

// RetryBaseDelay controls the floor of the backoff on service-limit
// responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 3 * time.Second

// backoffDelay returns the wait before retry attempt n (0-based):
// RetryBaseDelay plus a 0.1*(2^n + jitter)-second exponential term.
func backoffDelay(attempt int) time.Duration {
	scale := float64(RetryBaseDelay) / float64(3*time.Second)
	exp := 0.1 * (math.Pow(2, float64(attempt)) + rand.Float64())
	return RetryBaseDelay + time.Duration(exp*scale*float64(time.Second))
}

// Transport is an http.RoundTripper that throttles outgoing requests with a
// token bucket and retries service-limit responses with exponential backoff.
// A nil limiter disables throttling.
type Transport struct {
	Base       http.RoundTripper
	Limiter    *rate.Limiter
	RetryCount int
	Logger     zerolog.Logger
}

// RoundTrip waits for a rate token, executes the request, and retries on
// HTTP 429/503. The token is re-acquired before every retry so the rate
// limit holds across backoff waits. After exhausting retries it returns an
// error naming the retry count.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	retries := t.RetryCount
	if retries == 0 {
		retries = defaultRetryCount
	} else if retries < 0 {
		retries = 0
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := base.RoundTrip(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !serviceLimitStatuses[resp.StatusCode] {
			return resp, nil
		}

		if attempt >= retries {
			resp.Body.Close()
			return nil, fmt.Errorf("%s %s: failed to avoid a service limit across %d retries",
				req.Method, req.URL, retries)
		}

		// Drain and close the body before sleeping.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := backoffDelay(attempt)
		t.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("url", req.URL.String()).
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Msg("hit a service limit, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// New builds an *http.Client from the shared HTTP settings: request timeout,
// requests-per-second throttle, and service-limit retry count. The timeout
// bounds the whole attempt chain, backoff waits included.
func New(cfg types.HTTPConfig, logger zerolog.Logger) *http.Client {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &Transport{
			Limiter:    limiter,
			RetryCount: cfg.RetryCount,
			Logger:     logger,
		},
	}
}
