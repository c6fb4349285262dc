// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the outbound request policy shared by every
// backend connector: a process-wide token bucket, a per-attempt deadline,
// and exponential backoff on transient failures.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/genoscope/pkg/types"
)

// RetryBaseDelay is the first backoff interval when a Policy does not set
// one. It doubles each attempt. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 3

// ErrBackendExhausted marks a request that kept failing transiently until
// the retry ceiling was reached.
var ErrBackendExhausted = errors.New("backend exhausted")

// ExhaustedError carries the attempt count and the last transient error.
// errors.Is(err, ErrBackendExhausted) reports true for it.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrBackendExhausted, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrBackendExhausted }

// StatusError reports an HTTP response with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status " + e.Status
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// TransientStatus reports whether an HTTP status code is worth retrying.
func TransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// IsTransient reports whether err is a failure a retry may fix: a network
// error, a per-attempt timeout, a 5xx, or a 429. Cancellation of the
// caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return TransientStatus(se.StatusCode)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Policy controls DoWithRetry.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// means no retries; a negative value selects the default (3).
	MaxRetries int

	// BaseDelay is the first backoff interval. Zero uses RetryBaseDelay.
	BaseDelay time.Duration

	// AttemptTimeout bounds each attempt, including reading the body.
	// Zero leaves attempts bounded only by the caller's context.
	AttemptTimeout time.Duration

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, err error)
}

// PolicyFromConfig builds the retry policy for the connector federation.
func PolicyFromConfig(cfg types.SearchConfig) Policy {
	return Policy{
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.RetryBaseDelay,
		AttemptTimeout: cfg.RequestTimeout,
	}
}

// NewLimiter returns the token bucket shared by all connectors. The rate
// depends on whether a credential is configured; the burst is one token so
// requests are spread evenly.
func NewLimiter(cfg types.SearchConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond()), 1)
}

// DoWithRetry sends req, waiting on limiter before every attempt, and
// retries transient failures with exponential backoff: BaseDelay, 2x, 4x...
//
// A successful or non-transient response is returned as-is; the caller
// must close its body, which also releases the attempt deadline. After
// MaxRetries retries the function returns an *ExhaustedError. If ctx is
// done while waiting or sleeping, ctx.Err() is returned.
func DoWithRetry(ctx context.Context, client *http.Client, limiter *rate.Limiter, req *http.Request, p Policy) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}

	for attempt := 0; ; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("waiting for rate limiter: %w", err)
			}
		}

		resp, err := do(ctx, client, req, p.AttemptTimeout)
		if ctx.Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, ctx.Err()
		}
		if err == nil && !TransientStatus(resp.StatusCode) {
			return resp, nil
		}
		if err == nil {
			err = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if !IsTransient(err) {
			return nil, err
		}
		if attempt >= maxRetries {
			return nil, &ExhaustedError{Attempts: attempt + 1, Err: err}
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * base
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func do(ctx context.Context, client *http.Client, req *http.Request, timeout time.Duration) (*http.Response, error) {
	if timeout <= 0 {
		return client.Do(req.Clone(ctx))
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	resp, err := client.Do(req.Clone(attemptCtx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases an attempt's deadline once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
