// Package httpx holds the retried request/response plumbing shared by the
// engine clients.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxBody caps how much of a response is read into memory.
const maxBody = 32 << 20

// Retry bounds the exponential backoff of a call. The zero value makes a
// single attempt.
type Retry struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

func (r Retry) backoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if r.InitialInterval > 0 {
		bo.InitialInterval = r.InitialInterval
	}
	bo.MaxElapsedTime = r.MaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}
	retries := r.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// RequestFunc builds a fresh request for every attempt so bodies can be replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Do runs the request with retries and returns the body of the first 2xx
// response. Transport errors, 429 and 5xx are retried; other statuses are not.
func Do(ctx context.Context, client *http.Client, retry Retry, build RequestFunc) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 512)}
			if serr.Temporary() {
				return serr
			}
			return backoff.Permanent(serr)
		}
		body = data
		return nil
	}
	if err := backoff.Retry(op, retry.backoff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// DoJSON is Do followed by decoding the body into target.
func DoJSON(ctx context.Context, client *http.Client, retry Retry, build RequestFunc, target any) error {
	body, err := Do(ctx, client, retry, build)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("json decode error: %w body=%s", err, truncate(string(body), 256))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
