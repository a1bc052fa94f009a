package providers

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

	"github.com/sony/gobreaker"
)

// maxBodyBytes bounds how much of a provider response is read.
const maxBodyBytes = 1 << 20

// BreakerConfig controls when the provider circuit breaker opens.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before going half-open.
	OpenTimeout time.Duration
	// HalfOpenRequests is how many calls a half-open breaker lets through; the
	// breaker closes once that many succeed in a row. Calls beyond it fail fast.
	HalfOpenRequests uint32
}

// DefaultBreakerConfig supplies any zero field of a BreakerConfig.
var DefaultBreakerConfig = BreakerConfig{
	MaxFailures:      5,
	OpenTimeout:      30 * time.Second,
	HalfOpenRequests: 10,
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errBodyTooLarge = errors.New("response body too large")
	errNotObject    = errors.New("response body is not a JSON object")
)

// response is a fully read provider reply.
type response struct {
	StatusCode int
	Body       []byte
}

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig.MaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig.OpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = DefaultBreakerConfig.HalfOpenRequests
	}
	maxFailures := cfg.MaxFailures

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}

// doRequest executes a single HTTP request through the circuit breaker and reads
// the body. Transport errors, 429 and 5xx count as breaker failures and are
// returned as errors. Other statuses are returned to the caller to interpret.
// There are no retries.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (response, error) {
	if client == nil {
		return response{}, errNoHTTPClient
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return response{}, err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, redact(execErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
		if readErr != nil {
			return nil, redact(readErr)
		}
		if len(body) > maxBodyBytes {
			return nil, errBodyTooLarge
		}

		return response{StatusCode: resp.StatusCode, Body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return response{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return response{}, err
	}

	resp, ok := result.(response)
	if !ok {
		return response{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// redact drops the request URL from transport errors; it carries the access key.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request failed: %w", uerr.Op, uerr.Err)
	}
	return err
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// decodeObject decodes a provider body that must be a JSON object.
// Blank, null, array and scalar bodies are rejected.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}

// present reports whether key is set to something other than null.
func present(obj map[string]json.RawMessage, key string) bool {
	raw, ok := obj[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
