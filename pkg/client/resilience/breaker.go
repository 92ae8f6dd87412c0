// Package resilience guards outbound HTTP calls with a circuit breaker.
package resilience

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// ErrUpstreamUnavailable reports a 5xx or 429 answer that counted as a breaker failure.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// NewCircuitBreaker builds a breaker that trips on consecutive failures or on
// an error rate above cfg.ErrorRatePercent once enough requests were seen.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*http.Response] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// transport errors and upstream 5xx trip the breaker; 4xx are the caller's problem
			return err == nil
		},
	}
	return gobreaker.NewCircuitBreaker[*http.Response](st)
}

// Transport is an http.RoundTripper executing each request through a circuit breaker.
type Transport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewTransport(next http.RoundTripper, breaker *gobreaker.CircuitBreaker[*http.Response]) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next, breaker: breaker}
}

// RoundTrip returns gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests without
// touching the network while the breaker is open.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var upstream *http.Response
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			upstream = resp
			return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}
		return resp, nil
	})
	if upstream != nil {
		// the status is still the caller's to inspect
		return upstream, nil
	}
	return resp, err
}

// State exposes the breaker state for logs and tests.
func (t *Transport) State() gobreaker.State {
	return t.breaker.State()
}
