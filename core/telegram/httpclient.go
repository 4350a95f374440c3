package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/promobot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls: tight
// dial and header timeouts, connection reuse, and transparent retries of
// transient transport failures below the API layer.
func BuildHTTPClient() *http.Client {
	return &http.Client{
		Timeout: defaultClientTimeout,
		Transport: &retryTransport{
			base: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       defaultIdleConnTimeout,
				TLSHandshakeTimeout:   defaultTLSHandshake,
				ResponseHeaderTimeout: defaultResponseTimeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
			maxRetries: defaultRetryAttempts,
			backoff:    defaultRetryBackoff,
		},
	}
}

// retryTransport retries transient failures. Requests whose body cannot be
// rewound are never replayed.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	attempts := t.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			clone, err := rewind(req)
			if err != nil {
				return nil, err
			}
			if clone == nil {
				return nil, lastErr
			}
			currReq = clone
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		if !sleepBackoff(req, t.backoff*time.Duration(attempt)) {
			return nil, req.Context().Err()
		}
	}

	return nil, lastErr
}

// rewind clones the request with a fresh body for a retry attempt. A nil
// request with nil error means the body cannot be replayed.
func rewind(req *http.Request) (*http.Request, error) {
	if req.GetBody == nil {
		if req.Body != nil {
			return nil, nil
		}
		return req.Clone(req.Context()), nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// sleepBackoff waits out the delay; false means the request context ended.
func sleepBackoff(req *http.Request, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}
