package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bidlens/bidlens/pkg/iohelper"
)

// middlewareTransport wraps a base RoundTripper to add request-level
// middleware: User-Agent, auth headers, and transport-level retry.
//
// Features:
//   - Fixed User-Agent header per request
//   - Auth headers confined to the host the redirect chain started on
//   - Retry on transport errors and HTTP 429/503 responses
type middlewareTransport struct {
	base        http.RoundTripper
	userAgent   string
	authHeaders http.Header
	retryCount  int
	retryDelay  time.Duration
}

// retryableStatusCodes are HTTP status codes that trigger automatic retry.
// 429 = Too Many Requests (rate limiting), 503 = Service Unavailable.
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

// RoundTrip implements http.RoundTripper with middleware.
func (m *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid mutating the caller's request.
	r := req.Clone(req.Context())

	// Set User-Agent.
	if m.userAgent != "" {
		r.Header.Set("User-Agent", m.userAgent)
	}

	// Auth headers are only attached while the redirect chain stays on the
	// original host. A redirect to another origin must not carry the
	// service token.
	if len(m.authHeaders) > 0 && sameOriginAsFirst(req) {
		for key, vals := range m.authHeaders {
			for _, v := range vals {
				r.Header.Add(key, v)
			}
		}
	}

	// Execute with retry logic.
	attempts := m.retryCount + 1
	if attempts < 1 {
		attempts = 1
	}

	var resp *http.Response
	var err error

	for i := 0; i < attempts; i++ {
		if i > 0 {
			if m.retryDelay > 0 {
				time.Sleep(m.retryDelay)
			}
			// Reset body for retry if possible.
			if r.GetBody != nil {
				r.Body, _ = r.GetBody()
			}
		}

		resp, err = m.base.RoundTrip(r)
		if err != nil {
			continue // Transport error — retry.
		}

		// Check for retryable HTTP status codes.
		if retryableStatusCodes[resp.StatusCode] && i < attempts-1 {
			// Drain and close the body before retry.
			iohelper.DrainAndClose(resp.Body)
			continue
		}

		return resp, nil
	}

	return resp, err
}

// sameOriginAsFirst walks the redirect chain backwards and reports whether
// req targets the same host the chain started on. Requests that are not
// redirect hops trivially match.
func sameOriginAsFirst(req *http.Request) bool {
	first := req.URL.Host
	for resp := req.Response; resp != nil && resp.Request != nil; resp = resp.Request.Response {
		first = resp.Request.URL.Host
	}
	return first == req.URL.Host
}

// needsMiddleware reports whether the config requires the middleware transport.
func needsMiddleware(cfg Config) bool {
	return cfg.UserAgent != "" ||
		len(cfg.AuthHeaders) > 0 ||
		cfg.RetryCount > 0
}

// redirectPolicy follows redirects up to maxRedirects hops. Auth headers
// do not need stripping here: the middleware transport re-evaluates origin
// on every hop.
func redirectPolicy() func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("httpclient: stopped after %d redirects", maxRedirects)
		}
		return nil
	}
}
