package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxDrain bounds how much of a response body is read before closing, so
// keep-alive connections can be reused without downloading large pages.
const maxDrain = 64 << 10

// Request describes one probe.
type Request struct {
	Protocol string
	// URL is host plus path without scheme, e.g. "example.com/health".
	URL     string
	Method  string
	Timeout time.Duration
}

// Target returns the absolute URL that will be requested.
func (r Request) Target() string {
	return r.Protocol + "://" + r.URL
}

// Response is the result of a completed probe.
type Response struct {
	StatusCode int
	Duration   time.Duration
}

// Prober runs probes. Implementations must honour Request.Timeout.
type Prober interface {
	Probe(ctx context.Context, req Request) (Response, error)
}

// HTTPProber probes over net/http.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber returns a prober that does not follow redirects, so a 301
// is reported as such and can be listed in success codes.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// NewHTTPProberWithClient wraps an existing client. Redirects follow the
// client's own CheckRedirect policy.
func NewHTTPProberWithClient(client *http.Client) *HTTPProber {
	return &HTTPProber{client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, req Request) (Response, error) {
	if req.Timeout <= 0 {
		return Response{}, fmt.Errorf("probe %s: timeout must be positive", req.Target())
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), req.Target(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("probe %s: %w", req.Target(), err)
	}
	httpReq.Header.Set("User-Agent", "uptime-monitor/1.0")

	start := time.Now()
	res, err := p.client.Do(httpReq)
	if err != nil {
		return Response{Duration: time.Since(start)}, fmt.Errorf("probe %s: %w", req.Target(), err)
	}
	defer res.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxDrain))

	return Response{
		StatusCode: res.StatusCode,
		Duration:   time.Since(start),
	}, nil
}

// IsTimeout reports whether err came from an exceeded probe deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
