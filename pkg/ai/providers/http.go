package providers

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"ganaterm/pkg/ai"
)

// httpClientFor returns the injected client or a new one bounded by the
// configured timeout. The default transport honours HTTP_PROXY/HTTPS_PROXY.
func httpClientFor(cfg ai.ProviderConfig, timeoutSeconds, fallbackSeconds int) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = fallbackSeconds
	}
	return newHTTPClient(time.Duration(timeoutSeconds) * time.Second)
}

// newHTTPClient bounds connecting, waiting for headers and every gap between
// body reads by timeout. There is no deadline on the whole exchange, so a
// long answer keeps streaming as long as data keeps arriving.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: &idleTimeoutTransport{base: transport, timeout: timeout}}
}

// idleTimeoutTransport cancels a request whose body stalls for longer than
// timeout.
type idleTimeoutTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

func (t *idleTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	body := &idleBody{ReadCloser: resp.Body, timeout: t.timeout, cancel: cancel}
	body.timer = time.AfterFunc(t.timeout, func() {
		body.expired.Store(true)
		cancel()
	})
	resp.Body = body
	return resp, nil
}

type idleBody struct {
	io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	expired atomic.Bool
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if b.expired.Load() {
		return n, fmt.Errorf("no response data for %s: %w", b.timeout, context.DeadlineExceeded)
	}
	b.timer.Reset(b.timeout)
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	defer b.cancel()
	return b.ReadCloser.Close()
}
