package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ganaterm/pkg/ai"
	"ganaterm/pkg/stream"
)

func dripServer(t *testing.T, frames int, gap time.Duration, stallAfter int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; i < frames; i++ {
			if i == stallAfter {
				select {
				case <-r.Context().Done():
				case <-time.After(5 * time.Second):
				}
				return
			}
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"p%d \"}}]}\n\n", i)
			flusher.Flush()
			time.Sleep(gap)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_SlowStreamOutlivesTimeout(t *testing.T) {
	srv := dripServer(t, 6, 100*time.Millisecond, -1)
	client := newHTTPClient(300 * time.Millisecond)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	text, err := stream.Aggregate(context.Background(), stream.NewEventStream(resp), nil)
	if err != nil {
		t.Fatalf("stream cut short: %q, %v", text, err)
	}
	if text != "p0 p1 p2 p3 p4 p5 " {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestHTTPClient_StalledBodyTimesOut(t *testing.T) {
	srv := dripServer(t, 3, 0, 1)
	client := newHTTPClient(200 * time.Millisecond)

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer resp.Body.Close()

	start := time.Now()
	body, err := io.ReadAll(resp.Body)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected idle timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("idle timeout took %v", elapsed)
	}
	if !strings.Contains(string(body), "p0") {
		t.Fatalf("expected data before the stall, got %q", body)
	}
}

func TestHTTPClientFor_PrefersInjectedClient(t *testing.T) {
	injected := &http.Client{}
	if got := httpClientFor(ai.ProviderConfig{HTTPClient: injected}, 1, 60); got != injected {
		t.Fatal("expected injected client")
	}
	if got := httpClientFor(ai.ProviderConfig{}, 0, 60); got.Timeout != 0 {
		t.Fatalf("expected no whole-request deadline, got %v", got.Timeout)
	}
}
