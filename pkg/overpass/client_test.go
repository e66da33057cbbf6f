package overpass

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trailscan/brunnels/pkg/core"
	"github.com/trailscan/brunnels/pkg/geo"
)

const sampleResponse = `{
	"elements": [
		{
			"type": "way",
			"id": 123,
			"nodes": [1, 2],
			"geometry": [
				{"lat": 47.0, "lon": 8.0},
				{"lat": 47.001, "lon": 8.001}
			],
			"tags": {"bridge": "yes", "name": "Test Bridge"}
		}
	]
}`

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientOptions{
		BaseURL:    server.URL,
		RatePerSec: 1000,
		Burst:      100,
		HTTPClient: server.Client(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestClientQuery(t *testing.T) {
	var gotBody, gotAgent, gotMethod string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotAgent = r.Header.Get("User-Agent")
		gotMethod = r.Method
		w.Write([]byte(sampleResponse))
	}))

	elements, err := client.Query(t.Context(), "[out:json];way[bridge];out geom qt;")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(elements) != 1 || elements[0].ID != 123 {
		t.Fatalf("elements = %+v", elements)
	}
	el := elements[0]
	if len(el.Geometry) != 2 || el.Geometry[0].Lat != 47.0 {
		t.Errorf("geometry = %+v", el.Geometry)
	}
	if el.Tags["name"] != "Test Bridge" {
		t.Errorf("tags = %v", el.Tags)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotBody != "[out:json];way[bridge];out geom qt;" {
		t.Errorf("request body = %q", gotBody)
	}
	if gotAgent != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotAgent, DefaultUserAgent)
	}
}

func TestClientQueryCaching(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(sampleResponse))
	}))

	const query = "[out:json];way[bridge];out geom qt;"
	for i := 0; i < 3; i++ {
		elements, err := client.Query(t.Context(), query)
		if err != nil {
			t.Fatalf("Query() #%d error: %v", i, err)
		}
		if len(elements) != 1 {
			t.Fatalf("Query() #%d returned %d elements", i, len(elements))
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (cache)", got)
	}

	// A different query misses the cache.
	if _, err := client.Query(t.Context(), "[out:json];way[tunnel];out geom qt;"); err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestClientQueryParseError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited, but politely</html>"))
	}))

	_, err := client.Query(t.Context(), "[out:json];way[bridge];out geom qt;")
	if err == nil {
		t.Fatal("Query() should fail on malformed JSON")
	}
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != string(core.ErrParseError) {
		t.Errorf("error = %v, want %s", err, core.ErrParseError)
	}
}

func TestFetchBrunnelsQueryShape(t *testing.T) {
	var gotBody string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"elements": []}`))
	}))

	box := geo.BoundingBox{MinLat: 46, MinLon: 7, MaxLat: 46.5, MaxLon: 7.5}
	if _, err := client.FetchBrunnels(t.Context(), box); err != nil {
		t.Fatalf("FetchBrunnels() error: %v", err)
	}
	for _, fragment := range []string{"way[bridge]", "way[tunnel]", "out geom qt;", "(46.000000,7.000000,46.500000,7.500000)"} {
		if !strings.Contains(gotBody, fragment) {
			t.Errorf("query %q missing fragment %q", gotBody, fragment)
		}
	}
}

func TestWithRetryFactory(t *testing.T) {
	opts := RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}

	t.Run("recovers after transient failure", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requests.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("ok"))
		}))
		defer server.Close()

		factory := func() (*http.Request, error) {
			return http.NewRequest(http.MethodGet, server.URL, nil)
		}
		resp, err := WithRetryFactory(t.Context(), factory, server.Client(), opts)
		if err != nil {
			t.Fatalf("WithRetryFactory() error: %v", err)
		}
		resp.Body.Close()
		if got := requests.Load(); got != 2 {
			t.Errorf("server saw %d requests, want 2", got)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		factory := func() (*http.Request, error) {
			return http.NewRequest(http.MethodGet, server.URL, nil)
		}
		_, err := WithRetryFactory(t.Context(), factory, server.Client(), opts)
		if err == nil {
			t.Fatal("WithRetryFactory() should fail")
		}
		if got := requests.Load(); got != int32(opts.MaxAttempts) {
			t.Errorf("server saw %d requests, want %d", got, opts.MaxAttempts)
		}
		var appErr *core.AppError
		if !errors.As(err, &appErr) || appErr.Code != string(core.ErrServiceUnavailable) {
			t.Errorf("error = %v, want %s", err, core.ErrServiceUnavailable)
		}
	})
}

func TestCheckHealth(t *testing.T) {
	healthy := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "out meta") {
			t.Errorf("health check query = %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"elements": []}`))
	}))
	if err := healthy.CheckHealth(); err != nil {
		t.Errorf("CheckHealth() error: %v", err)
	}

	down := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	if err := down.CheckHealth(); err == nil {
		t.Error("CheckHealth() should fail on 502")
	}
}
