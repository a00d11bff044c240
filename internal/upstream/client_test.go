package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/davidversegaming/prediction-market-explorer/internal/config"
	"github.com/sirupsen/logrus"
)

func newTestClient(baseURL string) *Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewClient(&config.UpstreamConfig{BaseURL: baseURL, Timeout: 2}, log)
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"/events", true},
		{"/events/slug-with-dashes", true},
		{"/markets?closed=false", true},
		{"", false},
		{"events", false},
		{"//evil.example.com/steal", false},
		{`/\evil.example.com`, false},
		{"http://evil.example.com/", false},
		{"https://evil.example.com/events", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.ok && err != nil {
				t.Errorf("ValidatePath(%q) = %v, want nil", tt.path, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("ValidatePath(%q) = nil, want error", tt.path)
			}
		})
	}
}

func TestGetForwardsParamsAndHeaders(t *testing.T) {
	var gotAccept, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	params := url.Values{}
	params.Set("limit", "10")
	params.Set("active", "true")

	body, err := c.Get(context.Background(), "/events", params)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(body) != `[{"id":"1"}]` {
		t.Errorf("body = %q, want verbatim passthrough", body)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept header = %q", gotAccept)
	}
	wantQuery := "active=true&limit=10"
	if gotQuery != wantQuery {
		t.Errorf("query = %q, want %q", gotQuery, wantQuery)
	}
}

func TestGetStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		notFound bool
	}{
		{"not found", http.StatusNotFound, true},
		{"server error", http.StatusInternalServerError, false},
		{"unavailable", http.StatusServiceUnavailable, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail":"nope"}`))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			_, err := c.Get(context.Background(), "/events/missing", nil)
			if err == nil {
				t.Fatal("expected error")
			}

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			if statusErr.Code != tt.status {
				t.Errorf("Code = %d, want %d", statusErr.Code, tt.status)
			}
			if statusErr.NotFound() != tt.notFound {
				t.Errorf("NotFound() = %v, want %v", statusErr.NotFound(), tt.notFound)
			}
		})
	}
}

func TestGetNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(srv.URL)
	_, err := c.Get(context.Background(), "/events", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("network failure must not be a StatusError, got code %d", statusErr.Code)
	}
}

func TestGetRejectsInvalidPathWithoutCalling(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Get(context.Background(), "//evil.example.com/x", nil)

	var invalidPath *ErrInvalidPath
	if !errors.As(err, &invalidPath) {
		t.Fatalf("error = %v, want *ErrInvalidPath", err)
	}
	if calls.Load() != 0 {
		t.Errorf("upstream was called %d times, want 0", calls.Load())
	}
}
