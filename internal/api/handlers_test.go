package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/davidversegaming/prediction-market-explorer/internal/config"
	"github.com/davidversegaming/prediction-market-explorer/internal/service"
	"github.com/davidversegaming/prediction-market-explorer/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type fakeUpstream struct {
	srv   *httptest.Server
	calls atomic.Int64
	// lastQuery is the query string the upstream received.
	lastQuery url.Values
}

// newFakeUpstream serves the given status/body for every request and records
// call count and query parameters.
func newFakeUpstream(t *testing.T, status int, body string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.lastQuery = r.URL.Query()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newRouter(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	client := upstream.NewClient(&config.UpstreamConfig{BaseURL: upstreamURL, Timeout: 2}, log)
	svc := service.NewMarketService(client, log)

	r := gin.New()
	eventHandler := NewEventHandler(svc, log)
	r.GET("/api/events", eventHandler.ListEvents)
	r.GET("/api/events/:slug", eventHandler.GetEventBySlug)

	marketHandler := NewMarketHandler(svc, log)
	r.GET("/api/markets", marketHandler.ListMarkets)
	r.GET("/api/markets/:id", marketHandler.GetMarketByID)

	proxyHandler := NewProxyHandler(client, log)
	r.GET("/api/proxy", proxyHandler.Proxy)

	return r
}

func doRequest(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response %q is not an error envelope: %v", w.Body.String(), err)
	}
	return body["error"]
}

func TestProxyMissingPath(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `[]`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/proxy?limit=10")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if msg := errorBody(t, w); msg != "Path is required" {
		t.Errorf("error = %q, want Path is required", msg)
	}
	if up.calls.Load() != 0 {
		t.Errorf("upstream was called %d times, want 0", up.calls.Load())
	}
}

func TestProxyStripsPathParam(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `[{"id":"1"}]`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/proxy?path=/events&limit=5&active=true")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != `[{"id":"1"}]` {
		t.Errorf("body = %q, want verbatim upstream body", w.Body.String())
	}
	if up.lastQuery.Get("limit") != "5" || up.lastQuery.Get("active") != "true" {
		t.Errorf("forwarded query = %v", up.lastQuery)
	}
	if _, ok := up.lastQuery["path"]; ok {
		t.Error("path selector must be stripped before forwarding")
	}
}

func TestProxyUpstreamNotFound(t *testing.T) {
	up := newFakeUpstream(t, http.StatusNotFound, `{}`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/proxy?path=/events/missing")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if msg := errorBody(t, w); msg != "Not found" {
		t.Errorf("error = %q, want Not found", msg)
	}
}

func TestProxyUpstreamErrorStatusPassthrough(t *testing.T) {
	up := newFakeUpstream(t, http.StatusServiceUnavailable, `oops`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/proxy?path=/events")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want upstream 503 passed through", w.Code)
	}
	if msg := errorBody(t, w); msg == "" {
		t.Error("error message must be non-empty")
	}
}

func TestProxyNetworkFailure(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `[]`)
	upstreamURL := up.srv.URL
	up.srv.Close() // simulate upstream being unreachable

	r := newRouter(t, upstreamURL)
	w := doRequest(r, "/api/proxy?path=/events")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when no upstream status is known", w.Code)
	}
	if msg := errorBody(t, w); msg == "" {
		t.Error("error message must be non-empty")
	}
}

func TestProxyRejectsAbsolutePath(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `[]`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/proxy?path="+url.QueryEscape("https://evil.example.com/x"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if up.calls.Load() != 0 {
		t.Errorf("upstream was called %d times, want 0", up.calls.Load())
	}
}

func TestGetEventNotFound(t *testing.T) {
	up := newFakeUpstream(t, http.StatusNotFound, `{}`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/events/does-not-exist")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if msg := errorBody(t, w); msg != "Event not found" {
		t.Errorf("error = %q, want Event not found", msg)
	}
}

func TestGetEventEmptyUpstreamRecord(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `null`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/events/ghost")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for empty record", w.Code)
	}
	if msg := errorBody(t, w); msg != "Event not found" {
		t.Errorf("error = %q, want Event not found", msg)
	}
}

func TestGetEventNormalized(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `{
		"id": "1",
		"slug": "rain",
		"title": "Rain tomorrow?",
		"volume": "100.5",
		"markets": [{"id":"m1","question":"Q","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.7\",\"0.3\"]"}]
	}`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/events/rain")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var ev struct {
		Slug    string  `json:"slug"`
		Volume  float64 `json:"volume"`
		Markets []struct {
			Odds []struct {
				Label   string `json:"label"`
				Display string `json:"display"`
			} `json:"odds"`
		} `json:"markets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Slug != "rain" || ev.Volume != 100.5 {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Markets) != 1 || len(ev.Markets[0].Odds) != 2 {
		t.Fatalf("markets = %+v", ev.Markets)
	}
	if ev.Markets[0].Odds[0].Display != "70.0%" {
		t.Errorf("display = %q, want 70.0%%", ev.Markets[0].Odds[0].Display)
	}
}

func TestListEventsForwardsDefaults(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `[]`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/events")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "[]" {
		t.Errorf("body = %q, want empty array", w.Body.String())
	}

	q := up.lastQuery
	if q.Get("limit") != "50" || q.Get("order") != "volume" || q.Get("ascending") != "false" ||
		q.Get("active") != "true" || q.Get("closed") != "false" {
		t.Errorf("default filter not forwarded, got %v", q)
	}
}

func TestListEventsFilterOverrides(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, `[]`)
	r := newRouter(t, up.srv.URL)

	doRequest(r, "/api/events?limit=10&order=liquidity&ascending=true&closed=true")

	q := up.lastQuery
	if q.Get("limit") != "10" || q.Get("order") != "liquidity" || q.Get("ascending") != "true" || q.Get("closed") != "true" {
		t.Errorf("filter overrides not forwarded, got %v", q)
	}
}

func TestGetMarketNotFound(t *testing.T) {
	up := newFakeUpstream(t, http.StatusNotFound, `{}`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/markets/12345")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if msg := errorBody(t, w); msg != "Market not found" {
		t.Errorf("error = %q, want Market not found", msg)
	}
}

func TestListMarketsUpstreamError(t *testing.T) {
	up := newFakeUpstream(t, http.StatusBadGateway, `upstream broke`)
	r := newRouter(t, up.srv.URL)

	w := doRequest(r, "/api/markets")

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want upstream 502 passed through", w.Code)
	}
	if msg := errorBody(t, w); msg == "" {
		t.Error("error message must be non-empty")
	}
}
