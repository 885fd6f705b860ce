package api

import (
    "net/http"
    "net/http/httptest"
    "testing"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
    rl := NewRateLimiter(1, 2)
    h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
    }))

    codes := make([]int, 0, 3)
    for i := 0; i < 3; i++ {
        rr := httptest.NewRecorder()
        req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
        req.RemoteAddr = "10.0.0.1:5000"
        h.ServeHTTP(rr, req)
        codes = append(codes, rr.Code)
    }
    if codes[0] != 200 || codes[1] != 200 {
        t.Fatalf("burst requests should pass, got %v", codes)
    }
    if codes[2] != http.StatusTooManyRequests {
        t.Fatalf("third request = %d, want 429", codes[2])
    }

    // a different client has its own bucket
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
    req.RemoteAddr = "10.0.0.2:5000"
    h.ServeHTTP(rr, req)
    if rr.Code != 200 { t.Fatalf("second client = %d, want 200", rr.Code) }
}

func TestMetricPathCollapsesIDs(t *testing.T) {
    cases := map[string]string{
        "/v1/runs/abc-123":           "/v1/runs/:id",
        "/v1/runs":                   "/v1/runs",
        "/v1/subscriptions/sub_9":    "/v1/subscriptions/:id",
        "/v1/monitoring/alerts/ALT1": "/v1/monitoring/alerts/:id",
        "/healthz":                   "/healthz",
    }
    for in, want := range cases {
        if got := metricPath(in); got != want {
            t.Errorf("metricPath(%q) = %q, want %q", in, got, want)
        }
    }
}

func TestCORSPreflight(t *testing.T) {
    h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        t.Fatal("preflight must not reach the next handler")
    }))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/v1/routes/optimize", nil))
    if rr.Code != http.StatusNoContent { t.Fatalf("preflight = %d, want 204", rr.Code) }
    if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
        t.Fatal("missing CORS allow-origin header")
    }
}
