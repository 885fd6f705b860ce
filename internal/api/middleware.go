package api

import (
    "log"
    "net"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "golang.org/x/time/rate"

    "lastmile/internal/metrics"
)

type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (sr *statusRecorder) WriteHeader(code int) {
    sr.status = code
    sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
    if f, ok := sr.ResponseWriter.(http.Flusher); ok { f.Flush() }
}

// LogMiddleware logs each request and records HTTP metrics.
func LogMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(sr, r)
        dur := time.Since(start)
        path := metricPath(r.URL.Path)
        status := strconv.Itoa(sr.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(dur.Seconds())
        log.Printf("%s %s %s %d %v", r.RemoteAddr, r.Method, r.URL.Path, sr.status, dur)
    })
}

// metricPath collapses id-bearing paths so label cardinality stays bounded.
func metricPath(p string) string {
    for _, prefix := range []string{"/v1/runs/", "/v1/subscriptions/", "/v1/monitoring/alerts/", "/v1/admin/webhook-deliveries/"} {
        if strings.HasPrefix(p, prefix) && len(p) > len(prefix) {
            return prefix + ":id"
        }
    }
    return p
}

// CORSMiddleware allows browser dashboards to call the API cross-origin.
func CORSMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Tenant-Id")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// RateLimiter applies a per-client token bucket keyed by remote IP.
type RateLimiter struct {
    mu      sync.Mutex
    clients map[string]*rate.Limiter
    rps     rate.Limit
    burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
    return &RateLimiter{clients: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
    rl.mu.Lock()
    defer rl.mu.Unlock()
    l, ok := rl.clients[key]
    if !ok {
        l = rate.NewLimiter(rl.rps, rl.burst)
        rl.clients[key] = l
    }
    return l
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        host, _, err := net.SplitHostPort(r.RemoteAddr)
        if err != nil { host = r.RemoteAddr }
        if !rl.limiterFor(host).Allow() {
            writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "", r.URL.Path)
            return
        }
        next.ServeHTTP(w, r)
    })
}
