package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // OptimizationRuns counts optimizer runs by objective and outcome
    OptimizationRuns = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "optimization_runs_total", Help: "Optimization runs by objective and outcome."},
        []string{"objective", "outcome"},
    )
    // OptimizationDuration tracks optimizer wall time in milliseconds
    OptimizationDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "optimization_duration_ms", Help: "Optimizer wall time in ms.", Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}},
    )
    // UnassignedDeliveries tracks the unassigned remainder per run
    UnassignedDeliveries = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "optimization_unassigned_deliveries", Help: "Unassigned deliveries per run.", Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 200}},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latencies in milliseconds
    WebhookLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"event_type", "status"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(OptimizationRuns)
        Registry.MustRegister(OptimizationDuration)
        Registry.MustRegister(UnassignedDeliveries)
        Registry.MustRegister(WebhookDeliveries)
        Registry.MustRegister(WebhookLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
