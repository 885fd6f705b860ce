package main

import (
    "log"
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "lastmile/internal/api"
    "lastmile/internal/config"
    "lastmile/internal/metrics"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }
    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }
    metrics.RegisterDefault()

    mux := http.NewServeMux()

    // Routing
    mux.HandleFunc("/v1/routes/optimize", srvDeps.OptimizeHandler)
    mux.HandleFunc("/v1/routes/simulate", srvDeps.SimulateHandler)
    mux.HandleFunc("/v1/routes/metrics", srvDeps.RouteMetricsHandler)

    // Forecasting
    mux.HandleFunc("/v1/forecast", srvDeps.ForecastHandler)
    mux.HandleFunc("/v1/forecast/batch", srvDeps.ForecastBatchHandler)
    mux.HandleFunc("/v1/forecast/model/info", srvDeps.ForecastModelInfoHandler)

    // Inventory
    mux.HandleFunc("/v1/inventory/optimize", srvDeps.InventoryOptimizeHandler)
    mux.HandleFunc("/v1/inventory/simulate", srvDeps.InventorySimulateHandler)
    mux.HandleFunc("/v1/inventory/metrics", srvDeps.InventoryMetricsHandler)

    // Monitoring
    mux.HandleFunc("/v1/monitoring/dashboard", srvDeps.MonitoringDashboardHandler)
    mux.HandleFunc("/v1/monitoring/alerts", srvDeps.MonitoringAlertsHandler)
    mux.HandleFunc("/v1/monitoring/alerts/", srvDeps.MonitoringAlertsHandler)
    mux.HandleFunc("/v1/monitoring/stream", srvDeps.MonitoringStreamHandler)
    mux.HandleFunc("/v1/monitoring/ws", srvDeps.MonitoringWSHandler)

    // Runs and subscriptions
    mux.HandleFunc("/v1/runs", srvDeps.RunsHandler)
    mux.HandleFunc("/v1/runs/", srvDeps.RunByIDHandler)
    mux.HandleFunc("/v1/subscriptions", srvDeps.SubscriptionsHandler)
    mux.HandleFunc("/v1/subscriptions/", srvDeps.SubscriptionByIDHandler)

    // Admin
    mux.HandleFunc("/v1/admin/webhook-deliveries", srvDeps.WebhookDeliveriesHandler)
    mux.HandleFunc("/v1/admin/webhook-deliveries/", srvDeps.WebhookDeliveryRetryHandler)

    // Health and introspection
    mux.HandleFunc("/healthz", srvDeps.HealthHandler)
    mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
    mux.HandleFunc("/debug/info", srvDeps.DebugJSON)
    mux.HandleFunc("/openapi.yaml", srvDeps.OpenAPIHandler)
    mux.HandleFunc("/docs", srvDeps.DocsHandler)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    limiter := api.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
    handler := api.LogMiddleware(api.CORSMiddleware(limiter.Middleware(mux)))

    srv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           handler,
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on :%s", cfg.Port)
    if srvDeps.Pub != nil {
        worker := srvDeps.NewWebhookWorker()
        worker.Start()
    }
    srvDeps.StartMonitor()
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}
