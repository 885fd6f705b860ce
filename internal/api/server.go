// Package api implements HTTP handlers and helpers for the last-mile
// optimization service.
package api

import (
    "context"
    "net/http"
    "strings"
    "time"

    "lastmile/internal/config"
    "lastmile/internal/forecast"
    "lastmile/internal/inventory"
    "lastmile/internal/monitor"
    "lastmile/internal/opt"
    "lastmile/internal/rnd"
    "lastmile/internal/store"
    "lastmile/internal/webhooks"
)

// MonitorTopic is the broker topic carrying dashboard updates and alerts.
const MonitorTopic = "monitoring"

type Server struct {
    Cfg    config.Config
    Store  store.Store
    Pub    *webhooks.Publisher
    Broker EventBroker

    Opt       *opt.Optimizer
    Forecast  *forecast.Model
    Inventory *inventory.Recommender
    Monitor   *monitor.Monitor

    stopMonitor chan struct{}
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer(cfg config.Config) (*Server, error) {
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if err := sp.MigrateDir("db/migrations"); err != nil {
            return nil, err
        }
        s = sp
    }
    var broker EventBroker
    if cfg.RedisURL != "" {
        if rb, err := NewRedisBroker(cfg.RedisURL); err == nil { broker = rb } else { broker = NewBroker() }
    } else {
        broker = NewBroker()
    }

    seed := cfg.Optimizer.Seed
    if seed == 0 { seed = time.Now().UnixNano() }
    rng := rnd.New(seed)
    o := opt.New(rng)
    o.Geo.BaseSpeedKmh = cfg.Optimizer.BaseSpeedKmh
    o.Geo.TrafficMin = cfg.Optimizer.TrafficMin
    o.Geo.TrafficMax = cfg.Optimizer.TrafficMax
    if cfg.Optimizer.WindowPolicy == "strict" { o.WindowPolicy = opt.WindowStrict }
    if cfg.Optimizer.TimeBudgetMs > 0 { o.TimeBudget = time.Duration(cfg.Optimizer.TimeBudgetMs) * time.Millisecond }
    o.Drones = opt.DroneParams{
        FlightMinMinutes:   cfg.Optimizer.Drone.FlightMinMinutes,
        FlightMaxMinutes:   cfg.Optimizer.Drone.FlightMaxMinutes,
        BatteryPerMinute:   cfg.Optimizer.Drone.BatteryPerMinute,
        BatteryCapPercent:  cfg.Optimizer.Drone.BatteryCapPercent,
        WeatherSuccessRate: cfg.Optimizer.Drone.WeatherSuccessRate,
    }
    o.Estimator = opt.RangeEstimator{
        CostSavingsMin: cfg.Optimizer.Improvement.CostSavingsMin,
        CostSavingsMax: cfg.Optimizer.Improvement.CostSavingsMax,
        EfficiencyMin:  cfg.Optimizer.Improvement.EfficiencyMin,
        EfficiencyMax:  cfg.Optimizer.Improvement.EfficiencyMax,
        RNG:            rng,
    }

    return &Server{
        Cfg:       cfg,
        Store:     s,
        Pub:       webhooks.NewPublisher(s),
        Broker:    broker,
        Opt:       o,
        Forecast:  forecast.NewModel(rng),
        Inventory: inventory.NewRecommender(),
        Monitor:   monitor.New(rng, cfg.Monitor.AlertChance),
    }, nil
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
    // Tenant comes from a header; upstream gateway authenticates.
    tenant := r.Header.Get("X-Tenant-Id")
    if tenant == "" { tenant = "t_demo" }
    ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
    return ctx, tenant
}

type ctxKeyTenant struct{}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store, s.Cfg.WebhookMaxAttempts)
}

// StartMonitor runs the telemetry ticker until StopMonitor. Raised alerts go
// out both over the broker and as alert.raised webhooks.
func (s *Server) StartMonitor() {
    if s.stopMonitor != nil { return }
    s.stopMonitor = make(chan struct{})
    interval := time.Duration(s.Cfg.Monitor.TickSeconds) * time.Second
    if interval <= 0 { interval = 5 * time.Second }
    go func() {
        ticker := time.NewTicker(interval)
        defer ticker.Stop()
        for {
            select {
            case <-s.stopMonitor:
                return
            case <-ticker.C:
                alert := s.Monitor.Tick()
                if alert != nil {
                    s.Broker.Publish(MonitorTopic, SSEEvent{Type: "alert.raised", Data: map[string]any{"alert": alert}})
                    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
                    s.Pub.Emit(ctx, "t_demo", webhooks.EventAlertRaised, alert)
                    cancel()
                }
                d := s.Monitor.Dashboard()
                s.Broker.Publish(MonitorTopic, SSEEvent{Type: "dashboard.updated", Data: map[string]any{"system_overview": d.SystemOverview, "key_metrics": d.KeyMetrics}})
            }
        }
    }()
}

func (s *Server) StopMonitor() {
    if s.stopMonitor != nil {
        close(s.stopMonitor)
        s.stopMonitor = nil
    }
}
