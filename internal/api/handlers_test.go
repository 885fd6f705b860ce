package api

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "lastmile/internal/config"
    "lastmile/internal/model"
)

func testConfig() config.Config {
    return config.Config{
        Port:               "8080",
        RateRPS:            50,
        RateBurst:          100,
        WebhookMaxAttempts: 3,
        Optimizer: config.Optimizer{
            Seed:         42,
            BaseSpeedKmh: 40,
            TrafficMin:   0.7,
            TrafficMax:   1.3,
            WindowPolicy: "end_only",
            Drone: config.Drone{
                FlightMinMinutes: 8, FlightMaxMinutes: 20,
                BatteryPerMinute: 4, BatteryCapPercent: 85,
                WeatherSuccessRate: 0.8,
            },
            Improvement: config.Improvement{
                CostSavingsMin: 15, CostSavingsMax: 25,
                EfficiencyMin: 20, EfficiencyMax: 35,
            },
        },
        Monitor: config.Monitor{TickSeconds: 1, AlertChance: 0},
    }
}

func newTestServer(t *testing.T) *Server {
    t.Helper()
    s, err := NewServer(testConfig())
    if err != nil { t.Fatalf("NewServer: %v", err) }
    return s
}

func optimizeBodyJSON() []byte {
    body := map[string]any{
        "optimization_objective": "minimize_cost",
        "vehicles": []map[string]any{
            {"vehicle_id": 1, "capacity": 50, "start_location": map[string]any{"lat": 33.45, "lon": -112.07}},
        },
        "deliveries": []map[string]any{
            {"node_id": 1, "location": map[string]any{"lat": 33.46, "lon": -112.05}, "demand": 5},
            {"node_id": 2, "location": map[string]any{"lat": 33.44, "lon": -112.10}, "demand": 8, "priority": "high"},
        },
    }
    b, _ := json.Marshal(body)
    return b
}

func TestHealthReady(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    if rr.Code != 200 { t.Fatalf("health: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    if rr.Code != 200 { t.Fatalf("ready: got %d", rr.Code) }
}

func TestOptimizePersistsRun(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/routes/optimize", bytes.NewReader(optimizeBodyJSON()))
    req.Header.Set("Content-Type", "application/json")
    s.OptimizeHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("optimize: got %d body %s", rr.Code, rr.Body.String()) }
    var resp model.OptimizeResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if len(resp.OptimizedRoutes) == 0 { t.Fatal("expected at least one route") }

    // run must be listed
    rr = httptest.NewRecorder()
    s.RunsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
    if rr.Code != 200 { t.Fatalf("runs list: got %d", rr.Code) }
    var list struct {
        Items []model.RunSummary `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil { t.Fatalf("decode list: %v", err) }
    if len(list.Items) != 1 { t.Fatalf("runs listed = %d, want 1", len(list.Items)) }

    // and fetchable by id with the stored response
    rr = httptest.NewRecorder()
    s.RunByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/"+list.Items[0].ID, nil))
    if rr.Code != 200 { t.Fatalf("run by id: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), "optimized_routes") {
        t.Fatal("run by id should include the stored response")
    }

    rr = httptest.NewRecorder()
    s.RouteMetricsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/routes/metrics", nil))
    if rr.Code != 200 { t.Fatalf("route metrics: got %d", rr.Code) }
}

func TestOptimizeMalformedInput(t *testing.T) {
    s := newTestServer(t)
    body := []byte(`{"vehicles":[{"vehicle_id":1,"capacity":50,"start_location":{"lat":33.45,"lon":-112.07}}],"deliveries":[{"node_id":1,"location":{"lat":999,"lon":0},"demand":5}]}`)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/routes/optimize", bytes.NewReader(body))
    s.OptimizeHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("bad latitude: got %d, want 400", rr.Code) }
}

func TestOptimizeRejectsOversizedRequest(t *testing.T) {
    s := newTestServer(t)
    vehicles := make([]map[string]any, maxVehicles+1)
    for i := range vehicles {
        vehicles[i] = map[string]any{"vehicle_id": i + 1, "capacity": 10, "start_location": map[string]any{"lat": 33.45, "lon": -112.07}}
    }
    b, _ := json.Marshal(map[string]any{"vehicles": vehicles, "deliveries": []any{}})
    rr := httptest.NewRecorder()
    s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/routes/optimize", bytes.NewReader(b)))
    if rr.Code != http.StatusBadRequest { t.Fatalf("oversized: got %d, want 400", rr.Code) }
}

func TestSimulateDoesNotPersist(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.SimulateHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/routes/simulate", bytes.NewReader(optimizeBodyJSON())))
    if rr.Code != 200 { t.Fatalf("simulate: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), `"simulation":true`) {
        t.Fatal("simulate response should carry a simulation flag")
    }

    rr = httptest.NewRecorder()
    s.RunsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
    var list struct {
        Items []model.RunSummary `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil { t.Fatalf("decode list: %v", err) }
    if len(list.Items) != 0 { t.Fatalf("simulate persisted %d runs, want 0", len(list.Items)) }
}

func TestSubscriptionsLifecycle(t *testing.T) {
    s := newTestServer(t)
    // missing events rejected
    rr := httptest.NewRecorder()
    s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(`{"url":"https://example.com/hook"}`)))
    if rr.Code != http.StatusBadRequest { t.Fatalf("missing events: got %d, want 400", rr.Code) }

    rr = httptest.NewRecorder()
    s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(`{"url":"https://example.com/hook","events":["optimization.completed"],"secret":"sh"}`)))
    if rr.Code != http.StatusCreated { t.Fatalf("create: got %d", rr.Code) }
    var sub model.Subscription
    if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil { t.Fatalf("decode sub: %v", err) }
    if sub.ID == "" { t.Fatal("subscription id missing") }

    rr = httptest.NewRecorder()
    s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil))
    if rr.Code != 200 { t.Fatalf("list: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
    if rr.Code != http.StatusNoContent { t.Fatalf("delete: got %d", rr.Code) }
}

func TestForecastEndpoints(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.ForecastHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/forecast", strings.NewReader(`{"sku_id":7,"store_id":3}`)))
    if rr.Code != 200 { t.Fatalf("forecast: got %d", rr.Code) }
    var fc model.ForecastResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil { t.Fatalf("decode: %v", err) }
    if len(fc.P50) != 30 { t.Fatalf("default horizon = %d points, want 30", len(fc.P50)) }

    // horizon over the cap
    rr = httptest.NewRecorder()
    s.ForecastHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/forecast", strings.NewReader(`{"sku_id":7,"store_id":3,"horizon":120}`)))
    if rr.Code != http.StatusBadRequest { t.Fatalf("horizon cap: got %d, want 400", rr.Code) }

    rr = httptest.NewRecorder()
    s.ForecastBatchHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/forecast/batch", strings.NewReader(`{"requests":[{"sku_id":1,"store_id":1},{"sku_id":2,"store_id":1,"horizon":7}]}`)))
    if rr.Code != 200 { t.Fatalf("batch: got %d", rr.Code) }
    var batch struct {
        Count int `json:"count"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &batch); err != nil { t.Fatalf("decode batch: %v", err) }
    if batch.Count != 2 { t.Fatalf("batch count = %d, want 2", batch.Count) }

    rr = httptest.NewRecorder()
    s.ForecastBatchHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/forecast/batch", strings.NewReader(`{"requests":[]}`)))
    if rr.Code != http.StatusBadRequest { t.Fatalf("empty batch: got %d, want 400", rr.Code) }

    rr = httptest.NewRecorder()
    s.ForecastModelInfoHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/forecast/model/info", nil))
    if rr.Code != 200 { t.Fatalf("model info: got %d", rr.Code) }
}

func TestInventoryEndpoints(t *testing.T) {
    s := newTestServer(t)
    body := `{"nodes":[{"node_id":1,"current_stock":900,"forecast_demand":200},{"node_id":2,"current_stock":50,"forecast_demand":400}]}`
    rr := httptest.NewRecorder()
    s.InventoryOptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/inventory/optimize", strings.NewReader(body)))
    if rr.Code != 200 { t.Fatalf("inventory optimize: got %d", rr.Code) }
    var resp model.TransferResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil { t.Fatalf("decode: %v", err) }
    if len(resp.Transfers) == 0 { t.Fatal("expected a transfer from the surplus node") }

    rr = httptest.NewRecorder()
    s.InventorySimulateHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/inventory/simulate", strings.NewReader(body)))
    if rr.Code != 200 { t.Fatalf("inventory simulate: got %d", rr.Code) }

    // duplicate node ids rejected
    dup := `{"nodes":[{"node_id":1,"current_stock":10,"forecast_demand":5},{"node_id":1,"current_stock":20,"forecast_demand":5}]}`
    rr = httptest.NewRecorder()
    s.InventoryOptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/inventory/optimize", strings.NewReader(dup)))
    if rr.Code != http.StatusBadRequest { t.Fatalf("duplicate nodes: got %d, want 400", rr.Code) }

    rr = httptest.NewRecorder()
    s.InventoryMetricsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/inventory/metrics", nil))
    if rr.Code != 200 { t.Fatalf("inventory metrics: got %d", rr.Code) }
}

func TestMonitoringEndpoints(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.MonitoringDashboardHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/monitoring/dashboard", nil))
    if rr.Code != 200 { t.Fatalf("dashboard: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), "system_overview") {
        t.Fatal("dashboard should include system_overview")
    }

    rr = httptest.NewRecorder()
    s.MonitoringAlertsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/monitoring/alerts", nil))
    if rr.Code != 200 { t.Fatalf("alerts: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    s.MonitoringAlertsHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/monitoring/alerts/ALT-unknown/resolve", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("resolve unknown: got %d, want 404", rr.Code) }
}

func TestMonitoringStreamHeartbeat(t *testing.T) {
    s := newTestServer(t)
    ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
    defer cancel()
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodGet, "/v1/monitoring/stream", nil).WithContext(ctx)
    s.MonitoringStreamHandler(rr, req)
    if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
        t.Fatalf("content type = %q", ct)
    }
    if !strings.Contains(rr.Body.String(), "event: heartbeat") {
        t.Fatal("stream should open with a heartbeat event")
    }
}

func TestDebugInfo(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.DebugJSON(rr, httptest.NewRequest(http.MethodGet, "/debug/info", nil))
    if rr.Code != 200 { t.Fatalf("debug info: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), "window_policy") {
        t.Fatal("debug info should echo the window policy")
    }
}
