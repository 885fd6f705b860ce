package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "lastmile/internal/metrics"
    "lastmile/internal/model"
    "lastmile/internal/opt"
    "lastmile/internal/store"
    "lastmile/internal/webhooks"
)

// OptimizeHandler handles POST /v1/routes/optimize
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var body optimizeBody
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    req, err := normalizeOptimizeRequest(body)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
        return
    }
    resp, err := s.Opt.Optimize(req)
    if err != nil {
        if errors.Is(err, opt.ErrMalformedInput) {
            metrics.OptimizationRuns.WithLabelValues(string(req.OptimizationObjective), "rejected").Inc()
            writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Optimization failed", err.Error(), r.URL.Path)
        return
    }
    metrics.OptimizationRuns.WithLabelValues(string(req.OptimizationObjective), "ok").Inc()
    metrics.OptimizationDuration.Observe(float64(resp.OptimizationTimeMs))
    metrics.UnassignedDeliveries.Observe(float64(len(resp.UnassignedDeliveries)))

    _, tenant := s.withTenant(r)
    run := model.RunSummary{
        TenantID:           tenant,
        Objective:          req.OptimizationObjective,
        VehicleCount:       len(req.Vehicles),
        DeliveryCount:      len(req.Deliveries),
        RouteCount:         len(resp.OptimizedRoutes),
        DroneCount:         len(resp.DroneDeliveries),
        UnassignedCount:    len(resp.UnassignedDeliveries),
        TotalCost:          resp.TotalCost,
        TotalDistanceKm:    resp.TotalDistanceKm,
        TotalTimeHours:     resp.TotalTimeHours,
        OptimizationTimeMs: resp.OptimizationTimeMs,
        CreatedAt:          time.Now().UTC().Format(time.RFC3339),
    }
    raw, _ := json.Marshal(resp)
    if err := s.Store.SaveRun(r.Context(), run, raw); err == nil {
        s.Pub.Emit(r.Context(), tenant, webhooks.EventOptimizationCompleted, map[string]any{
            "objective":   string(run.Objective),
            "routes":      run.RouteCount,
            "drones":      run.DroneCount,
            "unassigned":  run.UnassignedCount,
            "total_cost":  run.TotalCost,
            "duration_ms": run.OptimizationTimeMs,
        })
    }
    writeJSON(w, http.StatusOK, resp)
}

// SimulateHandler handles POST /v1/routes/simulate: same pipeline as optimize
// but nothing is persisted and no events are emitted.
func (s *Server) SimulateHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var body optimizeBody
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    req, err := normalizeOptimizeRequest(body)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid simulate request", err.Error(), r.URL.Path)
        return
    }
    resp, err := s.Opt.Optimize(req)
    if err != nil {
        if errors.Is(err, opt.ErrMalformedInput) {
            writeProblem(w, http.StatusBadRequest, "Invalid simulate request", err.Error(), r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Simulation failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"simulation": true, "result": resp})
}

// RouteMetricsHandler handles GET /v1/routes/metrics: aggregate stats over the
// recorded optimization runs for the tenant.
func (s *Server) RouteMetricsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, tenant := s.withTenant(r)
    stats, err := s.Store.RunStats(r.Context(), tenant)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Run stats failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "algorithm":  "greedy_nearest_neighbor",
        "objectives": []string{"minimize_cost", "minimize_time", "minimize_distance", "balanced"},
        "stats":      stats,
    })
}

// RunsHandler handles GET /v1/runs
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/runs" { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListRuns(r.Context(), tenant, cursor, limit)
    if err != nil { writeProblem(w, http.StatusInternalServerError, "List runs failed", err.Error(), r.URL.Path); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// RunByIDHandler handles GET /v1/runs/{id}: summary plus the stored response.
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/runs/") { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
    _, tenant := s.withTenant(r)
    run, raw, err := s.Store.GetRun(r.Context(), tenant, id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            writeProblem(w, http.StatusNotFound, "Run not found", "", r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Get run failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"run": run, "response": json.RawMessage(raw)})
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    _, tenant := s.withTenant(r)
    switch r.Method {
    case http.MethodPost:
        var req model.SubscriptionRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.URL == "" || len(req.Events) == 0 {
            writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
            return
        }
        if req.TenantID == "" { req.TenantID = tenant }
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSubscriptions(r.Context(), tenant, cursor, limit)
        if err != nil { writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path); return }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodDelete { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
    if err := s.Store.DeleteSubscription(r.Context(), tenant, id); err != nil {
        writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

// Admin: webhook deliveries list and retry
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/webhook-deliveries" { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    status := r.URL.Query().Get("status")
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListWebhookDeliveries(r.Context(), tenant, status, cursor, limit)
    if err != nil { writeProblem(w, http.StatusInternalServerError, "List deliveries failed", err.Error(), r.URL.Path); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
    if err := s.Store.RetryWebhookDelivery(r.Context(), tenant, id); err != nil {
        writeProblem(w, http.StatusInternalServerError, "Retry delivery failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusAccepted, map[string]int{"accepted": 1})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using Postgres store
    if pg, ok := s.Store.(*store.Postgres); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil {
            writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
            return
        }
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
