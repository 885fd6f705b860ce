package api

import (
    "encoding/json"
    "fmt"
    "net/http"

    "lastmile/internal/model"
)

const maxInventoryNodes = 50

// InventoryOptimizeHandler handles POST /v1/inventory/optimize
func (s *Server) InventoryOptimizeHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    req, ok := s.decodeTransferRequest(w, r)
    if !ok { return }
    writeJSON(w, http.StatusOK, s.Inventory.Recommend(req))
}

// InventorySimulateHandler handles POST /v1/inventory/simulate
func (s *Server) InventorySimulateHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    req, ok := s.decodeTransferRequest(w, r)
    if !ok { return }
    writeJSON(w, http.StatusOK, s.Inventory.Simulate(req))
}

// InventoryMetricsHandler handles GET /v1/inventory/metrics
func (s *Server) InventoryMetricsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "model_type":        "Proximal Policy Optimization",
        "version":           "ppo-v2.1.0",
        "confidence_score":  0.75,
        "transfer_cost_per_unit":  0.1,
        "benefit_per_unit":        0.5,
        "max_single_transfer":     300,
        "surplus_threshold_units": 200,
        "forecast_gap_threshold":  100,
    })
}

func (s *Server) decodeTransferRequest(w http.ResponseWriter, r *http.Request) (model.TransferRequest, bool) {
    var req model.TransferRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return req, false
    }
    if len(req.Nodes) < 2 {
        writeProblem(w, http.StatusBadRequest, "Invalid inventory request", "at least two nodes are required", r.URL.Path)
        return req, false
    }
    if len(req.Nodes) > maxInventoryNodes {
        writeProblem(w, http.StatusBadRequest, "Invalid inventory request", fmt.Sprintf("at most %d nodes per request, got %d", maxInventoryNodes, len(req.Nodes)), r.URL.Path)
        return req, false
    }
    seen := map[int]struct{}{}
    for _, n := range req.Nodes {
        if _, dup := seen[n.NodeID]; dup {
            writeProblem(w, http.StatusBadRequest, "Invalid inventory request", fmt.Sprintf("duplicate node_id %d", n.NodeID), r.URL.Path)
            return req, false
        }
        seen[n.NodeID] = struct{}{}
        if n.CurrentStock < 0 || n.ForecastDemand < 0 {
            writeProblem(w, http.StatusBadRequest, "Invalid inventory request", fmt.Sprintf("node %d: stock and forecast must be >= 0", n.NodeID), r.URL.Path)
            return req, false
        }
    }
    return req, true
}
