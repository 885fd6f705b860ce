package api

import (
    "encoding/json"
    "fmt"
    "net/http"

    "lastmile/internal/forecast"
    "lastmile/internal/model"
)

const (
    maxForecastHorizonDays     = 90
    defaultForecastHorizonDays = 30
)

// ForecastHandler handles POST /v1/forecast
func (s *Server) ForecastHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req model.ForecastRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateForecastRequest(req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid forecast request", err.Error(), r.URL.Path)
        return
    }
    if req.Horizon == 0 { req.Horizon = defaultForecastHorizonDays }
    writeJSON(w, http.StatusOK, s.Forecast.Predict(req))
}

// ForecastBatchHandler handles POST /v1/forecast/batch
func (s *Server) ForecastBatchHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req model.BatchForecastRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if len(req.Requests) == 0 {
        writeProblem(w, http.StatusBadRequest, "Invalid batch", "requests must not be empty", r.URL.Path)
        return
    }
    if len(req.Requests) > forecast.MaxBatch {
        writeProblem(w, http.StatusBadRequest, "Invalid batch", fmt.Sprintf("at most %d requests per batch, got %d", forecast.MaxBatch, len(req.Requests)), r.URL.Path)
        return
    }
    out := make([]model.ForecastResponse, 0, len(req.Requests))
    for _, fr := range req.Requests {
        if err := validateForecastRequest(fr); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid batch", err.Error(), r.URL.Path)
            return
        }
        if fr.Horizon == 0 { fr.Horizon = defaultForecastHorizonDays }
        out = append(out, s.Forecast.Predict(fr))
    }
    writeJSON(w, http.StatusOK, map[string]any{"forecasts": out, "count": len(out)})
}

// ForecastModelInfoHandler handles GET /v1/forecast/model/info
func (s *Server) ForecastModelInfoHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    writeJSON(w, http.StatusOK, s.Forecast.Info())
}

func validateForecastRequest(req model.ForecastRequest) error {
    if req.SKUID < 0 || req.StoreID < 0 {
        return fmt.Errorf("sku_id and store_id must be >= 0")
    }
    if req.Horizon < 0 || req.Horizon > maxForecastHorizonDays {
        return fmt.Errorf("horizon must be in [0,%d] days", maxForecastHorizonDays)
    }
    return nil
}
