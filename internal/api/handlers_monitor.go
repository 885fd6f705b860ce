package api

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"
)

// MonitoringDashboardHandler handles GET /v1/monitoring/dashboard
func (s *Server) MonitoringDashboardHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    writeJSON(w, http.StatusOK, s.Monitor.Dashboard())
}

// MonitoringAlertsHandler handles GET /v1/monitoring/alerts and
// POST /v1/monitoring/alerts/{id}/resolve
func (s *Server) MonitoringAlertsHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path == "/v1/monitoring/alerts" {
        if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
        writeJSON(w, http.StatusOK, map[string]any{"alerts": s.Monitor.Alerts()})
        return
    }
    if strings.HasPrefix(r.URL.Path, "/v1/monitoring/alerts/") && strings.HasSuffix(r.URL.Path, "/resolve") {
        if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
        id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/monitoring/alerts/"), "/resolve")
        if !s.Monitor.Resolve(id) {
            writeProblem(w, http.StatusNotFound, "Alert not found", "", r.URL.Path)
            return
        }
        s.Broker.Publish(MonitorTopic, SSEEvent{Type: "alert.resolved", Data: map[string]any{"alert_id": id}})
        writeJSON(w, http.StatusOK, map[string]any{"alert_id": id, "resolved": true})
        return
    }
    writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
}

// MonitoringStreamHandler handles GET /v1/monitoring/stream (SSE)
func (s *Server) MonitoringStreamHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path); return }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")

    ch := s.Broker.Subscribe(MonitorTopic)
    defer s.Broker.Unsubscribe(MonitorTopic, ch)

    // initial heartbeat
    fmt.Fprintf(w, "event: heartbeat\n")
    fmt.Fprintf(w, "data: {\"ts\":\"%s\"}\n\n", time.Now().UTC().Format(time.RFC3339))
    flusher.Flush()

    notify := r.Context().Done()
    for {
        select {
        case <-notify:
            return
        case evt := <-ch:
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        case <-time.After(15 * time.Second):
            fmt.Fprintf(w, "event: heartbeat\n")
            fmt.Fprintf(w, "data: {\"ts\":\"%s\"}\n\n", time.Now().UTC().Format(time.RFC3339))
            flusher.Flush()
        }
    }
}
