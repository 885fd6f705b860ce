package api

import (
    "encoding/json"
    "net/http"
    "time"

    "lastmile/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "port":                 s.Cfg.Port,
            "rate_rps":             s.Cfg.RateRPS,
            "rate_burst":           s.Cfg.RateBurst,
            "webhook_max_attempts": s.Cfg.WebhookMaxAttempts,
            "window_policy":        s.Cfg.Optimizer.WindowPolicy,
            "monitor_tick_seconds": s.Cfg.Monitor.TickSeconds,
            "has_database_url":     s.Cfg.DatabaseURL != "",
            "has_redis_url":        s.Cfg.RedisURL != "",
        },
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(info)
}
