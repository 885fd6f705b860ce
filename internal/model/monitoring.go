package model

// SystemMetric is one tracked top-level metric with its target.
type SystemMetric struct {
	MetricName   string  `json:"metric_name"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`
	Unit         string  `json:"unit"`
	Status       string  `json:"status"` // healthy, warning, critical
	LastUpdated  string  `json:"last_updated"`
}

// Alert is a monitoring alert. Resolved alerts stay in the ring until evicted.
type Alert struct {
	AlertID   string `json:"alert_id"`
	Severity  string `json:"severity"` // info, warning, critical
	Component string `json:"component"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location,omitempty"`
	Resolved  bool   `json:"resolved"`
}

// ComponentHealth is the health snapshot of one pipeline component.
type ComponentHealth struct {
	ComponentID     string  `json:"component_id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	UptimePercent   float64 `json:"uptime_percent"`
	LatencyMs       int     `json:"latency_ms"`
	Throughput      float64 `json:"throughput"`
	LastHealthCheck string  `json:"last_health_check"`
}

// RegionalMetrics tracks throughput per operating region.
type RegionalMetrics struct {
	RegionID          string  `json:"region_id"`
	RegionName        string  `json:"region_name"`
	OrdersProcessed   int     `json:"orders_processed"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
	ActiveIssues      int     `json:"active_issues"`
	LastUpdated       string  `json:"last_updated"`
}

// Dashboard is the full monitoring snapshot served to clients.
type Dashboard struct {
	SystemOverview      map[string]any    `json:"system_overview"`
	ComponentHealth     []ComponentHealth `json:"component_health"`
	ActiveAlerts        []Alert           `json:"active_alerts"`
	RegionalPerformance []RegionalMetrics `json:"regional_performance"`
	KeyMetrics          []SystemMetric    `json:"key_metrics"`
}
