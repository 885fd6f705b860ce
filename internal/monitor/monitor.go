// Package monitor keeps the telemetry state broadcast to dashboards. Values
// are perturbed on a ticker through the shared sampler; nothing here feeds
// back into the routing core.
package monitor

import (
	"fmt"
	"sync"
	"time"

	"lastmile/internal/model"
	"lastmile/internal/rnd"
)

const maxAlerts = 10

type Monitor struct {
	mu          sync.Mutex
	rng         rnd.Sampler
	now         func() time.Time
	alertChance float64

	metrics    []model.SystemMetric
	components []model.ComponentHealth
	regions    []model.RegionalMetrics
	alerts     []model.Alert
}

func New(rng rnd.Sampler, alertChance float64) *Monitor {
	m := &Monitor{rng: rng, now: time.Now, alertChance: alertChance}
	ts := m.now().UTC().Format(time.RFC3339)
	m.metrics = []model.SystemMetric{
		{MetricName: "Orders Processed", CurrentValue: 45678, TargetValue: 50000, Unit: "orders", Status: "healthy", LastUpdated: ts},
		{MetricName: "System Uptime", CurrentValue: 99.94, TargetValue: 99.9, Unit: "percent", Status: "healthy", LastUpdated: ts},
		{MetricName: "Processing Rate", CurrentValue: 1247, TargetValue: 1200, Unit: "orders/hour", Status: "healthy", LastUpdated: ts},
		{MetricName: "Active Alerts", CurrentValue: 0, TargetValue: 5, Unit: "alerts", Status: "healthy", LastUpdated: ts},
	}
	m.components = []model.ComponentHealth{
		{ComponentID: "demand_forecast", Name: "Demand Forecasting", Status: "healthy", UptimePercent: 99.8, LatencyMs: 45, Throughput: 1250.5, LastHealthCheck: ts},
		{ComponentID: "inventory", Name: "Inventory Optimization", Status: "healthy", UptimePercent: 99.6, LatencyMs: 62, Throughput: 840.0, LastHealthCheck: ts},
		{ComponentID: "routing", Name: "Route Optimization", Status: "healthy", UptimePercent: 99.9, LatencyMs: 120, Throughput: 310.2, LastHealthCheck: ts},
	}
	m.regions = []model.RegionalMetrics{
		{RegionID: "sw", RegionName: "Southwest", OrdersProcessed: 12450, EfficiencyPercent: 94.2, ActiveIssues: 1, LastUpdated: ts},
		{RegionID: "se", RegionName: "Southeast", OrdersProcessed: 10890, EfficiencyPercent: 92.8, ActiveIssues: 0, LastUpdated: ts},
		{RegionID: "ne", RegionName: "Northeast", OrdersProcessed: 14230, EfficiencyPercent: 95.1, ActiveIssues: 2, LastUpdated: ts},
	}
	return m
}

// Tick perturbs the tracked values and occasionally raises an alert. The
// raised alert, if any, is returned so the caller can broadcast it.
func (m *Monitor) Tick() *model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now().UTC().Format(time.RFC3339)

	m.metrics[0].CurrentValue += float64(m.rng.IntN(10, 50))
	m.metrics[2].CurrentValue += float64(m.rng.IntN(-50, 100))
	m.metrics[1].CurrentValue = clamp(m.metrics[1].CurrentValue+m.rng.Uniform(-0.01, 0.01), 99.0, 100.0)
	for i := range m.metrics {
		m.metrics[i].LastUpdated = ts
	}

	for i := range m.components {
		c := &m.components[i]
		c.LatencyMs = int(clamp(float64(c.LatencyMs+m.rng.IntN(-10, 15)), 10, 500))
		c.LastHealthCheck = ts
	}

	for i := range m.regions {
		r := &m.regions[i]
		r.OrdersProcessed += m.rng.IntN(5, 25)
		r.EfficiencyPercent = clamp(r.EfficiencyPercent+m.rng.Uniform(-0.5, 0.5), 80, 100)
		r.LastUpdated = ts
	}

	var raised *model.Alert
	if m.rng.Chance(m.alertChance) {
		a := m.newAlertLocked(ts)
		m.alerts = append([]model.Alert{a}, m.alerts...)
		if len(m.alerts) > maxAlerts {
			m.alerts = m.alerts[:maxAlerts]
		}
		raised = &a
	}
	m.metrics[3].CurrentValue = float64(m.activeAlertsLocked())
	return raised
}

var alertCatalog = []struct {
	severity, message string
}{
	{"warning", "Delivery delays detected in region"},
	{"info", "Forecast model refreshed"},
	{"critical", "Webhook delivery backlog growing"},
	{"warning", "Vehicle utilization below target"},
}

var alertComponents = []string{"Forecasting", "Inventory", "Routes", "Warehouse", "Delivery"}
var alertLocations = []string{"Dallas DC", "Houston Hub", "Austin Center", "System Wide"}

func (m *Monitor) newAlertLocked(ts string) model.Alert {
	kind := alertCatalog[m.rng.IntN(0, len(alertCatalog))]
	return model.Alert{
		AlertID:   fmt.Sprintf("ALT-%s-%04d", m.now().Format("20060102150405"), m.rng.IntN(1000, 10000)),
		Severity:  kind.severity,
		Component: alertComponents[m.rng.IntN(0, len(alertComponents))],
		Message:   kind.message,
		Timestamp: ts,
		Location:  alertLocations[m.rng.IntN(0, len(alertLocations))],
	}
}

func (m *Monitor) activeAlertsLocked() int {
	n := 0
	for _, a := range m.alerts {
		if !a.Resolved {
			n++
		}
	}
	return n
}

// Dashboard returns a point-in-time snapshot safe for concurrent callers.
func (m *Monitor) Dashboard() model.Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Dashboard{
		SystemOverview: map[string]any{
			"total_orders_today":     int(m.metrics[0].CurrentValue),
			"system_health":          m.overallStatusLocked(),
			"active_alerts":          m.activeAlertsLocked(),
			"data_points_per_second": m.rng.IntN(14000, 16000),
		},
		ComponentHealth:     append([]model.ComponentHealth{}, m.components...),
		ActiveAlerts:        append([]model.Alert{}, m.alerts...),
		RegionalPerformance: append([]model.RegionalMetrics{}, m.regions...),
		KeyMetrics:          append([]model.SystemMetric{}, m.metrics...),
	}
}

func (m *Monitor) overallStatusLocked() string {
	for _, a := range m.alerts {
		if !a.Resolved && a.Severity == "critical" {
			return "critical"
		}
	}
	if m.activeAlertsLocked() > 0 {
		return "warning"
	}
	return "healthy"
}

// Alerts returns the current alert ring, newest first.
func (m *Monitor) Alerts() []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Alert{}, m.alerts...)
}

// Resolve marks an alert resolved. Reports whether the id was found.
func (m *Monitor) Resolve(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].AlertID == id {
			m.alerts[i].Resolved = true
			m.metrics[3].CurrentValue = float64(m.activeAlertsLocked())
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
