package model

import "fmt"

// Priority is the closed set of delivery priorities.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a wire-format priority. Empty defaults to medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	}
	return "", fmt.Errorf("invalid priority: %q", s)
}

// Objective is the closed set of optimization objectives.
type Objective string

const (
	ObjectiveMinimizeCost     Objective = "minimize_cost"
	ObjectiveMinimizeTime     Objective = "minimize_time"
	ObjectiveMinimizeDistance Objective = "minimize_distance"
	ObjectiveBalanced         Objective = "balanced"
)

// ParseObjective validates a wire-format objective. Empty defaults to minimize_cost.
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case "":
		return ObjectiveMinimizeCost, nil
	case ObjectiveMinimizeCost, ObjectiveMinimizeTime, ObjectiveMinimizeDistance, ObjectiveBalanced:
		return Objective(s), nil
	}
	return "", fmt.Errorf("invalid optimization_objective: %q", s)
}

// Location is an immutable geographic point with a display address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

// DeliveryNode is a single delivery request. Time windows are minutes from
// midnight; demand is package count against vehicle capacity.
type DeliveryNode struct {
	NodeID             int      `json:"node_id"`
	Location           Location `json:"location"`
	Demand             int      `json:"demand"`
	ServiceTimeMinutes int      `json:"service_time_minutes"`
	TimeWindowStart    int      `json:"time_window_start"`
	TimeWindowEnd      int      `json:"time_window_end"`
	Priority           Priority `json:"priority"`
}

// Vehicle describes one ground vehicle for the duration of a single request.
type Vehicle struct {
	VehicleID       int      `json:"vehicle_id"`
	Capacity        int      `json:"capacity"`
	StartLocation   Location `json:"start_location"`
	MaxWorkingHours int      `json:"max_working_hours"`
	CostPerKm       float64  `json:"cost_per_km"`
}

// RouteSegment is one directed edge of a route. DeliveryNodeID is nil for the
// closing return-to-depot segment.
type RouteSegment struct {
	FromLocation      Location `json:"from_location"`
	ToLocation        Location `json:"to_location"`
	DistanceKm        float64  `json:"distance_km"`
	TravelTimeMinutes int      `json:"travel_time_minutes"`
	ArrivalTime       string   `json:"arrival_time"`
	DeliveryNodeID    *int     `json:"delivery_node_id,omitempty"`
}

// OptimizedRoute is the ordered plan for one vehicle. Segments form a
// contiguous path that starts and ends at the vehicle's start location.
type OptimizedRoute struct {
	VehicleID       int            `json:"vehicle_id"`
	RouteSegments   []RouteSegment `json:"route_segments"`
	TotalDistanceKm float64        `json:"total_distance_km"`
	TotalTimeMin    int            `json:"total_time_minutes"`
	TotalCost       float64        `json:"total_cost"`
	EfficiencyScore float64        `json:"efficiency_score"`
	DeliveriesCount int            `json:"deliveries_count"`
}

// DroneDelivery is the aerial-channel assignment for one delivery node.
type DroneDelivery struct {
	DeliveryNodeID     int    `json:"delivery_node_id"`
	DroneID            string `json:"drone_id"`
	EstFlightTimeMin   int    `json:"estimated_flight_time_minutes"`
	BatteryUsagePct    int    `json:"battery_usage_percent"`
	WeatherSuitable    bool   `json:"weather_suitable"`
}

// OptimizeRequest is the transport-level optimization request.
type OptimizeRequest struct {
	Vehicles              []Vehicle      `json:"vehicles"`
	Deliveries            []DeliveryNode `json:"deliveries"`
	OptimizationObjective Objective      `json:"optimization_objective"`
	IncludeTraffic        bool           `json:"include_traffic"`
	DroneDeliveryEnabled  bool           `json:"drone_delivery_enabled"`
}

// OptimizeResponse aggregates vehicle routes, drone plans, and totals.
// UnassignedDeliveries lists node ids neither channel could serve.
type OptimizeResponse struct {
	OptimizedRoutes        []OptimizedRoute `json:"optimized_routes"`
	DroneDeliveries        []DroneDelivery  `json:"drone_deliveries"`
	TotalCost              float64          `json:"total_cost"`
	TotalDistanceKm        float64          `json:"total_distance_km"`
	TotalTimeHours         float64          `json:"total_time_hours"`
	CostSavingsPercent     float64          `json:"cost_savings_percent"`
	EfficiencyImprovement  float64          `json:"efficiency_improvement_percent"`
	OptimizationTimeMs     int64            `json:"optimization_time_ms"`
	UnassignedDeliveries   []int            `json:"unassigned_deliveries"`
}

// RunSummary is the persisted record of one optimization run, kept for the
// admin stats endpoints. The optimizer itself is stateless per request.
type RunSummary struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id,omitempty"`
	Objective          Objective `json:"objective"`
	VehicleCount       int       `json:"vehicle_count"`
	DeliveryCount      int       `json:"delivery_count"`
	RouteCount         int       `json:"route_count"`
	DroneCount         int       `json:"drone_count"`
	UnassignedCount    int       `json:"unassigned_count"`
	TotalCost          float64   `json:"total_cost"`
	TotalDistanceKm    float64   `json:"total_distance_km"`
	TotalTimeHours     float64   `json:"total_time_hours"`
	OptimizationTimeMs int64     `json:"optimization_time_ms"`
	CreatedAt          string    `json:"created_at"`
}

// SubscriptionRequest registers a webhook endpoint for event notifications.
type SubscriptionRequest struct {
	TenantID string   `json:"tenant_id"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

// Subscription is a stored webhook subscription.
type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenant_id"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
