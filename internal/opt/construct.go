package opt

import (
	"fmt"
	"math"
	"time"

	"lastmile/internal/geo"
	"lastmile/internal/model"
)

// WindowPolicy controls how time_window_start is treated during construction.
type WindowPolicy string

const (
	// WindowEndOnly enforces only time_window_end; early arrivals serve
	// immediately. This is the default behavior.
	WindowEndOnly WindowPolicy = "end_only"
	// WindowStrict makes early arrivals wait until the window opens before
	// service begins. Feasibility still checks the raw arrival against
	// time_window_end.
	WindowStrict WindowPolicy = "strict"
)

// Vehicles begin their day at 08:00.
const dayStartMinutes = 480

// ConstructorOptions configure one route-construction pass.
type ConstructorOptions struct {
	Geo          geo.Model
	Traffic      bool
	WindowPolicy WindowPolicy
	// Deadline, when nonzero, is checked between vehicle iterations. On
	// expiry the routes built so far are returned and the remaining pool
	// surfaces as unassigned.
	Deadline time.Time
	// now is overridable for deadline tests.
	now func() time.Time
}

// BuildRoutes constructs one route per vehicle, in vehicle input order, by
// greedy nearest-neighbor selection from a shared shrinking pool. Vehicle
// order is a deterministic dispatch priority: the first vehicle gets first
// pick, so the pass must stay sequential. Returns the produced routes and the
// deliveries no vehicle could serve.
//
// The input pool is not mutated; pool state is threaded explicitly through
// each vehicle step.
func BuildRoutes(vehicles []model.Vehicle, pool []model.DeliveryNode, opts ConstructorOptions) ([]model.OptimizedRoute, []model.DeliveryNode) {
	if opts.WindowPolicy == "" {
		opts.WindowPolicy = WindowEndOnly
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	remaining := append([]model.DeliveryNode{}, pool...)
	routes := []model.OptimizedRoute{}
	for _, v := range vehicles {
		if len(remaining) == 0 {
			break
		}
		if !opts.Deadline.IsZero() && opts.now().After(opts.Deadline) {
			break
		}
		route, rest := buildVehicleRoute(v, remaining, opts)
		remaining = rest
		if route != nil {
			routes = append(routes, *route)
		}
	}
	return routes, remaining
}

// candidate is a feasible next stop scored during the greedy scan.
type candidate struct {
	idx        int
	distanceKm float64
	travelMin  int
	arrival    int
}

// buildVehicleRoute consumes deliveries from the pool for a single vehicle and
// returns the route (nil when nothing was feasible) plus the updated pool.
func buildVehicleRoute(v model.Vehicle, pool []model.DeliveryNode, opts ConstructorOptions) (*model.OptimizedRoute, []model.DeliveryNode) {
	current := v.StartLocation
	used := 0
	now := dayStartMinutes
	segments := []model.RouteSegment{}
	served := 0

	for len(pool) > 0 && used < v.Capacity {
		best := candidate{idx: -1, distanceKm: math.MaxFloat64}
		for i, d := range pool {
			if used+d.Demand > v.Capacity {
				continue
			}
			dist := opts.Geo.Distance(current, d.Location)
			travel := opts.Geo.TravelTime(dist, opts.Traffic)
			arrival := now + travel
			if arrival > d.TimeWindowEnd {
				continue
			}
			// Strict less-than keeps the first-encountered candidate on ties.
			if dist < best.distanceKm {
				best = candidate{idx: i, distanceKm: dist, travelMin: travel, arrival: arrival}
			}
		}
		if best.idx < 0 {
			break
		}

		chosen := pool[best.idx]
		nodeID := chosen.NodeID
		segments = append(segments, model.RouteSegment{
			FromLocation:      current,
			ToLocation:        chosen.Location,
			DistanceKm:        best.distanceKm,
			TravelTimeMinutes: best.travelMin,
			ArrivalTime:       formatMinutes(best.arrival),
			DeliveryNodeID:    &nodeID,
		})
		served++

		serviceStart := best.arrival
		if opts.WindowPolicy == WindowStrict && serviceStart < chosen.TimeWindowStart {
			serviceStart = chosen.TimeWindowStart
		}
		current = chosen.Location
		used += chosen.Demand
		now = serviceStart + chosen.ServiceTimeMinutes

		// Global removal: later vehicles never see this delivery again.
		pool = append(pool[:best.idx:best.idx], pool[best.idx+1:]...)
	}

	if len(segments) == 0 {
		return nil, pool
	}

	// Close the path back to the depot. The return segment carries no
	// delivery reference.
	returnDist := opts.Geo.Distance(current, v.StartLocation)
	returnTravel := opts.Geo.TravelTime(returnDist, opts.Traffic)
	segments = append(segments, model.RouteSegment{
		FromLocation:      current,
		ToLocation:        v.StartLocation,
		DistanceKm:        returnDist,
		TravelTimeMinutes: returnTravel,
		ArrivalTime:       formatMinutes(now + returnTravel),
	})

	totalDist := 0.0
	totalTime := 0
	for _, s := range segments {
		totalDist += s.DistanceKm
		totalTime += s.TravelTimeMinutes
	}

	return &model.OptimizedRoute{
		VehicleID:       v.VehicleID,
		RouteSegments:   segments,
		TotalDistanceKm: totalDist,
		TotalTimeMin:    totalTime,
		TotalCost:       totalDist * v.CostPerKm,
		EfficiencyScore: efficiencyScore(served),
		DeliveriesCount: served,
	}, pool
}

// efficiencyScore grows with delivery count and is capped at 95.
func efficiencyScore(deliveries int) float64 {
	score := 60 + float64(deliveries)*5
	if score > 95 {
		score = 95
	}
	return score
}

// formatMinutes renders minutes-from-midnight as HH:MM.
func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
