// Package opt implements the route-construction core: delivery partitioning
// between vehicle and drone channels, constrained greedy route building, and
// response aggregation. Each call is stateless and self-contained.
package opt

import (
	"errors"
	"fmt"
	"time"

	"lastmile/internal/geo"
	"lastmile/internal/model"
	"lastmile/internal/rnd"
)

// ErrMalformedInput marks validation failures that must fail fast rather than
// produce nonsensical routes. Infeasible deliveries are not errors; they
// surface in unassigned_deliveries.
var ErrMalformedInput = errors.New("malformed input")

// Optimizer holds the per-call policies. Construct one per caller (or per
// process) and share; there is no hidden mutable state between calls beyond
// the sampler stream.
type Optimizer struct {
	Geo          geo.Model
	Drones       DroneParams
	Estimator    Estimator
	WindowPolicy WindowPolicy
	// TimeBudget, when nonzero, bounds construction; checked between vehicle
	// iterations only.
	TimeBudget time.Duration

	now func() time.Time
}

// New returns an Optimizer with default policies driven by the given sampler.
func New(rng rnd.Sampler) *Optimizer {
	return &Optimizer{
		Geo:          geo.DefaultModel(rng),
		Drones:       DefaultDroneParams(),
		Estimator:    DefaultRangeEstimator(rng),
		WindowPolicy: WindowEndOnly,
	}
}

// Optimize is the single entry point: classify deliveries, build vehicle
// routes, plan the drone channel, and aggregate the response.
func (o *Optimizer) Optimize(req model.OptimizeRequest) (model.OptimizeResponse, error) {
	nowFn := o.now
	if nowFn == nil {
		nowFn = time.Now
	}
	start := nowFn()

	if err := validateRequest(req); err != nil {
		return model.OptimizeResponse{}, err
	}

	droneSet, vehicleSet := Classify(req.Deliveries, req.DroneDeliveryEnabled)

	opts := ConstructorOptions{
		Geo:          o.Geo,
		Traffic:      req.IncludeTraffic,
		WindowPolicy: o.WindowPolicy,
		now:          nowFn,
	}
	if o.TimeBudget > 0 {
		opts.Deadline = start.Add(o.TimeBudget)
	}
	routes, leftover := BuildRoutes(req.Vehicles, vehicleSet, opts)

	drones := PlanDrones(droneSet, o.Drones, o.Geo.RNG)

	resp := aggregate(routes, drones, leftover)
	resp.CostSavingsPercent, resp.EfficiencyImprovement = o.Estimator.Estimate(&resp)
	resp.OptimizationTimeMs = nowFn().Sub(start).Milliseconds()
	return resp, nil
}

// aggregate merges both channels into the response and derives totals.
func aggregate(routes []model.OptimizedRoute, drones []model.DroneDelivery, leftover []model.DeliveryNode) model.OptimizeResponse {
	resp := model.OptimizeResponse{
		OptimizedRoutes:      routes,
		DroneDeliveries:      drones,
		UnassignedDeliveries: []int{},
	}
	totalMinutes := 0
	for _, r := range routes {
		resp.TotalCost += r.TotalCost
		resp.TotalDistanceKm += r.TotalDistanceKm
		totalMinutes += r.TotalTimeMin
	}
	resp.TotalTimeHours = float64(totalMinutes) / 60
	for _, d := range leftover {
		resp.UnassignedDeliveries = append(resp.UnassignedDeliveries, d.NodeID)
	}
	return resp
}

func validateRequest(req model.OptimizeRequest) error {
	for _, v := range req.Vehicles {
		if v.Capacity < 1 {
			return fmt.Errorf("%w: vehicle %d: capacity must be >= 1", ErrMalformedInput, v.VehicleID)
		}
		if err := validateLocation(v.StartLocation); err != nil {
			return fmt.Errorf("%w: vehicle %d: %v", ErrMalformedInput, v.VehicleID, err)
		}
	}
	seen := make(map[int]struct{}, len(req.Deliveries))
	for _, d := range req.Deliveries {
		if _, dup := seen[d.NodeID]; dup {
			return fmt.Errorf("%w: duplicate delivery node_id %d", ErrMalformedInput, d.NodeID)
		}
		seen[d.NodeID] = struct{}{}
		if d.Demand < 0 {
			return fmt.Errorf("%w: delivery %d: demand must be >= 0", ErrMalformedInput, d.NodeID)
		}
		if d.ServiceTimeMinutes < 1 {
			return fmt.Errorf("%w: delivery %d: service_time_minutes must be >= 1", ErrMalformedInput, d.NodeID)
		}
		if err := validateLocation(d.Location); err != nil {
			return fmt.Errorf("%w: delivery %d: %v", ErrMalformedInput, d.NodeID, err)
		}
	}
	return nil
}

func validateLocation(l model.Location) error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", l.Lon)
	}
	return nil
}
