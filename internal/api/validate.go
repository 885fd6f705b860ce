package api

import (
	"fmt"

	"lastmile/internal/model"
)

const (
	maxVehicles   = 20
	maxDeliveries = 200

	defaultServiceTimeMin = 10
	defaultWindowStart    = 480  // 08:00
	defaultWindowEnd      = 1080 // 18:00
	defaultWorkingHours   = 8
	defaultCostPerKm      = 0.5
)

// optimizeBody is the wire shape of an optimize request. include_traffic is a
// pointer so an absent field can default to true.
type optimizeBody struct {
	Vehicles              []model.Vehicle      `json:"vehicles"`
	Deliveries            []model.DeliveryNode `json:"deliveries"`
	OptimizationObjective string               `json:"optimization_objective"`
	IncludeTraffic        *bool                `json:"include_traffic"`
	DroneDeliveryEnabled  bool                 `json:"drone_delivery_enabled"`
}

// normalizeOptimizeRequest applies boundary limits and field defaults, and
// parses the closed enum types. Structural range checks (coordinates, demand,
// duplicate ids) belong to the optimizer and fail there with ErrMalformedInput.
func normalizeOptimizeRequest(body optimizeBody) (model.OptimizeRequest, error) {
	if len(body.Vehicles) > maxVehicles {
		return model.OptimizeRequest{}, fmt.Errorf("at most %d vehicles per request, got %d", maxVehicles, len(body.Vehicles))
	}
	if len(body.Deliveries) > maxDeliveries {
		return model.OptimizeRequest{}, fmt.Errorf("at most %d deliveries per request, got %d", maxDeliveries, len(body.Deliveries))
	}
	objective, err := model.ParseObjective(body.OptimizationObjective)
	if err != nil {
		return model.OptimizeRequest{}, err
	}

	req := model.OptimizeRequest{
		Vehicles:              body.Vehicles,
		Deliveries:            body.Deliveries,
		OptimizationObjective: objective,
		IncludeTraffic:        body.IncludeTraffic == nil || *body.IncludeTraffic,
		DroneDeliveryEnabled:  body.DroneDeliveryEnabled,
	}
	for i := range req.Vehicles {
		v := &req.Vehicles[i]
		if v.MaxWorkingHours == 0 { v.MaxWorkingHours = defaultWorkingHours }
		if v.CostPerKm == 0 { v.CostPerKm = defaultCostPerKm }
	}
	for i := range req.Deliveries {
		d := &req.Deliveries[i]
		if d.ServiceTimeMinutes == 0 { d.ServiceTimeMinutes = defaultServiceTimeMin }
		if d.TimeWindowStart == 0 && d.TimeWindowEnd == 0 {
			d.TimeWindowStart = defaultWindowStart
			d.TimeWindowEnd = defaultWindowEnd
		}
		p, err := model.ParsePriority(string(d.Priority))
		if err != nil {
			return model.OptimizeRequest{}, fmt.Errorf("delivery %d: %w", d.NodeID, err)
		}
		d.Priority = p
	}
	return req, nil
}
