package opt

import (
	"fmt"

	"lastmile/internal/model"
	"lastmile/internal/rnd"
)

// DroneParams bound the sampled flight characteristics.
type DroneParams struct {
	FlightMinMinutes   int
	FlightMaxMinutes   int
	BatteryPerMinute   int
	BatteryCapPercent  int
	WeatherSuccessRate float64
}

func DefaultDroneParams() DroneParams {
	return DroneParams{
		FlightMinMinutes:   8,
		FlightMaxMinutes:   20,
		BatteryPerMinute:   4,
		BatteryCapPercent:  85,
		WeatherSuccessRate: 0.8,
	}
}

// PlanDrones assigns sequential drone identifiers and sampled flight estimates
// to the drone-eligible deliveries, in stable input order.
func PlanDrones(deliveries []model.DeliveryNode, p DroneParams, rng rnd.Sampler) []model.DroneDelivery {
	plans := make([]model.DroneDelivery, 0, len(deliveries))
	for i, d := range deliveries {
		flight := rng.IntN(p.FlightMinMinutes, p.FlightMaxMinutes)
		battery := flight * p.BatteryPerMinute
		if battery > p.BatteryCapPercent {
			battery = p.BatteryCapPercent
		}
		plans = append(plans, model.DroneDelivery{
			DeliveryNodeID:   d.NodeID,
			DroneID:          fmt.Sprintf("DRONE-%03d", i+1),
			EstFlightTimeMin: flight,
			BatteryUsagePct:  battery,
			WeatherSuitable:  rng.Chance(p.WeatherSuccessRate),
		})
	}
	return plans
}
