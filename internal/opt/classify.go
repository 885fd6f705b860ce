package opt

import "lastmile/internal/model"

// Drone channel limits: small packages, high priority, quick service.
const (
	maxDroneDemand     = 5
	maxDroneServiceMin = 5
)

// droneSuitable reports whether a delivery can be diverted to the aerial channel.
func droneSuitable(d model.DeliveryNode) bool {
	return d.Demand <= maxDroneDemand &&
		(d.Priority == model.PriorityHigh || d.Priority == model.PriorityUrgent) &&
		d.ServiceTimeMinutes <= maxDroneServiceMin
}

// Classify partitions deliveries into drone-eligible and vehicle-eligible sets.
// The partition is total and disjoint, and both outputs preserve input order.
// With the drone channel disabled everything is vehicle-eligible.
func Classify(deliveries []model.DeliveryNode, droneEnabled bool) (drone, vehicle []model.DeliveryNode) {
	drone = []model.DeliveryNode{}
	vehicle = []model.DeliveryNode{}
	for _, d := range deliveries {
		if droneEnabled && droneSuitable(d) {
			drone = append(drone, d)
		} else {
			vehicle = append(vehicle, d)
		}
	}
	return drone, vehicle
}
