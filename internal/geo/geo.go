// Package geo models distances and travel times on a spherical Earth.
package geo

import (
	"math"

	"lastmile/internal/model"
	"lastmile/internal/rnd"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between a and b.
// Symmetric, and zero (within floating tolerance) when a == b.
func Haversine(a, b model.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// Model computes traffic-adjusted travel times. The sampler is injected so a
// fixed seed reproduces identical plans.
type Model struct {
	BaseSpeedKmh float64
	TrafficMin   float64
	TrafficMax   float64
	RNG          rnd.Sampler
}

// DefaultModel uses the 40 km/h average city speed and a 0.7-1.3 traffic band.
func DefaultModel(rng rnd.Sampler) Model {
	return Model{BaseSpeedKmh: 40, TrafficMin: 0.7, TrafficMax: 1.3, RNG: rng}
}

// Distance returns the great-circle distance between two locations.
func (m Model) Distance(a, b model.Location) float64 { return Haversine(a, b) }

// TravelTime converts a distance to whole minutes at the model's base speed.
// With traffic enabled the speed is scaled by a multiplier drawn from the
// configured band. The result is truncated, not rounded.
func (m Model) TravelTime(distanceKm float64, traffic bool) int {
	speed := m.BaseSpeedKmh
	if traffic {
		speed *= m.RNG.Uniform(m.TrafficMin, m.TrafficMax)
	}
	return int(distanceKm / speed * 60)
}
