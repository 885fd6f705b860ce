package opt

import (
	"errors"
	"testing"

	"lastmile/internal/model"
	"lastmile/internal/rnd"
)

func newTestOptimizer() *Optimizer {
	o := New(rnd.New(42))
	o.Estimator = FixedEstimator{CostSavingsPct: 20, EfficiencyPct: 30}
	return o
}

func TestOptimizeEmptyInput(t *testing.T) {
	o := newTestOptimizer()
	resp, err := o.Optimize(model.OptimizeRequest{Vehicles: []model.Vehicle{vehicle(1, 10)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.OptimizedRoutes) != 0 || len(resp.DroneDeliveries) != 0 || len(resp.UnassignedDeliveries) != 0 {
		t.Errorf("empty input must yield empty routes, drones, and unassigned: %+v", resp)
	}
	if resp.TotalCost != 0 || resp.TotalDistanceKm != 0 || resp.TotalTimeHours != 0 {
		t.Errorf("totals must be zero for empty input")
	}
}

func TestOptimizePartitionProperty(t *testing.T) {
	droneOK := delivery(1, 33.455, -112.07, 2)
	droneOK.Priority = model.PriorityUrgent
	droneOK.ServiceTimeMinutes = 3

	served := delivery(2, 33.46, -112.07, 4)

	unreachable := delivery(3, 34.55, -112.07, 1)
	unreachable.TimeWindowEnd = 485

	o := newTestOptimizer()
	resp, err := o.Optimize(model.OptimizeRequest{
		Vehicles:             []model.Vehicle{vehicle(1, 10)},
		Deliveries:           []model.DeliveryNode{droneOK, served, unreachable},
		DroneDeliveryEnabled: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	placed := map[int]int{}
	for _, r := range resp.OptimizedRoutes {
		for _, s := range r.RouteSegments {
			if s.DeliveryNodeID != nil {
				placed[*s.DeliveryNodeID]++
			}
		}
	}
	for _, d := range resp.DroneDeliveries {
		placed[d.DeliveryNodeID]++
	}
	for _, id := range resp.UnassignedDeliveries {
		placed[id]++
	}
	for _, id := range []int{1, 2, 3} {
		if placed[id] != 1 {
			t.Errorf("node %d placed %d times, want exactly once", id, placed[id])
		}
	}
}

func TestOptimizeDroneDisabledAlways(t *testing.T) {
	d := delivery(1, 33.46, -112.07, 1)
	d.Priority = model.PriorityUrgent
	d.ServiceTimeMinutes = 2

	o := newTestOptimizer()
	resp, err := o.Optimize(model.OptimizeRequest{
		Vehicles:   []model.Vehicle{vehicle(1, 10)},
		Deliveries: []model.DeliveryNode{d},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.DroneDeliveries) != 0 {
		t.Errorf("drone list must stay empty when the channel is disabled")
	}
}

func TestOptimizeTotals(t *testing.T) {
	o := newTestOptimizer()
	resp, err := o.Optimize(model.OptimizeRequest{
		Vehicles:   []model.Vehicle{vehicle(1, 10)},
		Deliveries: []model.DeliveryNode{delivery(1, 33.46, -112.07, 1)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.OptimizedRoutes) != 1 {
		t.Fatalf("routes = %d, want 1", len(resp.OptimizedRoutes))
	}
	r := resp.OptimizedRoutes[0]
	if resp.TotalCost != r.TotalCost || resp.TotalDistanceKm != r.TotalDistanceKm {
		t.Errorf("totals do not match the single route")
	}
	wantHours := float64(r.TotalTimeMin) / 60
	if resp.TotalTimeHours != wantHours {
		t.Errorf("total hours = %v, want %v", resp.TotalTimeHours, wantHours)
	}
	if resp.CostSavingsPercent != 20 || resp.EfficiencyImprovement != 30 {
		t.Errorf("estimator figures not applied: %+v", resp)
	}
}

func TestOptimizeMalformedInput(t *testing.T) {
	o := newTestOptimizer()

	bad := delivery(1, 123.0, -112.07, 1)
	_, err := o.Optimize(model.OptimizeRequest{
		Vehicles:   []model.Vehicle{vehicle(1, 10)},
		Deliveries: []model.DeliveryNode{bad},
	})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("out-of-range latitude: got %v, want ErrMalformedInput", err)
	}

	_, err = o.Optimize(model.OptimizeRequest{Vehicles: []model.Vehicle{vehicle(1, 0)}})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("zero-capacity vehicle: got %v, want ErrMalformedInput", err)
	}

	neg := delivery(1, 33.46, -112.07, -1)
	_, err = o.Optimize(model.OptimizeRequest{
		Vehicles:   []model.Vehicle{vehicle(1, 10)},
		Deliveries: []model.DeliveryNode{neg},
	})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("negative demand: got %v, want ErrMalformedInput", err)
	}

	dup := delivery(1, 33.46, -112.07, 1)
	_, err = o.Optimize(model.OptimizeRequest{
		Vehicles:   []model.Vehicle{vehicle(1, 10)},
		Deliveries: []model.DeliveryNode{dup, dup},
	})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("duplicate node id: got %v, want ErrMalformedInput", err)
	}
}

func TestOptimizeDeterministicWithFixedSeed(t *testing.T) {
	build := func() model.OptimizeResponse {
		o := New(rnd.New(7))
		resp, err := o.Optimize(model.OptimizeRequest{
			Vehicles: []model.Vehicle{vehicle(1, 10), vehicle(2, 10)},
			Deliveries: []model.DeliveryNode{
				delivery(1, 33.46, -112.07, 4),
				delivery(2, 33.47, -112.08, 3),
				delivery(3, 33.44, -112.05, 5),
			},
			IncludeTraffic:       true,
			DroneDeliveryEnabled: true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.OptimizationTimeMs = 0 // wall clock differs between runs
		return resp
	}

	a, b := build(), build()
	if len(a.OptimizedRoutes) != len(b.OptimizedRoutes) {
		t.Fatalf("route counts differ across identical seeded runs")
	}
	for i := range a.OptimizedRoutes {
		ra, rb := a.OptimizedRoutes[i], b.OptimizedRoutes[i]
		if ra.TotalDistanceKm != rb.TotalDistanceKm || ra.TotalTimeMin != rb.TotalTimeMin {
			t.Errorf("route %d differs across identical seeded runs", i)
		}
	}
	if a.CostSavingsPercent != b.CostSavingsPercent {
		t.Errorf("sampled improvement figures differ across identical seeded runs")
	}
}
