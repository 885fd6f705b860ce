// Package inventory recommends stock transfers between nodes. It stands in
// for a learned policy with a surplus-to-deficit heuristic and is independent
// of the routing core.
package inventory

import (
	"time"

	"lastmile/internal/model"
)

const (
	modelVersion = "ppo-v2.1.0"
	confidence   = 0.75

	// A transfer is recommended only when the source holds a clear surplus
	// and the destination expects clearly higher demand.
	minStockSurplus  = 200
	minForecastGap   = 100
	surplusShare     = 0.2
	maxSingleMove    = 300
	transferCostPer  = 0.1
	benefitPerUnit   = 0.5
	savingsPerUnit   = 0.5
)

type Recommender struct{}

func NewRecommender() *Recommender { return &Recommender{} }

// Recommend produces transfer recommendations for every surplus/deficit node
// pair. Pair order follows input order, so output is deterministic.
func (r *Recommender) Recommend(req model.TransferRequest) model.TransferResponse {
	start := time.Now()

	transfers := []model.TransferRecommendation{}
	capacityLeft := req.MaxTransferCapacity
	if capacityLeft <= 0 {
		capacityLeft = 1000
	}
	totalMoved := 0

	for i, from := range req.Nodes {
		for j, to := range req.Nodes {
			if i == j || capacityLeft <= 0 {
				continue
			}
			stockDiff := from.CurrentStock - to.CurrentStock
			forecastGap := to.ForecastDemand - from.ForecastDemand
			if stockDiff <= minStockSurplus || forecastGap <= minForecastGap {
				continue
			}
			qty := int(float64(stockDiff) * surplusShare)
			if qty > maxSingleMove {
				qty = maxSingleMove
			}
			if qty > capacityLeft {
				qty = capacityLeft
			}
			if qty <= 0 {
				continue
			}
			capacityLeft -= qty
			totalMoved += qty
			transfers = append(transfers, model.TransferRecommendation{
				FromNode:        from.NodeID,
				ToNode:          to.NodeID,
				Quantity:        qty,
				Cost:            float64(qty) * transferCostPer,
				ExpectedBenefit: float64(qty) * benefitPerUnit,
			})
		}
	}

	return model.TransferResponse{
		Transfers:            transfers,
		TotalExpectedSavings: float64(totalMoved) * savingsPerUnit,
		ConfidenceScore:      confidence,
		ModelVersion:         modelVersion,
		OptimizationTimeMs:   time.Since(start).Milliseconds(),
	}
}

// Simulate wraps Recommend with what-if metrics without applying anything.
func (r *Recommender) Simulate(req model.TransferRequest) map[string]any {
	result := r.Recommend(req)

	totalStock := 0
	for _, n := range req.Nodes {
		totalStock += n.CurrentStock
	}
	totalMoved := 0
	for _, t := range result.Transfers {
		totalMoved += t.Quantity
	}
	transferPct := 0.0
	if totalStock > 0 {
		transferPct = float64(totalMoved) / float64(totalStock) * 100
	}
	risk := "medium"
	if result.ConfidenceScore > 0.8 {
		risk = "low"
	}

	return map[string]any{
		"optimization_result": result,
		"simulation_metrics": map[string]any{
			"current_total_inventory":       totalStock,
			"total_transfer_volume":         totalMoved,
			"transfer_percentage":           transferPct,
			"estimated_implementation_time": len(result.Transfers) * 2,
			"risk_assessment":               risk,
		},
	}
}
