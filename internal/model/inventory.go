package model

// InventoryNode is one stocking location considered for transfers.
type InventoryNode struct {
	NodeID         int     `json:"node_id"`
	CurrentStock   int     `json:"current_stock"`
	ForecastDemand float64 `json:"forecast_demand"`
	LeadTimeDays   int     `json:"lead_time"`
	HoldingCost    float64 `json:"holding_cost"`
	StockoutCost   float64 `json:"stockout_cost"`
}

// TransferRequest asks for rebalancing recommendations across nodes.
type TransferRequest struct {
	Nodes               []InventoryNode `json:"nodes"`
	PlanningHorizonDays int             `json:"planning_horizon"`
	MaxTransferCapacity int             `json:"max_transfer_capacity"`
}

// TransferRecommendation moves quantity units between two nodes.
type TransferRecommendation struct {
	FromNode        int     `json:"from_node"`
	ToNode          int     `json:"to_node"`
	Quantity        int     `json:"quantity"`
	Cost            float64 `json:"cost"`
	ExpectedBenefit float64 `json:"expected_benefit"`
}

// TransferResponse is the recommender output with aggregate expectations.
type TransferResponse struct {
	Transfers            []TransferRecommendation `json:"transfers"`
	TotalExpectedSavings float64                  `json:"total_expected_savings"`
	ConfidenceScore      float64                  `json:"confidence_score"`
	ModelVersion         string                   `json:"model_version"`
	OptimizationTimeMs   int64                    `json:"optimization_time_ms"`
}
