package model

// ForecastRequest asks for a demand projection for one SKU/store pair.
type ForecastRequest struct {
	SKUID             int  `json:"sku_id"`
	StoreID           int  `json:"store_id"`
	Horizon           int  `json:"horizon"`
	IncludeConfidence bool `json:"include_confidence"`
}

// ForecastResponse carries p50/p90 projections per horizon day.
type ForecastResponse struct {
	SKUID        int       `json:"sku_id"`
	StoreID      int       `json:"store_id"`
	Horizon      int       `json:"horizon"`
	P50          []float64 `json:"p50"`
	P90          []float64 `json:"p90"`
	Confidence   []float64 `json:"confidence,omitempty"`
	MAPE         float64   `json:"mape"`
	ModelVersion string    `json:"model_version"`
}

// BatchForecastRequest bundles up to 100 forecast requests.
type BatchForecastRequest struct {
	Requests []ForecastRequest `json:"requests"`
}
