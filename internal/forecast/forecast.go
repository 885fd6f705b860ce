// Package forecast is the demand-forecasting stand-in: it returns
// randomly-perturbed projections built from a deterministic base, a growth
// trend, and a weekly seasonal pattern. It is independent of the routing core.
package forecast

import (
	"math"

	"lastmile/internal/model"
	"lastmile/internal/rnd"
)

const (
	monthlyGrowth   = 0.02
	weeklyAmplitude = 100.0
	noiseBand       = 50.0
	confidenceFloor = 0.7
	modelMAPE       = 6.8
	modelVersion    = "tft-v1.2.0"
)

// MaxBatch bounds a single batch request.
const MaxBatch = 100

type Model struct {
	RNG rnd.Sampler
}

func NewModel(rng rnd.Sampler) *Model { return &Model{RNG: rng} }

// Predict projects demand over the horizon. The base level is a stable
// function of the SKU/store pair so repeated calls describe the same series;
// only the noise term is sampled.
func (m *Model) Predict(req model.ForecastRequest) model.ForecastResponse {
	base := 800 + float64(req.SKUID%1000) + float64(req.StoreID%500)

	p50 := make([]float64, req.Horizon)
	p90 := make([]float64, req.Horizon)
	confidence := make([]float64, req.Horizon)
	for day := 0; day < req.Horizon; day++ {
		trend := base * (1 + monthlyGrowth*float64(day)/30)
		seasonal := weeklyAmplitude * math.Sin(2*math.Pi*float64(day)/7)
		noise := m.RNG.Uniform(-noiseBand, noiseBand)
		p50[day] = trend + seasonal + noise
		p90[day] = p50[day] * 1.2
		confidence[day] = math.Max(confidenceFloor, 0.95-0.02*float64(day))
	}

	resp := model.ForecastResponse{
		SKUID:        req.SKUID,
		StoreID:      req.StoreID,
		Horizon:      req.Horizon,
		P50:          p50,
		P90:          p90,
		MAPE:         modelMAPE,
		ModelVersion: modelVersion,
	}
	if req.IncludeConfidence {
		resp.Confidence = confidence
	}
	return resp
}

// Info describes the stand-in model for the info endpoint.
func (m *Model) Info() map[string]any {
	return map[string]any{
		"model_type":         "Temporal Fusion Transformer",
		"version":            modelVersion,
		"accuracy_mape":      modelMAPE,
		"supported_horizons": "1-90 days",
		"update_frequency":   "daily",
		"features": []string{
			"historical sales",
			"weather data",
			"promotional events",
			"holiday indicators",
		},
	}
}
