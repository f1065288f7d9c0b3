package optimizer

import (
	"encoding/json"

	"gonum.org/v1/gonum/stat"

	"github.com/gridflex/gridflex/core/model"
)

// Savings compares the optimized schedule against running every input
// workload immediately at current conditions.
type Savings struct {
	ImmediateCost        float64 `json:"immediate_cost"`
	OptimizedCost        float64 `json:"optimized_cost"`
	CostSavings          float64 `json:"cost_savings"`
	CostSavingsPercent   float64 `json:"cost_savings_percent"`
	ImmediateCarbonKg    float64 `json:"immediate_carbon_kg"`
	OptimizedCarbonKg    float64 `json:"optimized_carbon_kg"`
	CarbonSavingsKg      float64 `json:"carbon_savings_kg"`
	CarbonSavingsPercent float64 `json:"carbon_savings_percent"`
	FlexRevenue          float64 `json:"flex_revenue"`
	TotalBenefit         float64 `json:"total_benefit"`
}

// Savings computes the aggregate report. The baseline applies the mean
// price and carbon intensity of the first three forecast signals to each
// input workload's total energy; optimized totals fold the produced
// decisions only. Percentages are 0 when the baseline is 0.
func (e *Engine) Savings(decisions []model.Decision, workloads []model.Workload, forecast []model.GridSignal) Savings {
	n := len(forecast)
	if n > 3 {
		n = 3
	}
	prices := make([]float64, 0, n)
	intensities := make([]float64, 0, n)
	for _, sig := range forecast[:n] {
		prices = append(prices, sig.PricePerKWh)
		intensities = append(intensities, sig.CarbonIntensity)
	}
	var avgPrice, avgCarbon float64
	if n > 0 {
		avgPrice = stat.Mean(prices, nil)
		avgCarbon = stat.Mean(intensities, nil)
	}

	var immediateCost, immediateCarbon float64
	for _, w := range workloads {
		energy := w.EnergyKWh()
		immediateCost += energy * avgPrice
		immediateCarbon += energy * avgCarbon
	}

	var optimizedCost, optimizedCarbon, revenue float64
	for _, d := range decisions {
		optimizedCost += d.ExpectedCost
		optimizedCarbon += d.ExpectedCarbon
		revenue += d.ExpectedRevenue
	}

	return Savings{
		ImmediateCost:        immediateCost,
		OptimizedCost:        optimizedCost,
		CostSavings:          immediateCost - optimizedCost,
		CostSavingsPercent:   percent(immediateCost-optimizedCost, immediateCost),
		ImmediateCarbonKg:    immediateCarbon / 1000,
		OptimizedCarbonKg:    optimizedCarbon / 1000,
		CarbonSavingsKg:      (immediateCarbon - optimizedCarbon) / 1000,
		CarbonSavingsPercent: percent(immediateCarbon-optimizedCarbon, immediateCarbon),
		FlexRevenue:          revenue,
		TotalBenefit:         (immediateCost - optimizedCost) + revenue,
	}
}

// percent guards against a zero baseline.
func percent(delta, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return delta / baseline * 100
}

// AsMap renders the report as a ledger payload.
func (s Savings) AsMap() map[string]any {
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
