package model

import "time"

// Decision is the scheduling window chosen for one workload. Decisions are
// created once per optimization cycle and immutable afterwards.
type Decision struct {
	WorkloadID      string    `json:"workload_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	PowerKW         float64   `json:"power_kw"`
	ExpectedCost    float64   `json:"expected_cost"`
	ExpectedCarbon  float64   `json:"expected_carbon_g"` // grams CO2
	ExpectedRevenue float64   `json:"expected_revenue"`
	// Score is the displayed optimization quality in [0.70, 1.0]. It is a
	// normalized improvement over immediate execution, not the raw
	// minimization objective.
	Score float64 `json:"score"`
}

// CarbonKg returns the expected emissions in kilograms.
func (d Decision) CarbonKg() float64 {
	return d.ExpectedCarbon / 1000
}
