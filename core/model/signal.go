package model

import "time"

// GridSignal is an hourly snapshot of grid conditions. Signals are
// immutable and consumed read-only.
type GridSignal struct {
	Timestamp         time.Time `json:"timestamp"`
	PricePerKWh       float64   `json:"price_per_kwh"`
	CarbonIntensity   float64   `json:"carbon_intensity_g_per_kwh"` // grams CO2 per kWh
	GridAvailability  float64   `json:"grid_availability"`          // 0-1 scale
	FlexEventActive   bool      `json:"flex_event_active"`
	FlexRevenuePerKWh float64   `json:"flex_revenue_per_kwh"`
}
