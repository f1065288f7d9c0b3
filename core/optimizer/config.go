package optimizer

import "fmt"

// Config defines the optimization weights loaded from configuration.
type Config struct {
	// CostWeight and CarbonWeight blend energy cost and carbon cost in the
	// raw score. They do not need to sum to one.
	CostWeight   float64 `json:"cost_weight"`
	CarbonWeight float64 `json:"carbon_weight"`
	// CarbonCapKg rejects any window whose emissions exceed this cap.
	// Zero or negative disables the cap.
	CarbonCapKg float64 `json:"carbon_cap_kg"`
	// CarbonPricePerKg converts kilograms of CO2 to the cost scale.
	CarbonPricePerKg float64 `json:"carbon_price_per_kg"`
}

// SetDefaults applies the standard weighting.
func (c *Config) SetDefaults() {
	if c.CostWeight == 0 && c.CarbonWeight == 0 {
		c.CostWeight = 0.4
		c.CarbonWeight = 0.6
	}
	if c.CarbonPricePerKg == 0 {
		c.CarbonPricePerKg = 0.10
	}
}

// Validate checks the weights are usable.
func (c Config) Validate() error {
	if c.CostWeight < 0 || c.CarbonWeight < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	if c.CostWeight == 0 && c.CarbonWeight == 0 {
		return fmt.Errorf("at least one of cost_weight and carbon_weight must be positive")
	}
	if c.CarbonPricePerKg < 0 {
		return fmt.Errorf("carbon_price_per_kg must not be negative")
	}
	return nil
}
