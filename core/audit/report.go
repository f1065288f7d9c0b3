package audit

import (
	"math"
	"time"
)

// Settlement summarizes the financial and environmental outcome recorded
// in the ledger.
type Settlement struct {
	GeneratedAt     time.Time `json:"generated_at"`
	JobsCompleted   int       `json:"jobs_completed"`
	CostSavings     float64   `json:"cost_savings"`
	FlexRevenue     float64   `json:"flex_revenue"`
	NetBenefit      float64   `json:"net_benefit"`
	CarbonSavingsKg float64   `json:"carbon_savings_kg"`
	// TreeEquivalent expresses the carbon savings as tree-years, at roughly
	// 25 kg CO2 absorbed per tree per year.
	TreeEquivalent float64 `json:"equivalent_trees_planted"`
	Entries        int     `json:"audit_entries"`
}

// Settlement folds every schedule_optimized entry's savings fields and
// counts job_completed entries.
func (l *Ledger) Settlement() Settlement {
	l.mu.Lock()
	defer l.mu.Unlock()

	var costSavings, carbonSavings, flexRevenue float64
	completed := 0
	for _, e := range l.entries {
		switch e.EventType {
		case EventScheduleOptimized:
			savings, ok := e.Data["savings"].(map[string]any)
			if !ok {
				continue
			}
			costSavings += asFloat(savings["cost_savings"])
			carbonSavings += asFloat(savings["carbon_savings_kg"])
			flexRevenue += asFloat(savings["flex_revenue"])
		case EventJobCompleted:
			completed++
		}
	}

	return Settlement{
		GeneratedAt:     l.now(),
		JobsCompleted:   completed,
		CostSavings:     round2(costSavings),
		FlexRevenue:     round2(flexRevenue),
		NetBenefit:      round2(costSavings + flexRevenue),
		CarbonSavingsKg: round2(carbonSavings),
		TreeEquivalent:  math.Round(carbonSavings/25*10) / 10,
		Entries:         len(l.entries),
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
