package optimizer

import (
	"math"
	"time"

	"github.com/gridflex/gridflex/core/logger"
	"github.com/gridflex/gridflex/core/model"
)

// Displayed score bounds. The displayed score is a normalized improvement
// over immediate execution, clamped so the UX metric stays in a stable
// range regardless of how extreme the raw scores are.
const (
	scoreFloor   = 0.70
	scoreCeil    = 1.0
	scoreDefault = 0.85
)

// Warning reports a workload for which no feasible window exists. It is
// recorded and the cycle proceeds without the workload.
type Warning struct {
	WorkloadID string
	Reason     string
}

// Engine picks execution windows for workloads.
type Engine struct {
	cfg Config
	log logger.Logger
}

// New creates an Engine with the given weights.
func New(cfg Config, log logger.Logger) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// Optimize places each workload independently at its minimum-score start
// hour. Workloads without a feasible window are omitted and reported as
// warnings, never as errors.
func (e *Engine) Optimize(workloads []model.Workload, forecast []model.GridSignal) ([]model.Decision, []Warning) {
	e.log.Infof("optimizing %d workloads over %dh forecast", len(workloads), len(forecast))

	var decisions []model.Decision
	var warnings []Warning
	for _, w := range workloads {
		d, ok := e.bestWindow(w, forecast)
		if !ok {
			e.log.Warnf("no feasible window for workload %s", w.ID)
			warnings = append(warnings, Warning{WorkloadID: w.ID, Reason: "no feasible window in forecast horizon"})
			continue
		}
		decisions = append(decisions, d)
		e.log.Debugw("window selected", map[string]any{
			"workload": w.ID,
			"start":    d.Start,
			"score":    d.Score,
		})
	}
	return decisions, warnings
}

// bestWindow scans every candidate start index left to right and keeps the
// minimum raw score. Ties resolve to the earliest index.
func (e *Engine) bestWindow(w model.Workload, forecast []model.GridSignal) (model.Decision, bool) {
	hours := windowHours(w)
	windowDur := time.Duration(hours) * time.Hour

	bestRaw := math.Inf(1)
	bestIdx := -1
	var bestCost, bestCarbon, bestRevenue float64

	for i, sig := range forecast {
		start := sig.Timestamp
		if start.Before(w.EarliestStart) {
			continue
		}
		if start.Add(windowDur).After(w.SLADeadline) {
			continue
		}
		// Windows running past the forecast horizon are rejected rather
		// than priced on the hours we can see.
		cost, carbon, revenue, ok := windowMetrics(w, forecast, i, false)
		if !ok {
			continue
		}
		if e.cfg.CarbonCapKg > 0 && carbon/1000 > e.cfg.CarbonCapKg {
			continue
		}
		raw := e.rawScore(cost, carbon, revenue) * w.Priority.ScoreMultiplier()
		if raw < bestRaw {
			bestRaw = raw
			bestIdx = i
			bestCost, bestCarbon, bestRevenue = cost, carbon, revenue
		}
	}
	if bestIdx < 0 {
		return model.Decision{}, false
	}

	start := forecast[bestIdx].Timestamp
	return model.Decision{
		WorkloadID:      w.ID,
		Start:           start,
		End:             start.Add(windowDur),
		PowerKW:         w.PowerKW,
		ExpectedCost:    bestCost,
		ExpectedCarbon:  bestCarbon,
		ExpectedRevenue: bestRevenue,
		Score:           e.displayedScore(w, forecast, bestRaw),
	}, true
}

// rawScore is the minimization objective: weighted energy cost plus carbon
// priced onto the cost scale, minus flexibility revenue.
func (e *Engine) rawScore(cost, carbonGrams, revenue float64) float64 {
	carbonCost := carbonGrams / 1000 * e.cfg.CarbonPricePerKg
	return e.cfg.CostWeight*cost + e.cfg.CarbonWeight*carbonCost - revenue
}

// displayedScore normalizes the winning raw score against an
// immediate-execution baseline at index 0 and clamps the result into the
// displayed range.
func (e *Engine) displayedScore(w model.Workload, forecast []model.GridSignal, bestRaw float64) float64 {
	// The baseline tolerates a short forecast; it only anchors the UX metric.
	cost, carbon, revenue, _ := windowMetrics(w, forecast, 0, true)
	immediate := e.rawScore(cost, carbon, revenue)

	score := scoreDefault
	if immediate > 0 {
		score = (immediate - bestRaw) / immediate
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
	}
	if score < scoreFloor {
		score = scoreFloor
	}
	if score > scoreCeil {
		score = scoreCeil
	}
	return score
}

// windowMetrics accumulates cost, carbon and flexibility revenue hour by
// hour for the workload's window starting at index start. With truncate
// unset it reports ok=false when the window overruns the forecast.
func windowMetrics(w model.Workload, forecast []model.GridSignal, start int, truncate bool) (cost, carbon, revenue float64, ok bool) {
	hours := windowHours(w)
	if start+hours > len(forecast) {
		if !truncate {
			return 0, 0, 0, false
		}
		hours = len(forecast) - start
		if hours <= 0 {
			return 0, 0, 0, false
		}
	}
	for h := 0; h < hours; h++ {
		sig := forecast[start+h]
		energy := w.PowerKW // one hour at rated power
		cost += energy * sig.PricePerKWh
		carbon += energy * sig.CarbonIntensity
		if sig.FlexEventActive {
			revenue += energy * sig.FlexRevenuePerKWh
		}
	}
	return cost, carbon, revenue, true
}

// windowHours returns the workload duration rounded up to whole hours.
func windowHours(w model.Workload) int {
	return int(math.Ceil(w.DurationHours))
}
