package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gridflex/gridflex/config"
	coreannounce "github.com/gridflex/gridflex/core/announce"
	"github.com/gridflex/gridflex/core/audit"
	"github.com/gridflex/gridflex/core/events"
	corefeed "github.com/gridflex/gridflex/core/feed"
	coremetrics "github.com/gridflex/gridflex/core/metrics"
	"github.com/gridflex/gridflex/core/model"
	"github.com/gridflex/gridflex/core/optimizer"
	"github.com/gridflex/gridflex/core/protocol"
	"github.com/gridflex/gridflex/infra/announce"
	"github.com/gridflex/gridflex/infra/export"
	"github.com/gridflex/gridflex/infra/logger"
	"github.com/gridflex/gridflex/infra/metrics"
	"github.com/gridflex/gridflex/internal/eventbus"
)

// Service wires the optimizer, negotiator, ledger and sinks together and
// drives complete optimization cycles.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	ledger    *audit.Ledger
	engine    *optimizer.Engine
	orch      *protocol.Orchestrator
	catalog   corefeed.Catalog
	signals   corefeed.SignalFeed
	sink      coremetrics.MetricsSink
	bus       eventbus.EventBus
	announcer coreannounce.Publisher

	promEnabled bool
	promPort    string
}

// CycleReport is what one optimization cycle produced.
type CycleReport struct {
	Workloads  int
	Decisions  []model.Decision
	Warnings   []optimizer.Warning
	Savings    optimizer.Savings
	Settlement audit.Settlement
	Journey    *protocol.Journey
	OrderID    string
}

// New creates a Service from the configuration and the given data sources.
func New(cfg *config.Config, catalog corefeed.Catalog, signals corefeed.SignalFeed) (*Service, error) {
	logg := logger.New("service")
	ledger := audit.New(logger.New("audit"))

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	client, err := protocol.NewClient(cfg.Protocol, logger.New("protocol"))
	if err != nil {
		return nil, fmt.Errorf("protocol client: %w", err)
	}
	bus := eventbus.New()
	orch, err := protocol.NewOrchestrator(client, ledger, catalog, bus, sink, logger.New("negotiator"))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	var announcer coreannounce.Publisher = coreannounce.NopPublisher{}
	if cfg.Announce.Enabled {
		pub, err := announce.NewMQTTPublisher(cfg.Announce)
		if err != nil {
			return nil, fmt.Errorf("announcer: %w", err)
		}
		announcer = pub
	}

	return &Service{
		cfg:         cfg,
		log:         logg,
		ledger:      ledger,
		engine:      optimizer.New(cfg.Optimizer, logger.New("optimizer")),
		orch:        orch,
		catalog:     catalog,
		signals:     signals,
		sink:        sink,
		bus:         bus,
		announcer:   announcer,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Ledger exposes the audit trail, mainly for inspection after a cycle.
func (s *Service) Ledger() *audit.Ledger { return s.ledger }

// Bus exposes the event stream for subscribers.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// RunCycle executes one full optimization cycle: gather, optimize,
// negotiate, settle, export. Transport problems degrade inside the
// negotiation; an error return means the cycle itself could not run.
func (s *Service) RunCycle(ctx context.Context) (*CycleReport, error) {
	started := time.Now()
	if _, err := s.ledger.Log("cycle_started", map[string]any{
		"forecast_horizon_hours": s.cfg.ForecastHorizonHours,
	}); err != nil {
		return nil, err
	}

	all, err := s.catalog.Workloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather workloads: %w", err)
	}
	now := time.Now()
	var flexible []model.Workload
	var ids []string
	for _, w := range all {
		if w.Flexible(now) {
			flexible = append(flexible, w)
			ids = append(ids, w.ID)
		}
	}
	if _, err := s.ledger.Log("workloads_gathered", map[string]any{
		"total":    len(all),
		"flexible": len(flexible),
		"ids":      ids,
	}); err != nil {
		return nil, err
	}
	report := &CycleReport{Workloads: len(flexible)}
	if len(flexible) == 0 {
		s.log.Infof("no flexible workloads, nothing to schedule")
		return report, nil
	}

	forecast, err := s.signals.Forecast(ctx, s.cfg.ForecastHorizonHours)
	if err != nil {
		return nil, fmt.Errorf("gather signals: %w", err)
	}
	sigData := map[string]any{"forecast_hours": len(forecast)}
	if len(forecast) > 0 {
		sigData["current_price"] = forecast[0].PricePerKWh
		sigData["current_carbon_g_per_kwh"] = forecast[0].CarbonIntensity
	}
	if _, err := s.ledger.Log("signals_gathered", sigData); err != nil {
		return nil, err
	}

	decisions, warnings := s.engine.Optimize(flexible, forecast)
	report.Decisions = decisions
	report.Warnings = warnings
	for _, w := range warnings {
		if _, err := s.ledger.Log(audit.EventFeasibilityWarning,
			map[string]any{"reason": w.Reason}, audit.WithJob(w.WorkloadID)); err != nil {
			return nil, err
		}
		s.bus.Publish(events.WarningEvent{WorkloadID: w.WorkloadID, Reason: w.Reason})
	}
	s.bus.Publish(events.CycleEvent{Workloads: len(flexible), Decisions: len(decisions), Warnings: len(warnings)})
	if len(decisions) == 0 {
		s.log.Warnf("optimizer produced no feasible schedule for %d workloads", len(flexible))
		report.Settlement = s.ledger.Settlement()
		return report, nil
	}

	report.Savings = s.engine.Savings(decisions, flexible, forecast)
	if _, err := s.ledger.Log(audit.EventScheduleOptimized, map[string]any{
		"decisions": len(decisions),
		"savings":   report.Savings.AsMap(),
	}); err != nil {
		return nil, err
	}

	journey, err := s.orch.Execute(ctx, decisions)
	if err != nil {
		return nil, fmt.Errorf("negotiation: %w", err)
	}
	report.Journey = journey
	report.OrderID = journey.OrderID

	if err := s.announcer.PublishSchedule(ctx, coreannounce.Announcement{
		OrderID:       journey.OrderID,
		TransactionID: journey.TransactionID,
		Decisions:     decisions,
		AnnouncedAt:   time.Now(),
	}); err != nil {
		// Downstream consumers catch up from the ledger; the cycle stands.
		s.log.Errorf("schedule announcement failed: %v", err)
	}

	report.Settlement = s.ledger.Settlement()

	if err := s.ledger.Verify(); err != nil {
		s.log.Errorf("ledger verification failed: %v", err)
		return report, err
	}
	if path := s.cfg.Ledger.ExportPath; path != "" {
		if err := export.WriteFile(path, s.cfg.Ledger.Format, s.ledger); err != nil {
			s.log.Errorf("audit export failed: %v", err)
		} else {
			s.log.Infof("audit trail exported to %s", path)
		}
	}

	degraded := 0
	for _, out := range journey.Outcomes {
		if !out.Live {
			degraded++
		}
	}
	if err := s.sink.RecordCycleResult(coremetrics.CycleResult{
		Workloads:       len(flexible),
		Decisions:       len(decisions),
		Warnings:        len(warnings),
		DegradedPhases:  degraded,
		CostSavings:     report.Savings.CostSavings,
		CarbonSavingsKg: report.Savings.CarbonSavingsKg,
		FlexRevenue:     report.Savings.FlexRevenue,
		OrderID:         journey.OrderID,
		Duration:        time.Since(started),
		Time:            time.Now(),
	}); err != nil {
		s.log.Errorf("metrics sink: %v", err)
	}
	return report, nil
}

// Run runs a single cycle, with the Prometheus endpoint up for its
// duration when enabled, then shuts everything down.
func (s *Service) Run(ctx context.Context) (*CycleReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	defer s.Close()
	return s.RunCycle(ctx)
}

// Close releases broker connections and the event bus.
func (s *Service) Close() {
	if err := s.announcer.Close(); err != nil {
		s.log.Errorf("announcer close: %v", err)
	}
	s.bus.Close()
}
