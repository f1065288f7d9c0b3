package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridflex/gridflex/core/audit"
	"github.com/gridflex/gridflex/core/events"
	"github.com/gridflex/gridflex/core/feed"
	"github.com/gridflex/gridflex/core/logger"
	"github.com/gridflex/gridflex/core/metrics"
	"github.com/gridflex/gridflex/core/model"
	"github.com/gridflex/gridflex/internal/eventbus"

	"github.com/google/uuid"
)

// State tracks a journey through the negotiation sequence.
type State int

const (
	StateNotStarted State = iota
	StateSearched
	StateSelected
	StateInitialized
	StateConfirmed
	StateInFulfillment
	StateRated
	StateFailed
)

var stateNames = map[State]string{
	StateNotStarted:    "NOT_STARTED",
	StateSearched:      "SEARCHED",
	StateSelected:      "SELECTED",
	StateInitialized:   "INITIALIZED",
	StateConfirmed:     "CONFIRMED",
	StateInFulfillment: "IN_FULFILLMENT",
	StateRated:         "RATED",
	StateFailed:        "FAILED",
}

// String returns the state's display name.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrInvalidTransition reports a phase executed out of sequence. This is a
// programmer error and terminal for the journey.
var ErrInvalidTransition = errors.New("protocol: invalid state transition")

// transitions maps each action to the state it requires and the state it
// yields. Phases may never be skipped, repeated or reordered.
var transitions = map[Action]struct{ from, to State }{
	ActionSearch:  {StateNotStarted, StateSearched},
	ActionSelect:  {StateSearched, StateSelected},
	ActionInit:    {StateSelected, StateInitialized},
	ActionConfirm: {StateInitialized, StateConfirmed},
	ActionStatus:  {StateConfirmed, StateInFulfillment},
	ActionUpdate:  {StateInFulfillment, StateInFulfillment},
	ActionRating:  {StateInFulfillment, StateRated},
}

// PhaseOutcome records one executed phase. Live distinguishes a real
// counterparty response from the degraded synthetic continuation.
type PhaseOutcome struct {
	Action   Action
	Live     bool
	Response Envelope
	Err      error // the transport error that triggered the degraded path
}

// Journey is the protocol-phase state for one batch of decisions. An
// orchestrator owns exactly one journey at a time.
type Journey struct {
	TransactionID string
	OrderID       string
	State         State
	Outcomes      []PhaseOutcome
}

// Orchestrator drives the negotiation sequence for a batch of scheduling
// decisions, logging every phase to the audit ledger.
type Orchestrator struct {
	client  *Client
	ledger  *audit.Ledger
	catalog feed.Catalog
	bus     eventbus.EventBus
	sink    metrics.MetricsSink
	log     logger.Logger
}

// NewOrchestrator wires an orchestrator. Bus and sink may be nil.
func NewOrchestrator(client *Client, ledger *audit.Ledger, catalog feed.Catalog, bus eventbus.EventBus, sink metrics.MetricsSink, log logger.Logger) (*Orchestrator, error) {
	if client == nil || ledger == nil || catalog == nil {
		return nil, fmt.Errorf("protocol: nil parameter provided to NewOrchestrator")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{client: client, ledger: ledger, catalog: catalog, bus: bus, sink: sink, log: log}, nil
}

// Execute runs the full seven-phase journey for the batch. Transport
// failures degrade per phase and never abort the journey; the returned
// error is non-nil only for sequencing bugs, which mark the journey FAILED.
func (o *Orchestrator) Execute(ctx context.Context, decisions []model.Decision) (*Journey, error) {
	j := &Journey{TransactionID: uuid.NewString(), State: StateNotStarted}
	o.log.Infof("starting negotiation journey %s for %d decisions", j.TransactionID, len(decisions))

	// DISCOVER
	searchResp, err := o.phase(ctx, j, ActionSearch, Message{Intent: searchIntent(decisions)}, map[string]any{
		"decision_count": len(decisions),
	})
	if err != nil {
		return j, err
	}

	// SELECT: first provider's first item, no ranking.
	provider, item := pickOffer(searchResp)
	selectResp, err := o.phase(ctx, j, ActionSelect, Message{Order: &Order{
		Provider: &Provider{ID: provider},
		Items:    []Item{item},
	}}, map[string]any{
		"provider": provider,
		"item_id":  item.ID,
	})
	if err != nil {
		return j, err
	}

	// INIT carries forward the order returned by select and attaches the
	// billing identity.
	order := carryOrder(selectResp, provider, item)
	order.Billing = &Billing{Name: "GridFlex Operations", Email: "ops@gridflex.example.com"}
	initResp, err := o.phase(ctx, j, ActionInit, Message{Order: &order}, map[string]any{
		"provider": provider,
	})
	if err != nil {
		return j, err
	}

	// CONFIRM carries forward the order returned by init.
	order = carryOrder(initResp, provider, item)
	confirmResp, err := o.phase(ctx, j, ActionConfirm, Message{Order: &order}, nil)
	if err != nil {
		return j, err
	}
	j.OrderID = orderID(confirmResp, j.TransactionID)
	o.log.Infof("order confirmed: %s", j.OrderID)
	o.markScheduled(ctx, decisions)

	// STATUS
	if _, err = o.phase(ctx, j, ActionStatus, Message{OrderID: j.OrderID}, map[string]any{
		"order_id": j.OrderID,
	}); err != nil {
		return j, err
	}

	// UPDATE reports fulfillment progress.
	_, err = o.phase(ctx, j, ActionUpdate, Message{
		OrderID:      j.OrderID,
		UpdateTarget: "fulfillment",
		Order: &Order{Fulfillment: &Fulfillment{
			State:           "IN_PROGRESS",
			CurrentLoadKW:   totalPower(decisions),
			ProgressPercent: 50,
		}},
	}, map[string]any{
		"order_id": j.OrderID,
	})
	if err != nil {
		return j, err
	}
	o.markCompleted(ctx, decisions, j)

	// RATING
	_, err = o.phase(ctx, j, ActionRating, Message{Ratings: []Rating{{
		ID:       j.OrderID,
		Value:    5,
		Feedback: "flexible compute schedule fulfilled",
	}}}, map[string]any{
		"order_id": j.OrderID,
	})
	if err != nil {
		return j, err
	}

	o.log.Infof("journey %s completed with order %s", j.TransactionID, j.OrderID)
	return j, nil
}

// phase executes one negotiation phase: send, degrade on transport error,
// advance the state machine, and record the outcome everywhere.
func (o *Orchestrator) phase(ctx context.Context, j *Journey, action Action, msg Message, extra map[string]any) (Envelope, error) {
	tr, ok := transitions[action]
	if !ok || j.State != tr.from {
		from := j.State
		j.State = StateFailed
		return Envelope{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
	}
	// Each action runs at most once per journey, including update, whose
	// transition alone would permit a repeat.
	for _, out := range j.Outcomes {
		if out.Action == action {
			j.State = StateFailed
			return Envelope{}, fmt.Errorf("%w: %s already executed", ErrInvalidTransition, action)
		}
	}

	req := o.client.NewRequest(action, j.TransactionID, msg)
	start := time.Now()
	resp, err := o.client.Exchange(ctx, req)
	latency := time.Since(start)

	outcome := PhaseOutcome{Action: action, Live: true, Response: resp}
	if err != nil {
		// Degraded continuation: fabricate a success-shaped response so
		// the journey still completes, and keep the failure on record.
		o.log.Warnf("%s phase degraded: %v", action, err)
		outcome.Live = false
		outcome.Err = err
		outcome.Response = syntheticContinuation(req)
	}
	j.State = tr.to
	j.Outcomes = append(j.Outcomes, outcome)

	data := map[string]any{
		"phase":  string(action),
		"source": sourceTag(outcome.Live),
		"state":  j.State.String(),
	}
	for k, v := range extra {
		data[k] = v
	}
	if outcome.Err != nil {
		data["transport_error"] = outcome.Err.Error()
	}
	if _, lerr := o.ledger.Log("negotiation_"+string(action), data, audit.WithTransaction(j.TransactionID)); lerr != nil {
		o.log.Errorf("ledger append for %s: %v", action, lerr)
	}

	if o.bus != nil {
		o.bus.Publish(events.PhaseEvent{
			TransactionID: j.TransactionID,
			Phase:         string(action),
			State:         j.State.String(),
			Live:          outcome.Live,
		})
	}
	if serr := o.sink.RecordPhaseResult(metrics.PhaseResult{
		TransactionID: j.TransactionID,
		Phase:         string(action),
		Live:          outcome.Live,
		Latency:       latency,
		Time:          start,
	}); serr != nil {
		o.log.Errorf("metrics sink: %v", serr)
	}

	return outcome.Response, nil
}

// markScheduled transitions the batch workloads to SCHEDULED once the
// order is confirmed.
func (o *Orchestrator) markScheduled(ctx context.Context, decisions []model.Decision) {
	for _, d := range decisions {
		if err := o.catalog.UpdateStatus(ctx, d.WorkloadID, model.StatusScheduled); err != nil {
			o.log.Errorf("mark %s scheduled: %v", d.WorkloadID, err)
		}
	}
}

// markCompleted transitions the batch workloads to COMPLETED during the
// fulfillment phase and logs one job_completed entry each.
func (o *Orchestrator) markCompleted(ctx context.Context, decisions []model.Decision, j *Journey) {
	for _, d := range decisions {
		if err := o.catalog.UpdateStatus(ctx, d.WorkloadID, model.StatusCompleted); err != nil {
			o.log.Errorf("mark %s completed: %v", d.WorkloadID, err)
			continue
		}
		if _, err := o.ledger.Log(audit.EventJobCompleted, map[string]any{
			"order_id": j.OrderID,
			"start":    d.Start.Format(time.RFC3339),
			"end":      d.End.Format(time.RFC3339),
		}, audit.WithJob(d.WorkloadID), audit.WithTransaction(j.TransactionID)); err != nil {
			o.log.Errorf("ledger append job_completed: %v", err)
		}
	}
}

// searchIntent builds the discovery intent advertising the decisions'
// execution windows.
func searchIntent(decisions []model.Decision) *Intent {
	windows := make([]TimeWindow, 0, len(decisions))
	for _, d := range decisions {
		windows = append(windows, TimeWindow{Start: d.Start, End: d.End, PowerKW: d.PowerKW})
	}
	return &Intent{
		Item:        &Item{Descriptor: &Descriptor{Name: "Flexible Compute Capacity"}},
		Fulfillment: &Fulfillment{Type: "scheduled", TimeWindows: windows},
	}
}

// pickOffer applies the selection policy: the first provider's first item,
// no ranking, with a default synthetic offer for an empty catalog.
func pickOffer(resp Envelope) (providerID string, item Item) {
	providerID = "grid-provider-1"
	if cat := resp.Message.Catalog; cat != nil && len(cat.Providers) > 0 {
		p := cat.Providers[0]
		if p.ID != "" {
			providerID = p.ID
		}
		if len(p.Items) > 0 {
			return providerID, p.Items[0]
		}
	}
	return providerID, DefaultOffer()
}

// carryOrder takes the order from the previous phase's response and merges
// the provider/items fields when the counterparty dropped them.
func carryOrder(resp Envelope, providerID string, item Item) Order {
	order := Order{}
	if resp.Message.Order != nil {
		order = *resp.Message.Order
	}
	if order.Provider == nil {
		order.Provider = &Provider{ID: providerID}
	}
	if len(order.Items) == 0 {
		order.Items = []Item{item}
	}
	return order
}

// orderID takes the confirmed order id from the live response when present
// and synthesizes it deterministically otherwise.
func orderID(confirmResp Envelope, transactionID string) string {
	if confirmResp.Message.Order != nil && confirmResp.Message.Order.ID != "" {
		return confirmResp.Message.Order.ID
	}
	return SyntheticOrderID(transactionID)
}

func totalPower(decisions []model.Decision) float64 {
	var sum float64
	for _, d := range decisions {
		sum += d.PowerKW
	}
	return sum
}

func sourceTag(live bool) string {
	if live {
		return "live"
	}
	return "degraded"
}
