package protocol

// SyntheticOrderID derives the deterministic order id used whenever the
// counterparty never returned one.
func SyntheticOrderID(transactionID string) string {
	short := transactionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "ORDER-" + short
}

// DefaultOffer is the substitute item used when the discovered catalog is
// empty or the search phase degraded.
func DefaultOffer() Item {
	return Item{
		ID:         "default-energy-window",
		Descriptor: &Descriptor{Name: "Standard Energy Window"},
		Price:      &Price{Value: "0.20", Currency: "GBP"},
	}
}

// syntheticContinuation fabricates a success-shaped response for a phase
// whose live exchange failed. The result is a pure function of the request
// so degraded journeys stay reproducible.
func syntheticContinuation(req Envelope) Envelope {
	resp := Envelope{Context: req.Context, Message: Message{}}
	txn := req.Context.TransactionID

	switch req.Context.Action {
	case ActionSearch:
		item := Item{
			ID:         "energy-window-1",
			Descriptor: &Descriptor{Name: "Off-peak Window"},
			Price:      &Price{Value: "0.18", Currency: "GBP"},
		}
		if intent := req.Message.Intent; intent != nil && intent.Fulfillment != nil && len(intent.Fulfillment.TimeWindows) > 0 {
			item.Fulfillment = &Fulfillment{Start: intent.Fulfillment.TimeWindows[0].Start.Format(timeLayout)}
		}
		resp.Message.Catalog = &Catalog{Providers: []Provider{{
			ID:         "grid-provider-1",
			Descriptor: &Descriptor{Name: "National Grid"},
			Items:      []Item{item},
		}}}

	case ActionSelect:
		order := Order{}
		if req.Message.Order != nil {
			order = *req.Message.Order
		}
		order.Quote = &Quote{Price: Price{Value: "45.50", Currency: "GBP"}}
		resp.Message.Order = &order

	case ActionInit:
		order := Order{}
		if req.Message.Order != nil {
			order = *req.Message.Order
		}
		order.ID = SyntheticOrderID(txn)
		order.State = "INITIALIZED"
		resp.Message.Order = &order

	case ActionConfirm:
		order := Order{}
		if req.Message.Order != nil {
			order = *req.Message.Order
		}
		if order.ID == "" {
			order.ID = SyntheticOrderID(txn)
		}
		order.State = "CONFIRMED"
		resp.Message.Order = &order

	case ActionStatus:
		resp.Message.Order = &Order{
			ID:          req.Message.OrderID,
			State:       "IN_PROGRESS",
			Fulfillment: &Fulfillment{State: "EXECUTING"},
		}

	case ActionUpdate:
		resp.Message.Order = &Order{ID: req.Message.OrderID, State: "UPDATED"}

	case ActionRating:
		resp.Message.Ack = &Ack{Status: "ACK"}
	}
	return resp
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
