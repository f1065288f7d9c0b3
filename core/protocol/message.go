package protocol

import "time"

// Action names one negotiation phase on the wire.
type Action string

const (
	ActionSearch  Action = "search"
	ActionSelect  Action = "select"
	ActionInit    Action = "init"
	ActionConfirm Action = "confirm"
	ActionStatus  Action = "status"
	ActionUpdate  Action = "update"
	ActionRating  Action = "rating"
)

// Context identifies one message within a negotiation journey. The
// transaction id is fixed for the whole journey; the message id is fresh
// per phase.
type Context struct {
	Domain          string    `json:"domain"`
	Action          Action    `json:"action"`
	Version         string    `json:"version"`
	CounterpartyID  string    `json:"counterparty_id"`
	CounterpartyURI string    `json:"counterparty_uri"`
	TransactionID   string    `json:"transaction_id"`
	MessageID       string    `json:"message_id"`
	Timestamp       time.Time `json:"timestamp"`
	TTL             string    `json:"ttl"`
}

// Envelope is the wire frame for every request and response.
type Envelope struct {
	Context Context `json:"context"`
	Message Message `json:"message"`
}

// Message is the action-specific payload. Exactly the fields relevant to
// the action are populated; everything else stays empty.
type Message struct {
	Intent       *Intent  `json:"intent,omitempty"`
	Order        *Order   `json:"order,omitempty"`
	OrderID      string   `json:"order_id,omitempty"`
	UpdateTarget string   `json:"update_target,omitempty"`
	Catalog      *Catalog `json:"catalog,omitempty"`
	Ratings      []Rating `json:"ratings,omitempty"`
	Ack          *Ack     `json:"ack,omitempty"`
}

// Descriptor carries a human readable name.
type Descriptor struct {
	Name string `json:"name"`
}

// Price is a decimal value with its currency.
type Price struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// TimeWindow is one scheduled execution window offered in a search intent.
type TimeWindow struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	PowerKW float64   `json:"power_kw"`
}

// Fulfillment describes how and when an order executes.
type Fulfillment struct {
	Type            string       `json:"type,omitempty"`
	State           string       `json:"state,omitempty"`
	Start           string       `json:"start,omitempty"`
	TimeWindows     []TimeWindow `json:"time_windows,omitempty"`
	CurrentLoadKW   float64      `json:"current_load_kw,omitempty"`
	ProgressPercent int          `json:"progress_percent,omitempty"`
}

// Intent expresses what the search phase is looking for.
type Intent struct {
	Item        *Item        `json:"item,omitempty"`
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`
}

// Item is one energy window offered by a provider.
type Item struct {
	ID          string       `json:"id,omitempty"`
	Descriptor  *Descriptor  `json:"descriptor,omitempty"`
	Price       *Price       `json:"price,omitempty"`
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`
}

// Provider is one supply-side party in a catalog.
type Provider struct {
	ID         string      `json:"id"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
	Items      []Item      `json:"items,omitempty"`
}

// Catalog is the search response payload.
type Catalog struct {
	Providers []Provider `json:"providers"`
}

// Quote carries the counterparty's priced offer.
type Quote struct {
	Price Price `json:"price"`
}

// Billing identifies the paying party.
type Billing struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Order is the payload carried through select, init and confirm. Later
// phases carry forward the order returned by the previous phase.
type Order struct {
	ID          string       `json:"id,omitempty"`
	State       string       `json:"state,omitempty"`
	Provider    *Provider    `json:"provider,omitempty"`
	Items       []Item       `json:"items,omitempty"`
	Quote       *Quote       `json:"quote,omitempty"`
	Billing     *Billing     `json:"billing,omitempty"`
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`
}

// Rating is the post-fulfillment feedback payload.
type Rating struct {
	ID       string `json:"id"`
	Value    int    `json:"value"`
	Feedback string `json:"feedback,omitempty"`
}

// Ack is a bare acknowledgment response.
type Ack struct {
	Status string `json:"status"`
}
