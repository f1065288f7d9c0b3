// Package audit implements the append-only signed event ledger. Every
// scheduling decision, negotiation phase and status change is recorded as
// an Entry whose signature is a deterministic digest of its content, so
// tampering with a stored entry is detectable after the fact.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gridflex/gridflex/core/logger"
)

// Well-known event types consumed by the settlement report.
const (
	EventScheduleOptimized  = "schedule_optimized"
	EventJobCompleted       = "job_completed"
	EventFeasibilityWarning = "feasibility_warning"
)

// Entry is one immutable record in the ledger.
type Entry struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	JobID         *string        `json:"job_id"`
	TransactionID *string        `json:"transaction_id"`
	Data          map[string]any `json:"data"`
	Signature     string         `json:"signature"`
}

// signedFields holds everything covered by the signature, declared in
// sorted key order so the serialization is canonical. Data is a map and
// encoding/json already emits map keys sorted.
type signedFields struct {
	Data          map[string]any `json:"data"`
	EventType     string         `json:"event_type"`
	JobID         *string        `json:"job_id"`
	Timestamp     string         `json:"timestamp"`
	TransactionID *string        `json:"transaction_id"`
}

// Sign computes the hex digest of the entry's canonical serialization.
// Identical content always yields an identical signature.
func Sign(e Entry) (string, error) {
	b, err := json.Marshal(signedFields{
		Data:          e.Data,
		EventType:     e.EventType,
		JobID:         e.JobID,
		Timestamp:     e.Timestamp.Format(time.RFC3339Nano),
		TransactionID: e.TransactionID,
	})
	if err != nil {
		return "", fmt.Errorf("canonicalize entry: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// IntegrityError reports the first ledger entry whose stored signature no
// longer matches its content.
type IntegrityError struct {
	Index int
	Entry Entry
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("audit: signature mismatch at entry %d (%s at %s)",
		e.Index, e.Entry.EventType, e.Entry.Timestamp.Format(time.RFC3339))
}

// Option attaches optional identifiers to a logged entry.
type Option func(*Entry)

// WithJob tags the entry with a workload id.
func WithJob(id string) Option {
	return func(e *Entry) { e.JobID = &id }
}

// WithTransaction tags the entry with a negotiation transaction id.
func WithTransaction(id string) Option {
	return func(e *Entry) { e.TransactionID = &id }
}

// LedgerOption configures a Ledger at construction time.
type LedgerOption func(*Ledger)

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// Ledger is the append-only signed event log. It is the single writer of
// its entry sequence; appends are serialized behind a mutex.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	log     logger.Logger
	now     func() time.Time
}

// New creates an empty ledger.
func New(log logger.Logger, opts ...LedgerOption) *Ledger {
	l := &Ledger{log: log, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Log stamps, signs and appends a new entry, returning a copy of it.
func (l *Ledger) Log(eventType string, data map[string]any, opts ...Option) (Entry, error) {
	e := Entry{
		Timestamp: l.now(),
		EventType: eventType,
		Data:      data,
	}
	for _, o := range opts {
		o(&e)
	}
	sig, err := Sign(e)
	if err != nil {
		return Entry{}, err
	}
	e.Signature = sig

	l.mu.Lock()
	l.entries = append(l.entries, e)
	n := len(l.entries)
	l.mu.Unlock()

	l.log.Debugw("ledger append", map[string]any{
		"event_type": eventType,
		"entries":    n,
	})
	return e, nil
}

// Verify recomputes every entry's signature and returns an IntegrityError
// identifying the first mismatch. It never repairs entries.
func (l *Ledger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return VerifyEntries(l.entries)
}

// VerifyEntries checks an entry sequence taken out of a ledger, such as a
// previously exported trail.
func VerifyEntries(entries []Entry) error {
	for i, e := range entries {
		sig, err := Sign(e)
		if err != nil {
			return err
		}
		if sig != e.Signature {
			return &IntegrityError{Index: i, Entry: e}
		}
	}
	return nil
}

// Entries returns a snapshot of the full entry sequence in append order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ForJob returns all entries tagged with the given workload id.
func (l *Ledger) ForJob(id string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.JobID != nil && *e.JobID == id {
			out = append(out, e)
		}
	}
	return out
}

// ForTransaction returns all entries tagged with the given transaction id.
func (l *Ledger) ForTransaction(id string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.TransactionID != nil && *e.TransactionID == id {
			out = append(out, e)
		}
	}
	return out
}

// Export serializes the entire entry sequence, signatures included, to w
// as an ordered JSON array.
func (l *Ledger) Export(w io.Writer) error {
	l.mu.Lock()
	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	l.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
