// Package protocol drives the marketplace negotiation for a committed
// schedule: a fixed seven-phase journey (search, select, init, confirm,
// status, update, rating) against an external counterparty speaking a
// JSON-over-HTTP envelope format. Transport failures on any phase fall
// through to a deterministic synthetic continuation so the journey always
// completes; every phase outcome is tagged live or degraded and recorded
// in the audit ledger.
package protocol
