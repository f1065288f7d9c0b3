package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridflex/gridflex/core/logger"
)

// Config defines the counterparty endpoint and envelope identity.
type Config struct {
	// BaseURL is the counterparty root; phase requests POST to
	// {BaseURL}/{action}.
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Domain         string `json:"domain"`
	Version        string `json:"version"`
	// CounterpartyID and CounterpartyURI identify this side of the
	// exchange in every context block.
	CounterpartyID  string `json:"counterparty_id"`
	CounterpartyURI string `json:"counterparty_uri"`
	TTL             string `json:"ttl"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.Domain == "" {
		c.Domain = "energy:compute"
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
	if c.TTL == "" {
		c.TTL = "PT30S"
	}
	if c.CounterpartyID == "" {
		c.CounterpartyID = "gridflex-agent"
	}
	if c.CounterpartyURI == "" {
		c.CounterpartyURI = "http://gridflex.example.com"
	}
}

// Validate checks mandatory fields. A failure here is a configuration
// error and fatal: no journey may start against a malformed endpoint.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url is missing a host: %q", c.BaseURL)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return nil
}

// TransportError wraps a failed exchange with the counterparty. It never
// propagates past the orchestrator: the degraded continuation handles it.
type TransportError struct {
	Action Action
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("protocol: %s exchange failed: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client exchanges envelopes with the counterparty over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
	now  func() time.Time
}

// NewClient validates the configuration and builds a client with the
// configured per-phase timeout.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("protocol config: %w", err)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:  log,
		now:  time.Now,
	}, nil
}

// NewRequest frames a message in an envelope for the given action. The
// transaction id is fixed for the journey; the message id is fresh.
func (c *Client) NewRequest(action Action, transactionID string, msg Message) Envelope {
	return Envelope{
		Context: Context{
			Domain:          c.cfg.Domain,
			Action:          action,
			Version:         c.cfg.Version,
			CounterpartyID:  c.cfg.CounterpartyID,
			CounterpartyURI: c.cfg.CounterpartyURI,
			TransactionID:   transactionID,
			MessageID:       uuid.NewString(),
			Timestamp:       c.now(),
			TTL:             c.cfg.TTL,
		},
		Message: msg,
	}
}

// Exchange POSTs the envelope to {base}/{action} and decodes the response
// envelope. Any failure is returned as a TransportError.
func (c *Client) Exchange(ctx context.Context, req Envelope) (Envelope, error) {
	action := req.Context.Action
	body, err := json.Marshal(req)
	if err != nil {
		return Envelope{}, &TransportError{Action: action, Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+string(action), bytes.NewReader(body))
	if err != nil {
		return Envelope{}, &TransportError{Action: action, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Envelope{}, &TransportError{Action: action, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Envelope{}, &TransportError{Action: action, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, b)}
	}

	var out Envelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Envelope{}, &TransportError{Action: action, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}
