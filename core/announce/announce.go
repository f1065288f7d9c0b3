// Package announce publishes confirmed schedules to downstream
// consumers, typically over a message broker, so that execution
// infrastructure can react to the negotiated windows.
package announce

import (
	"context"
	"fmt"
	"time"

	"github.com/gridflex/gridflex/core/model"
)

// Announcement is the payload pushed after a negotiation completes.
type Announcement struct {
	OrderID       string           `json:"order_id"`
	TransactionID string           `json:"transaction_id"`
	Decisions     []model.Decision `json:"decisions"`
	AnnouncedAt   time.Time        `json:"announced_at"`
}

// Publisher delivers schedule announcements.
type Publisher interface {
	PublishSchedule(ctx context.Context, a Announcement) error
	Close() error
}

// Config describes the announcement broker connection.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "gridflex-scheduler"
	}
	if c.Topic == "" {
		c.Topic = "gridflex/schedule"
	}
}

// Validate checks mandatory fields when announcements are enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("broker is required when announcements are enabled")
	}
	return nil
}

// NopPublisher discards announcements.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(context.Context, Announcement) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// MockPublisher records announcements for tests.
type MockPublisher struct {
	Published []Announcement
	Err       error
}

func (m *MockPublisher) PublishSchedule(_ context.Context, a Announcement) error {
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, a)
	return nil
}

func (m *MockPublisher) Close() error { return nil }
