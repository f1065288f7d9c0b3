// Package announce delivers schedule announcements over MQTT.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	coreannounce "github.com/gridflex/gridflex/core/announce"
	"github.com/gridflex/gridflex/infra/logger"
)

// client is the subset of the paho client used by the publisher.
type client interface {
	IsConnected() bool
	Disconnect(uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher pushes confirmed schedules onto an MQTT topic with QoS 1
// so execution infrastructure sees each announcement at least once.
type MQTTPublisher struct {
	client client
	topic  string
	log    logger.Logger
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(cfg coreannounce.Config) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	return &MQTTPublisher{client: c, topic: cfg.Topic, log: logger.New("announcer")}, nil
}

// PublishSchedule encodes the announcement as JSON and publishes it.
func (p *MQTTPublisher) PublishSchedule(ctx context.Context, a coreannounce.Announcement) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode announcement: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	p.log.Debugf("announced schedule %s on %s", a.OrderID, p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
