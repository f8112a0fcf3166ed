package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/rtodesk/rto-records/internal/models"
)

const publishTimeout = 10 * time.Second

// MQTTPublisher pushes expiring-record notices to an MQTT topic so counter
// dashboards and reminder tooling can subscribe without polling the API.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(publishTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s failed: %w", broker, err)
	}
	return &MQTTPublisher{client: client, topic: topic}, nil
}

type expiringNotice struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Count       int             `json:"count"`
	Records     []models.Record `json:"records"`
}

// PublishExpiring publishes the expiring-soon active heads as one JSON
// message. An empty run publishes nothing.
func (p *MQTTPublisher) PublishExpiring(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	payload, err := json.Marshal(expiringNotice{
		GeneratedAt: time.Now(),
		Count:       len(records),
		Records:     records,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal expiring notice: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s failed: %w", p.topic, err)
	}

	log.WithFields(log.Fields{
		"topic": p.topic,
		"count": len(records),
	}).Info("Published expiring records notice")
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
