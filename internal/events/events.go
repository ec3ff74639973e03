// Package events publishes truck status changes to an MQTT broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/models"
)

// Reasons attached to a status change.
const (
	ReasonTripStarted   = "trip-started"
	ReasonTripCompleted = "trip-completed"
	ReasonTripCancelled = "trip-cancelled"
	ReasonTripDeleted   = "trip-deleted"
	ReasonManual        = "manual"
)

// StatusChange describes one truck status transition.
type StatusChange struct {
	RegistrationNumber string             `json:"registrationNumber"`
	From               models.TruckStatus `json:"from"`
	To                 models.TruckStatus `json:"to"`
	Reason             string             `json:"reason"`
	TripID             string             `json:"tripId,omitempty"`
	At                 time.Time          `json:"at"`
}

// Publisher delivers status changes. Delivery is best effort.
type Publisher interface {
	PublishStatusChange(ctx context.Context, change StatusChange) error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

// PublishStatusChange implements Publisher.
func (Noop) PublishStatusChange(context.Context, StatusChange) error { return nil }

// tokenPublisher is the part of mqtt.Client the publisher needs.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes status changes with QoS 1.
type MQTTPublisher struct {
	client  tokenPublisher
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher wraps a connected client.
func NewMQTTPublisher(client tokenPublisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, timeout: 5 * time.Second}
}

// Topic returns the status topic for a registration number.
func Topic(prefix, registration string) string {
	return fmt.Sprintf("%s/trucks/%s/status", prefix, registration)
}

// PublishStatusChange implements Publisher.
func (p *MQTTPublisher) PublishStatusChange(ctx context.Context, change StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	topic := Topic(p.prefix, change.RegistrationNumber)
	token := p.client.Publish(topic, 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.WithFields(log.Fields{
		"topic":  topic,
		"from":   change.From,
		"to":     change.To,
		"reason": change.Reason,
	}).Debug("Published truck status change")
	return nil
}

// Connect opens an MQTT client connection with automatic reconnects.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			log.WithField("broker", broker).Info("Connected to MQTT broker")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}
