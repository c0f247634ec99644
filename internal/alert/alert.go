// Package alert publishes threat-flag transitions to an MQTT broker so
// external systems (pagers, door controllers) can react without polling the
// display API. Alerting is one-way; nothing here feeds back into sampling.
package alert

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/dormwatch/dormwatch/internal/monitor"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "dormwatch/threat"

// Event is the published payload for one threat transition.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "threat_raised" or "threat_cleared"
	RoomID    string    `json:"room_id,omitempty"`
	FaceCount int       `json:"face_count"`
	At        time.Time `json:"at"`
}

// Emitter publishes threat events to one MQTT topic.
type Emitter struct {
	client mqtt.Client
	topic  string
}

// NewEmitter connects to the broker and returns a ready emitter.
func NewEmitter(brokerURL, clientID, topic string) (*Emitter, error) {
	if clientID == "" {
		clientID = "dormwatch-" + uuid.New().String()
	}
	if topic == "" {
		topic = DefaultTopic
	}

	opts := mqtt.NewClientOptions().AddBroker(brokerURL).SetClientID(clientID)
	opts.SetConnectTimeout(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Println("alert: connected to MQTT broker", brokerURL)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker: %w", token.Error())
	}
	return &Emitter{client: client, topic: topic}, nil
}

// newEvent maps a monitor threat transition to the published payload.
func newEvent(ev monitor.ThreatEvent) Event {
	eventType := "threat_cleared"
	if ev.Raised {
		eventType = "threat_raised"
	}
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		RoomID:    ev.RoomID,
		FaceCount: ev.FaceCount,
		At:        ev.At,
	}
}

// ThreatChanged publishes one event per threat transition. Wired as the
// monitor's OnThreat callback.
func (e *Emitter) ThreatChanged(ev monitor.ThreatEvent) {
	payload, err := json.Marshal(newEvent(ev))
	if err != nil {
		log.Printf("alert: could not marshal event: %v", err)
		return
	}

	token := e.client.Publish(e.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("alert: could not publish event: %v", token.Error())
		}
	}()
}

// Close disconnects from the broker.
func (e *Emitter) Close() {
	e.client.Disconnect(250)
}
