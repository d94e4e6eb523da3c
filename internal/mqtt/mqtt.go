// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermofan/internal/logic"
)

// Topic is the MQTT topic for fan relay events.
const Topic = "climate/thermofan/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "climate/thermofan/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a fan event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Fan FanPayload `json:"fan"`
}

// FanPayload contains the fan event details.
type FanPayload struct {
	Timestamp    string `json:"timestamp"`
	Event        string `json:"event"`
	State        string `json:"state"`
	TemperatureF int    `json:"temperature_f"`
	ThresholdF   int    `json:"threshold_f"`
}

// FormatPayload creates the JSON payload for a fan event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Fan: FanPayload{
			Timestamp:    event.Timestamp.UTC().Format(time.RFC3339),
			Event:        string(event.Type),
			State:        string(event.State),
			TemperatureF: event.TempF,
			ThresholdF:   event.ThresholdF,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
