// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/heater-control/internal/control"
)

// Topic is the MQTT topic for heater control events.
const Topic = "energy/heater/control/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "energy/heater/control/system"

// TopicEnable is the MQTT topic the operator publishes "0"/"1" to for the
// external enable.
const TopicEnable = "energy/heater/control/enable"

// EventType identifies a controller transition worth publishing.
type EventType string

const (
	EventFiringOn    EventType = "FIRING_ON"
	EventFiringOff   EventType = "FIRING_OFF"
	EventTrip        EventType = "TRIP"
	EventTripCleared EventType = "TRIP_CLEARED"
	EventSensorFault EventType = "SENSOR_FAULT"
)

// Event represents a controller transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Firing    bool
	Tripped   bool
	InletTemp float64
}

// EventsForTransition compares two consecutive controller outputs and
// returns the events to publish. Trip changes come first; alarms subscribe
// for those.
func EventsForTransition(prev, cur control.TickOutput, temp float64, at time.Time) []Event {
	var events []Event

	if cur.HighLimitTripped != prev.HighLimitTripped {
		typ := EventTripCleared
		if cur.HighLimitTripped {
			typ = EventTrip
		}
		events = append(events, Event{
			Timestamp: at, Type: typ,
			Firing: cur.Firing, Tripped: cur.HighLimitTripped, InletTemp: temp,
		})
	}

	if cur.Firing != prev.Firing {
		typ := EventFiringOff
		if cur.Firing {
			typ = EventFiringOn
		}
		events = append(events, Event{
			Timestamp: at, Type: typ,
			Firing: cur.Firing, Tripped: cur.HighLimitTripped, InletTemp: temp,
		})
	}

	return events
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a controller event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// EnableSource delivers operator enable commands.
type EnableSource interface {
	// SubscribeEnable registers a handler for enable commands. The handler
	// may be called from the MQTT client's goroutine.
	SubscribeEnable(handler func(enabled bool)) error
}

// ParseEnablePayload interprets an enable command payload. Accepted values
// are "0"/"1", "false"/"true", "off"/"on".
func ParseEnablePayload(payload []byte) (bool, bool) {
	switch string(payload) {
	case "1", "true", "on", "ON":
		return true, true
	case "0", "false", "off", "OFF":
		return false, true
	default:
		return false, false
	}
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
	Heater HeaterPayload `json:"heater"`
}

// HeaterPayload contains the controller event details.
type HeaterPayload struct {
	Timestamp  string  `json:"timestamp"`
	Event      string  `json:"event"`
	Firing     bool    `json:"firing"`
	Tripped    bool    `json:"high_limit_tripped"`
	InletTempK float64 `json:"inlet_temp_k"`
}

// FormatPayload creates the JSON payload for a controller event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Heater: HeaterPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Firing:     event.Firing,
			Tripped:    event.Tripped,
			InletTempK: event.InletTemp,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
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
