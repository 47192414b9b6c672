// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/padshift/internal/action"
	"github.com/sweeney/padshift/internal/trigger"
)

// Topics for binding actions, trigger haptics, passthrough axes and system
// lifecycle events.
const (
	TopicActions = "input/padshift/actions"
	TopicHaptics = "input/padshift/haptics"
	TopicAxes    = "input/padshift/axes"
	TopicSystem  = "input/padshift/system"
)

// timeFormat keeps millisecond precision; action timing matters downstream.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a binding action to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event action.Event) error

	// PublishHaptic sends a trigger resistance effect.
	PublishHaptic(event HapticEvent) error

	// PublishAxis sends a passthrough trigger position.
	PublishAxis(event AxisEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// HapticEvent is a changed trigger effect.
type HapticEvent struct {
	Timestamp time.Time
	Side      trigger.Side
	Effect    trigger.Effect
}

// AxisEvent is a changed passthrough position.
type AxisEvent struct {
	Timestamp time.Time
	Side      trigger.Side
	Position  float64
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message payload for a binding action.
type Payload struct {
	Action ActionPayload `json:"action"`
}

// ActionPayload contains the action details.
type ActionPayload struct {
	Timestamp string          `json:"timestamp"`
	Button    string          `json:"button"`
	Combo     string          `json:"combo,omitempty"`
	Binding   string          `json:"binding"`
	Kind      string          `json:"kind"`
	Settings  SettingsPayload `json:"settings"`
}

// SettingsPayload carries the resolved timing values the renderer needs
// for turbo and double-press handling.
type SettingsPayload struct {
	TurboMs    int64 `json:"turbo_ms"`
	HoldMs     int64 `json:"hold_ms"`
	DblPressMs int64 `json:"dbl_press_ms"`
}

// FormatPayload creates the JSON payload for a binding action.
func FormatPayload(event action.Event) ([]byte, error) {
	payload := Payload{
		Action: ActionPayload{
			Timestamp: event.Time.UTC().Format(timeFormat),
			Button:    event.Button.String(),
			Combo:     event.Combo,
			Binding:   event.Binding,
			Kind:      string(event.Kind),
			Settings: SettingsPayload{
				TurboMs:    event.Settings.Turbo.Milliseconds(),
				HoldMs:     event.Settings.Hold.Milliseconds(),
				DblPressMs: event.Settings.DblPress.Milliseconds(),
			},
		},
	}
	return json.Marshal(payload)
}

// HapticPayload is the MQTT message payload for a trigger effect.
type HapticPayload struct {
	Haptic HapticPayloadInner `json:"haptic"`
}

// HapticPayloadInner contains the effect in device units.
type HapticPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Side      string `json:"side"`
	Mode      uint8  `json:"mode"`
	Strength  uint16 `json:"strength"`
	Start     uint8  `json:"start"`
	End       uint8  `json:"end"`
}

// FormatHapticPayload creates the JSON payload for a trigger effect.
func FormatHapticPayload(event HapticEvent) ([]byte, error) {
	return json.Marshal(HapticPayload{
		Haptic: HapticPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(timeFormat),
			Side:      event.Side.String(),
			Mode:      event.Effect.Mode,
			Strength:  event.Effect.Strength,
			Start:     event.Effect.Start,
			End:       event.Effect.End,
		},
	})
}

// AxisPayload is the MQTT message payload for a passthrough position.
type AxisPayload struct {
	Axis AxisPayloadInner `json:"axis"`
}

// AxisPayloadInner contains the position, 0 released to 1 fully pulled.
type AxisPayloadInner struct {
	Timestamp string  `json:"timestamp"`
	Side      string  `json:"side"`
	Position  float64 `json:"position"`
}

// FormatAxisPayload creates the JSON payload for a passthrough position.
func FormatAxisPayload(event AxisEvent) ([]byte, error) {
	return json.Marshal(AxisPayload{
		Axis: AxisPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(timeFormat),
			Side:      event.Side.String(),
			Position:  event.Position,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
