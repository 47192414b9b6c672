package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/padshift/internal/action"
	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/trigger"
)

var ts = time.Date(2026, 2, 10, 8, 30, 0, 125_000_000, time.UTC)

func pressEvent() action.Event {
	return action.Event{
		Time:    ts,
		Button:  button.S,
		Binding: "JUMP",
		Kind:    action.KindPress,
		Settings: button.Settings{
			Turbo:    80 * time.Millisecond,
			Hold:     150 * time.Millisecond,
			DblPress: 150 * time.Millisecond,
		},
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	payload, err := FormatPayload(pressEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"action":{"timestamp":"2026-02-10T08:30:00.125Z","button":"S","binding":"JUMP","kind":"PRESS","settings":{"turbo_ms":80,"hold_ms":150,"dbl_press_ms":150}}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadCombo(t *testing.T) {
	ev := pressEvent()
	ev.Button = button.Up
	ev.Combo = "DASH"
	ev.Binding = "DASH"
	ev.Kind = action.KindTapRelease

	payload, err := FormatPayload(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Action.Combo != "DASH" || parsed.Action.Button != "UP" || parsed.Action.Kind != "TAP_RELEASE" {
		t.Errorf("unexpected action %+v", parsed.Action)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	ev := pressEvent()
	ev.Time = time.Date(2026, 2, 10, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	payload, err := FormatPayload(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Action.Timestamp != "2026-02-10T08:30:00.000Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Action.Timestamp)
	}
}

func TestFormatHapticPayloadExactJSON(t *testing.T) {
	payload, err := FormatHapticPayload(HapticEvent{
		Timestamp: ts,
		Side:      trigger.Left,
		Effect:    trigger.Effect{Mode: 2, Strength: 6553, Start: 47, End: 62},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"haptic":{"timestamp":"2026-02-10T08:30:00.125Z","side":"left","mode":2,"strength":6553,"start":47,"end":62}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatAxisPayloadExactJSON(t *testing.T) {
	payload, err := FormatAxisPayload(AxisEvent{Timestamp: ts, Side: trigger.Right, Position: 0.25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"axis":{"timestamp":"2026-02-10T08:30:00.125Z","side":"right","position":0.25}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	tests := []struct {
		name     string
		event    SystemEvent
		expected string
	}{
		{
			name:     "shutdown with reason",
			event:    SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "SIGTERM"},
			expected: `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`,
		},
		{
			name:     "reconnected omits reason",
			event:    SystemEvent{Timestamp: ts, Event: "RECONNECTED"},
			expected: `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"RECONNECTED"}}`,
		},
		{
			name:     "will",
			event:    SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"},
			expected: `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`,
		},
		{
			name:     "raw payload passes through",
			event:    SystemEvent{Timestamp: ts, Event: "HEARTBEAT", RawPayload: []byte(`{"status":{}}`)},
			expected: `{"status":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatSystemPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(payload) != tt.expected {
				t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, tt.expected)
			}
		})
	}
}

func TestFakePublisher(t *testing.T) {
	pub := NewFakePublisher()

	first := pressEvent()
	second := pressEvent()
	second.Kind = action.KindRelease

	if err := pub.Publish(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pub.Publish(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pub.PublishHaptic(HapticEvent{Side: trigger.Right}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pub.PublishAxis(AxisEvent{Side: trigger.Left, Position: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.Actions) != 2 || pub.Actions[0].Kind != action.KindPress || pub.Actions[1].Kind != action.KindRelease {
		t.Errorf("expected events in order, got %+v", pub.Actions)
	}
	if len(pub.Payloads) != 2 {
		t.Errorf("expected 2 payloads, got %d", len(pub.Payloads))
	}
	if len(pub.Haptics) != 1 || len(pub.Axes) != 1 {
		t.Errorf("expected 1 haptic and 1 axis, got %d and %d", len(pub.Haptics), len(pub.Axes))
	}
}

func TestFakePublisherError(t *testing.T) {
	pub := NewFakePublisher()
	pub.PublishError = errors.New("broker down")
	pub.PublishSystemError = errors.New("broker down")

	if err := pub.Publish(pressEvent()); err == nil {
		t.Error("expected error")
	}
	if err := pub.PublishHaptic(HapticEvent{}); err == nil {
		t.Error("expected error")
	}
	if err := pub.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected error")
	}
	if len(pub.Actions) != 0 || len(pub.Haptics) != 0 || len(pub.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherRecordsRetainedFlag(t *testing.T) {
	pub := NewFakePublisher()
	if err := pub.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pub.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}
	if len(pub.SystemPayloads) != 1 {
		t.Errorf("expected 1 system payload, got %d", len(pub.SystemPayloads))
	}
}

func TestFakePublisherReset(t *testing.T) {
	pub := NewFakePublisher()
	pub.Publish(pressEvent())
	pub.PublishSystem(SystemEvent{Event: "STARTUP"})
	pub.Close()
	pub.Connected = true

	pub.Reset()

	if len(pub.Actions) != 0 || len(pub.Payloads) != 0 || len(pub.SystemEvents) != 0 {
		t.Error("expected recordings to be cleared")
	}
	if pub.Closed || pub.Connected {
		t.Error("expected flags to be cleared")
	}
	if err := pub.Publish(pressEvent()); err != nil || len(pub.Actions) != 1 {
		t.Error("publisher should be reusable after reset")
	}
}
