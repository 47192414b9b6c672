package mqtt

import (
	"github.com/sweeney/padshift/internal/action"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Actions contains all binding actions that were published.
	Actions []action.Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// Haptics and Axes contain the published trigger updates.
	Haptics []HapticEvent
	Axes    []AxisEvent

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish, PublishHaptic and PublishAxis.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the binding action.
func (f *FakePublisher) Publish(event action.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Actions = append(f.Actions, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishHaptic records the trigger effect.
func (f *FakePublisher) PublishHaptic(event HapticEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Haptics = append(f.Haptics, event)
	return nil
}

// PublishAxis records the passthrough position.
func (f *FakePublisher) PublishAxis(event AxisEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Axes = append(f.Axes, event)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
