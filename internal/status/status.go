// Package status provides a thread-safe status tracker for the padshift daemon.
// It is read by the HTTP handlers and by the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/padshift/internal/pad"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Profile     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value copy, usable after the lock is released.
type Snapshot struct {
	Pad             pad.Snapshot
	Devices         []string
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	ProfileLoadedAt time.Time
	Network         *NetworkInfo
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clock clock.Clock

	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker that reads time from clk.
func NewTracker(clk clock.Clock, cfg Config) *Tracker {
	return &Tracker{
		clock: clk,
		snap: Snapshot{
			StartTime: clk.Now(),
			Config:    cfg,
		},
	}
}

// Update stores the latest session snapshot.
// Called from runLoop on every tick.
func (t *Tracker) Update(snap pad.Snapshot) {
	t.mu.Lock()
	t.snap.Pad = snap
	t.mu.Unlock()
}

// SetDevices records the names of the connected controllers.
func (t *Tracker) SetDevices(names []string) {
	t.mu.Lock()
	t.snap.Devices = append([]string(nil), names...)
	t.mu.Unlock()
}

// ProfileLoaded records when the binding profile was last applied.
func (t *Tracker) ProfileLoaded(at time.Time) {
	t.mu.Lock()
	t.snap.ProfileLoadedAt = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
