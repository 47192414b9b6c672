package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string            `json:"event,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	MQTT          MQTTStatus        `json:"mqtt"`
	Devices       []string          `json:"devices"`
	Buttons       map[string]string `json:"buttons"`
	Triggers      map[string]string `json:"triggers"`
	Chords        []string          `json:"chords"`
	Active        []string          `json:"active"`
	Counts        CountsJSON        `json:"action_counts"`
	Faults        int               `json:"faults"`
	Profile       *ProfileJSON      `json:"profile,omitempty"`
	Network       *NetworkJSON      `json:"network,omitempty"`
	Config        ConfigJSON        `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of action counts.
type CountsJSON struct {
	Press      int `json:"press"`
	Release    int `json:"release"`
	Hold       int `json:"hold"`
	TapPress   int `json:"tap_press"`
	TapRelease int `json:"tap_release"`
}

// ProfileJSON reports the loaded binding profile.
type ProfileJSON struct {
	Path     string `json:"path"`
	LoadedAt string `json:"loaded_at"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	p := snap.Pad
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Devices:       nonNil(snap.Devices),
		Buttons:       p.Buttons,
		Triggers:      p.Triggers,
		Chords:        nonNil(p.Chords),
		Active:        nonNil(p.Active),
		Counts: CountsJSON{
			Press:      p.Counts.Press,
			Release:    p.Counts.Release,
			Hold:       p.Counts.Hold,
			TapPress:   p.Counts.TapPress,
			TapRelease: p.Counts.TapRelease,
		},
		Faults: p.Faults,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if inner.Buttons == nil {
		inner.Buttons = map[string]string{}
	}
	if inner.Triggers == nil {
		inner.Triggers = map[string]string{}
	}
	if snap.Config.Profile != "" && !snap.ProfileLoadedAt.IsZero() {
		inner.Profile = &ProfileJSON{
			Path:     snap.Config.Profile,
			LoadedAt: snap.ProfileLoadedAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// nonNil keeps empty lists as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
