package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/padshift/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"idle": func(s string) bool {
		return s == "NoPress"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>padshift</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.busy { color: green; font-weight: bold; }
.idle { color: #888; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>padshift</h1>

<h2>Controllers</h2>
<table>
{{range .Devices}}<tr><th>Device</th><td>{{.}}</td></tr>
{{else}}<tr><th>Device</th><td class="warn">none</td></tr>
{{end}}<tr><th>Chords</th><td>{{range $i, $c := .Pad.Chords}}{{if $i}}, {{end}}{{$c}}{{else}}none{{end}}</td></tr>
<tr><th>Held bindings</th><td>{{range $i, $b := .Pad.Active}}{{if $i}}, {{end}}{{$b}}{{else}}none{{end}}</td></tr>
<tr><th>Faults</th><td{{if .Pad.Faults}} class="warn"{{end}}>{{.Pad.Faults}}</td></tr>
</table>

{{if .Pad.Triggers}}<h2>Triggers</h2>
<table>
{{range $side, $state := .Pad.Triggers}}<tr><th>{{$side}}</th><td class="{{if idle $state}}idle{{else}}busy{{end}}">{{$state}}</td></tr>
{{end}}</table>
{{end}}
<h2>Buttons</h2>
<table>
{{range $id, $state := .Pad.Buttons}}<tr><th>{{$id}}</th><td class="{{if idle $state}}idle{{else}}busy{{end}}">{{$state}}</td></tr>
{{end}}</table>

<h2>Action Counts</h2>
<table>
<tr><th>Press</th><td>{{.Pad.Counts.Press}}</td></tr>
<tr><th>Release</th><td>{{.Pad.Counts.Release}}</td></tr>
<tr><th>Hold</th><td>{{.Pad.Counts.Hold}}</td></tr>
<tr><th>Tap press</th><td>{{.Pad.Counts.TapPress}}</td></tr>
<tr><th>Tap release</th><td>{{.Pad.Counts.TapRelease}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Profile</th><td>{{if .Config.Profile}}{{.Config.Profile}}{{if not .ProfileLoadedAt.IsZero}} (loaded {{.ProfileLoadedAt.UTC.Format "15:04:05"}}){{end}}{{else}}none{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
