package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/climate-relay/internal/status"
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
	"reading": func(v *float64, unit string) string {
		if v == nil {
			return "unavailable"
		}
		return fmt.Sprintf("%.1f%s", *v, unit)
	},
	"outcomeClass": func(o string) string {
		switch o {
		case "ACTIVATE":
			return "on"
		case "DEACTIVATE":
			return "off"
		}
		return "idle"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Climate Relay: {{.Role}} {{.Node}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.idle { color: #444; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Climate Relay <small>{{.Role}} node {{.Node}}</small></h1>
{{with .Actuator}}
<h2>Output</h2>
<table>
<tr><th>Power</th><td class="{{if eq .Power "ON"}}on{{else}}off{{end}}">{{.Power}}</td></tr>
{{if .ExpiresAt}}<tr><th>Expires</th><td>{{.ExpiresAt}} ({{.RemainingSeconds}}s)</td></tr>{{end}}
<tr><th>Last command</th><td>{{if .LastCommand}}{{.LastCommand}} at {{.LastCommandAt}}{{else}}none{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Applied</th><td>{{.Counts.Applied}}</td></tr>
<tr><th>Other nodes</th><td>{{.Counts.Unaddressed}}</td></tr>
<tr><th>Malformed</th><td>{{.Counts.Malformed}}</td></tr>
<tr><th>Expiries</th><td>{{.Counts.Expiries}}</td></tr>
<tr><th>Output errors</th><td>{{.Counts.OutputErrors}}</td></tr>
</table>
{{end}}{{with .Coordinator}}
<h2>Climate</h2>
<table>
<tr><th>Temperature</th><td>{{reading .Temperature "°C"}}</td></tr>
<tr><th>Humidity</th><td>{{reading .Humidity "%"}}</td></tr>
<tr><th>Heater</th><td class="{{outcomeClass .Heater}}">{{.Heater}}</td></tr>
<tr><th>Humidifier</th><td class="{{outcomeClass .Humidifier}}">{{.Humidifier}}</td></tr>
<tr><th>Fan</th><td class="{{outcomeClass .Fan}}">{{.Fan}}</td></tr>
<tr><th>Last cycle</th><td>{{if .LastCycle}}{{.LastCycle}}{{else}}pending{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>Packets sent</th><td>{{.Counts.Sent}}</td></tr>
<tr><th>Send failures</th><td>{{.Counts.SendFailures}}</td></tr>
<tr><th>Sensor failures</th><td>{{.Counts.SensorFailures}}</td></tr>
</table>
{{end}}
<h2>Connectivity</h2>
<table>
<tr><th>Radio</th><td class="{{if .Radio.Connected}}connected{{else}}disconnected{{end}}">{{.Radio.Driver}} {{if .Radio.Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Telemetry</th><td>{{.Config.Telemetry}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime}}</td></tr>
{{if .Config.PollMs}}<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>{{end}}
{{if .Config.CycleMs}}<tr><th>Cycle</th><td>{{.Config.CycleMs}}ms</td></tr>
<tr><th>Send spacing</th><td>{{.Config.SpacingMs}}ms</td></tr>{{end}}
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

// renderHTML renders the same view the JSON endpoint serves.
func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.StatusInner
		Uptime time.Duration
	}{
		StatusInner: status.BuildInner(snap),
		Uptime:      snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
