package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/thermofan/internal/status"
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
	"digits": func(t int) string {
		if t < 0 {
			t = -t
		}
		return fmt.Sprintf("%d%d", (t/10)%10, t%10)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Thermofan</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.fan_on { color: red; font-weight: bold; }
.idle { color: #888; }
.stale { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Thermofan</h1>

<h2>Control</h2>
<table>
<tr><th>Temperature</th><td class="{{if not .Valid}}stale{{end}}">{{if .Valid}}{{.TempF}}&deg;F{{else}}no reading yet{{end}}</td></tr>
<tr><th>Humidity</th><td>{{if .Valid}}{{printf "%.0f" .Humidity}}%{{else}}-{{end}}</td></tr>
<tr><th>Fan</th><td id="fan-state" class="{{if eq (printf "%s" .Thermal) "FAN_ON"}}fan_on{{else}}idle{{end}}">{{.Thermal}}</td></tr>
<tr><th>Threshold</th><td>{{.Config.ThresholdF}}&deg;F</td></tr>
<tr><th>Display</th><td>{{digits .TempF}}</td></tr>
{{if .SensorError}}<tr><th>Sensor</th><td class="stale">{{.SensorError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counters</h2>
<table>
<tr><th>Fan on</th><td>{{.Counts.FanOn}}</td></tr>
<tr><th>Fan off</th><td>{{.Counts.FanOff}}</td></tr>
<tr><th>Sensor reads</th><td>{{.Counts.SensorReads}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counts.SensorErrors}}</td></tr>
<tr><th>Tick overruns</th><td>{{.Counts.TickOverruns}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Quantum</th><td>{{.Config.QuantumMs}}ms</td></tr>
<tr><th>Thermal period</th><td>{{.Config.ThermalPeriodMs}}ms</td></tr>
<tr><th>Display period</th><td>{{.Config.DisplayPeriodMs}}ms</td></tr>
<tr><th>Sensor interval</th><td>{{.Config.SensorIntervalMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
{{if .Config.Simulated}}<tr><th>Mode</th><td class="stale">simulated hardware</td></tr>{{end}}
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
