package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/heater-control/internal/status"
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
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"kelvin": func(k float64) string {
		return fmt.Sprintf("%.1f K (%.1f °C)", k, k-273.15)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Heater Control</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.trip { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Heater Control</h1>

<table>
<tr><th>Burner</th><td class="{{if .Firing}}on{{else}}off{{end}}">{{onOff .Firing}}</td></tr>
<tr><th>High limit</th><td class="{{if .Tripped}}trip{{else}}off{{end}}">{{if .Tripped}}TRIPPED{{else}}OK{{end}}</td></tr>
<tr><th>Call for heat</th><td class="{{if .CallForHeat}}on{{else}}off{{end}}">{{onOff .CallForHeat}}</td></tr>
<tr><th>Enabled</th><td class="{{if .Enabled}}on{{else}}off{{end}}">{{onOff .Enabled}}</td></tr>
<tr><th>Inlet temperature</th><td>{{kelvin .InletTemp}}</td></tr>
</table>

<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Firing cycles</th><td>{{.Counts.FiringOn}}</td></tr>
<tr><th>Trips</th><td>{{.Counts.Trips}}</td></tr>
<tr><th>Sensor faults</th><td>{{.Counts.SensorFaults}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}} ms</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">Metrics</a> | <a href="/health">Health</a></p>
</body>
</html>
`

type indexData struct {
	Firing        bool
	Tripped       bool
	CallForHeat   bool
	Enabled       bool
	InletTemp     float64
	Uptime        time.Duration
	Counts        status.Counts
	MQTTConnected bool
	Config        status.Config
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := indexData{
		Firing:        snap.Firing,
		Tripped:       snap.Tripped,
		CallForHeat:   snap.CallForHeat,
		Enabled:       snap.Enabled,
		InletTemp:     snap.InletTemp,
		Uptime:        snap.Uptime(),
		Counts:        snap.Counts,
		MQTTConnected: snap.MQTTConnected,
		Config:        snap.Config,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
