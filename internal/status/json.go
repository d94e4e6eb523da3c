package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	BootID        string       `json:"boot_id"`
	Ready         bool         `json:"ready"`
	TemperatureF  int          `json:"temperature_f"`
	Humidity      float64      `json:"humidity"`
	Thermal       string       `json:"thermal_state"`
	Display       string       `json:"display_state"`
	LastSample    string       `json:"last_sample,omitempty"`
	SensorError   string       `json:"sensor_error,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counters.
type CountsJSON struct {
	FanOn        int    `json:"fan_on"`
	FanOff       int    `json:"fan_off"`
	SensorReads  int    `json:"sensor_reads"`
	SensorErrors int    `json:"sensor_errors"`
	TickOverruns uint64 `json:"tick_overruns"`
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
	QuantumMs        int64  `json:"quantum_ms"`
	ThermalPeriodMs  int64  `json:"thermal_period_ms"`
	DisplayPeriodMs  int64  `json:"display_period_ms"`
	SensorIntervalMs int64  `json:"sensor_interval_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	ThresholdF       int    `json:"threshold_f"`
	Broker           string `json:"broker"`
	HTTPPort         string `json:"http_port"`
	Simulated        bool   `json:"simulated,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	thermal := string(snap.Thermal)
	if thermal == "" {
		thermal = "UNKNOWN"
	}
	display := string(snap.Display)
	if display == "" {
		display = "UNKNOWN"
	}

	inner := StatusInner{
		BootID:        snap.BootID,
		Ready:         snap.Valid,
		TemperatureF:  snap.TempF,
		Humidity:      math.Round(snap.Humidity*10) / 10,
		Thermal:       thermal,
		Display:       display,
		SensorError:   snap.SensorError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			FanOn:        snap.Counts.FanOn,
			FanOff:       snap.Counts.FanOff,
			SensorReads:  snap.Counts.SensorReads,
			SensorErrors: snap.Counts.SensorErrors,
			TickOverruns: snap.Counts.TickOverruns,
		},
		Config: ConfigJSON{
			QuantumMs:        snap.Config.QuantumMs,
			ThermalPeriodMs:  snap.Config.ThermalPeriodMs,
			DisplayPeriodMs:  snap.Config.DisplayPeriodMs,
			SensorIntervalMs: snap.Config.SensorIntervalMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			ThresholdF:       snap.Config.ThresholdF,
			Broker:           snap.Config.Broker,
			HTTPPort:         snap.Config.HTTPPort,
			Simulated:        snap.Config.Simulated,
		},
	}
	if snap.Valid {
		inner.LastSample = snap.LastSample.UTC().Format(time.RFC3339)
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
