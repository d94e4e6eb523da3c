// Package status provides a thread-safe status tracker for the thermofan daemon.
// The control loop writes it; HTTP handlers and MQTT system events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/thermofan/internal/controller"
	"github.com/sweeney/thermofan/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
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
	QuantumMs        int64
	ThermalPeriodMs  int64
	DisplayPeriodMs  int64
	SensorIntervalMs int64
	HeartbeatMs      int64
	ThresholdF       int
	Broker           string
	HTTPPort         string
	Simulated        bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	BootID        string
	TempF         int
	Humidity      float64
	Valid         bool
	Thermal       logic.ThermalState
	Display       logic.DisplayState
	LastSample    time.Time
	SensorError   string
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, boot ID and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			BootID:    bootID,
			StartTime: startTime,
			Thermal:   logic.ThermalIdle,
			Display:   logic.DisplayInit,
			Config:    cfg,
		},
	}
}

// Update copies controller state into the tracker.
// Called from the control loop on every tick.
func (t *Tracker) Update(st controller.State, tickOverruns uint64) {
	sensorErr := ""
	if st.SensorErr != nil {
		sensorErr = st.SensorErr.Error()
	}
	counts := st.Counts
	counts.TickOverruns = tickOverruns

	t.mu.Lock()
	t.snap.TempF = st.TempF
	t.snap.Humidity = st.Humidity
	t.snap.Valid = st.Valid
	t.snap.Thermal = st.Thermal
	t.snap.Display = st.Display
	t.snap.LastSample = st.LastSample
	t.snap.SensorError = sensorErr
	t.snap.Counts = counts
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
	s.Now = time.Now()
	return s
}
