// Package logic contains the pure control logic of the fan/display controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// ThresholdF is the default fan threshold in degrees Fahrenheit.
const ThresholdF = 75

// ThermalState is the state of the thermal control machine.
type ThermalState string

const (
	ThermalIdle  ThermalState = "IDLE"
	ThermalFanOn ThermalState = "FAN_ON"
)

// DisplayState is the state of the display multiplexing machine.
type DisplayState string

const (
	DisplayInit     DisplayState = "INIT"
	DisplayShowOnes DisplayState = "SHOW_ONES"
	DisplayShowTens DisplayState = "SHOW_TENS"
)

// Position identifies one of the two display digits.
type Position int

const (
	Ones Position = iota
	Tens
)

func (p Position) String() string {
	if p == Tens {
		return "tens"
	}
	return "ones"
}

// Reading is one validated sensor measurement.
type Reading struct {
	TempC    float64
	Humidity float64
}

// EventType represents a relay transition event.
type EventType string

const (
	EventFanOn  EventType = "FAN_ON"
	EventFanOff EventType = "FAN_OFF"
)

// Event represents a relay transition to be published.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	TempF      int
	ThresholdF int
	State      ThermalState
}

// EventCounts tracks controller activity since startup.
type EventCounts struct {
	FanOn        int
	FanOff       int
	SensorReads  int
	SensorErrors int
	TickOverruns uint64
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
