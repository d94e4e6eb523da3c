// Package controller ties the sensor gate, the scheduler and the two state
// machines together. A Controller is owned by a single goroutine: Poll and
// Tick must not be called concurrently.
package controller

import (
	"fmt"
	"time"

	"github.com/sweeney/thermofan/internal/gpio"
	"github.com/sweeney/thermofan/internal/logic"
	"github.com/sweeney/thermofan/internal/scheduler"
	"github.com/sweeney/thermofan/internal/sensor"
	"github.com/sweeney/thermofan/internal/tick"
)

// Config holds timing and threshold settings.
type Config struct {
	Quantum        time.Duration
	ThermalPeriod  time.Duration
	DisplayPeriod  time.Duration
	SensorInterval time.Duration
	ThresholdF     int
}

// DefaultConfig returns the stock timing: 10ms quantum, thermal control every
// second, display every quantum, sensor every 4s, 75°F threshold.
func DefaultConfig() Config {
	return Config{
		Quantum:        tick.DefaultQuantum,
		ThermalPeriod:  100 * tick.DefaultQuantum,
		DisplayPeriod:  tick.DefaultQuantum,
		SensorInterval: logic.DefaultSensorInterval,
		ThresholdF:     logic.ThresholdF,
	}
}

// Reporter receives the diagnostic status line from each thermal step.
type Reporter interface {
	StatusLine(tempF int, state logic.ThermalState)
}

// State is a copy of the controller's state for status consumers.
type State struct {
	TempF      int
	Humidity   float64
	Valid      bool // at least one reading accepted
	Thermal    logic.ThermalState
	Display    logic.DisplayState
	ThresholdF int
	LastSample time.Time
	SensorErr  error
	Counts     logic.EventCounts
}

// Controller is the context object every task runs against.
type Controller struct {
	cfg      Config
	relay    *gpio.Relay
	display  *gpio.Display
	sensor   sensor.Sensor
	reporter Reporter
	gate     *logic.SensorGate
	sched    *scheduler.Scheduler

	tempF    int
	humidity float64
	valid    bool
	thermal  logic.ThermalState
	disp     logic.DisplayState
	now      time.Time
	events   []logic.Event
	fanOn    int
	fanOff   int
}

// New creates a controller and registers its tasks: thermal control first,
// display multiplexing second.
func New(cfg Config, start time.Time, relay *gpio.Relay, display *gpio.Display, s sensor.Sensor, reporter Reporter) (*Controller, error) {
	c := &Controller{
		cfg:      cfg,
		relay:    relay,
		display:  display,
		sensor:   s,
		reporter: reporter,
		gate:     logic.NewSensorGate(cfg.SensorInterval, start),
		thermal:  logic.ThermalIdle,
		disp:     logic.DisplayInit,
		now:      start,
	}

	sched, err := scheduler.New(cfg.Quantum,
		scheduler.Task{Name: "thermal", Period: cfg.ThermalPeriod, Action: c.thermalStep},
		scheduler.Task{Name: "display", Period: cfg.DisplayPeriod, Action: c.displayStep},
	)
	if err != nil {
		return nil, fmt.Errorf("build task table: %w", err)
	}
	c.sched = sched
	return c, nil
}

// Poll runs the sensor gate. On an accepted reading the shared temperature is
// updated and Poll returns true.
func (c *Controller) Poll(now time.Time) bool {
	r, ok := c.gate.Sample(now, c.sensor)
	if !ok {
		return false
	}
	c.tempF = logic.Fahrenheit(r.TempC)
	c.humidity = r.Humidity
	c.valid = true
	return true
}

// Tick advances the scheduler by one quantum, running any due tasks.
func (c *Controller) Tick(now time.Time) {
	c.now = now
	c.sched.Advance()
}

func (c *Controller) thermalStep() {
	prev := c.thermal
	next, high := logic.NextThermal(prev, c.tempF, c.cfg.ThresholdF)
	c.thermal = next
	c.relay.Set(high)

	if ev := logic.TransitionEvent(prev, next); ev != nil {
		if *ev == logic.EventFanOn {
			c.fanOn++
		} else {
			c.fanOff++
		}
		c.events = append(c.events, logic.Event{
			Timestamp:  c.now,
			Type:       *ev,
			TempF:      c.tempF,
			ThresholdF: c.cfg.ThresholdF,
			State:      next,
		})
	}

	if c.reporter != nil {
		c.reporter.StatusLine(c.tempF, next)
	}
}

func (c *Controller) displayStep() {
	next, drive := logic.NextDisplay(c.disp, c.tempF)
	c.disp = next
	if drive != nil {
		c.display.Drive(*drive)
	}
}

// DrainEvents returns and clears relay transition events raised since the
// previous call.
func (c *Controller) DrainEvents() []logic.Event {
	events := c.events
	c.events = nil
	return events
}

// Counts returns activity counters. TickOverruns is left for the caller.
func (c *Controller) Counts() logic.EventCounts {
	reads, failures := c.gate.Stats()
	return logic.EventCounts{
		FanOn:        c.fanOn,
		FanOff:       c.fanOff,
		SensorReads:  reads,
		SensorErrors: failures,
	}
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	return State{
		TempF:      c.tempF,
		Humidity:   c.humidity,
		Valid:      c.valid,
		Thermal:    c.thermal,
		Display:    c.disp,
		ThresholdF: c.cfg.ThresholdF,
		LastSample: c.gate.LastSample(),
		SensorErr:  c.gate.LastError(),
		Counts:     c.Counts(),
	}
}

// Shutdown drops the relay and blanks the display.
func (c *Controller) Shutdown() {
	c.relay.Set(false)
	c.display.Off()
}
