// Package config loads the thermofan YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/thermofan/internal/controller"
	"github.com/sweeney/thermofan/internal/gpio"
	"github.com/sweeney/thermofan/internal/sensor"
)

// DefaultPath is where the daemon looks for its config file.
const DefaultPath = "/etc/thermofan.yaml"

// Wiring is the pin table as written in the file. Segments are in a..g order.
type Wiring struct {
	Segments []int `yaml:"segments"`
	Ones     int   `yaml:"ones"`
	Tens     int   `yaml:"tens"`
	Relay    int   `yaml:"relay"`
	Sensor   int   `yaml:"sensor"`
}

// File is the on-disk configuration.
type File struct {
	Wiring         Wiring        `yaml:"wiring"`
	DigitActiveLow bool          `yaml:"digit_active_low"`
	ThresholdF     int           `yaml:"threshold_f"`
	Quantum        time.Duration `yaml:"quantum"`
	ThermalPeriod  time.Duration `yaml:"thermal_period"`
	DisplayPeriod  time.Duration `yaml:"display_period"`
	SensorInterval time.Duration `yaml:"sensor_interval"`
	Chip           string        `yaml:"chip"`
	IIO            string        `yaml:"iio"`
	Broker         string        `yaml:"broker"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
	HTTP           string        `yaml:"http"`
}

// Default returns the stock configuration for the original board.
func Default() File {
	ctl := controller.DefaultConfig()
	w := gpio.DefaultWiring
	return File{
		Wiring: Wiring{
			Segments: append([]int(nil), w.Segments[:]...),
			Ones:     w.Ones,
			Tens:     w.Tens,
			Relay:    w.Relay,
			Sensor:   w.Sensor,
		},
		DigitActiveLow: true,
		ThresholdF:     ctl.ThresholdF,
		Quantum:        ctl.Quantum,
		ThermalPeriod:  ctl.ThermalPeriod,
		DisplayPeriod:  ctl.DisplayPeriod,
		SensorInterval: ctl.SensorInterval,
		Chip:           "gpiochip0",
		IIO:            sensor.DefaultIIODevice,
		Broker:         "tcp://192.168.1.200:1883",
		Heartbeat:      15 * time.Minute,
		HTTP:           ":80",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Keys absent from the file keep their default values, except
// display_period, which follows quantum when unset.
func Load(path string) (File, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	cfg.DisplayPeriod = 0
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DisplayPeriod == 0 {
		cfg.DisplayPeriod = cfg.Quantum
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the wiring and the timing.
func (f File) Validate() error {
	if len(f.Wiring.Segments) != 7 {
		return fmt.Errorf("wiring.segments: want 7 pins, got %d", len(f.Wiring.Segments))
	}
	w := f.GPIOWiring()
	seen := make(map[int]bool)
	for _, p := range append(w.Outputs(), w.Sensor) {
		if p < 0 {
			return fmt.Errorf("wiring: negative pin %d", p)
		}
		if seen[p] {
			return fmt.Errorf("wiring: pin %d used twice", p)
		}
		seen[p] = true
	}
	if f.SensorInterval <= 0 {
		return fmt.Errorf("sensor_interval must be positive")
	}
	if f.Quantum <= 0 {
		return fmt.Errorf("quantum must be positive")
	}
	periods := []struct {
		name string
		d    time.Duration
	}{
		{"thermal_period", f.ThermalPeriod},
		{"display_period", f.DisplayPeriod},
	}
	for _, p := range periods {
		if p.d <= 0 || p.d%f.Quantum != 0 {
			return fmt.Errorf("%s %v is not a positive multiple of quantum %v", p.name, p.d, f.Quantum)
		}
	}
	return nil
}

// GPIOWiring converts the file wiring to the gpio pin table.
func (f File) GPIOWiring() gpio.Wiring {
	w := gpio.Wiring{
		Ones:   f.Wiring.Ones,
		Tens:   f.Wiring.Tens,
		Relay:  f.Wiring.Relay,
		Sensor: f.Wiring.Sensor,
	}
	copy(w.Segments[:], f.Wiring.Segments)
	return w
}

// Controller returns the timing and threshold settings for the controller.
func (f File) Controller() controller.Config {
	return controller.Config{
		Quantum:        f.Quantum,
		ThermalPeriod:  f.ThermalPeriod,
		DisplayPeriod:  f.DisplayPeriod,
		SensorInterval: f.SensorInterval,
		ThresholdF:     f.ThresholdF,
	}
}
