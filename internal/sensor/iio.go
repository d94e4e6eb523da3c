package sensor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/sweeney/thermofan/internal/logic"
)

// DefaultIIODevice is where the Linux dht11 driver exposes its channels.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// IIOSensor reads a DHT11 through the kernel's IIO dht11 driver.
// Values are in milli-degrees Celsius and milli-percent.
type IIOSensor struct {
	dir string
}

// NewIIOSensor checks that dir looks like a dht11 IIO device.
func NewIIOSensor(dir string) (*IIOSensor, error) {
	if _, err := os.Stat(filepath.Join(dir, "in_temp_input")); err != nil {
		return nil, fmt.Errorf("iio device %s: %w", dir, err)
	}
	return &IIOSensor{dir: dir}, nil
}

// Measure reads temperature then humidity. Driver timeouts and checksum
// failures are reported as ErrBusy.
func (s *IIOSensor) Measure() (logic.Reading, error) {
	temp, err := s.readMilli("in_temp_input")
	if err != nil {
		return logic.Reading{}, err
	}
	hum, err := s.readMilli("in_humidityrelative_input")
	if err != nil {
		return logic.Reading{}, err
	}
	return logic.Reading{TempC: temp, Humidity: hum}, nil
}

func (s *IIOSensor) readMilli(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if isTransient(err) {
			return 0, fmt.Errorf("read %s: %w", name, ErrBusy)
		}
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, ErrBusy)
	}
	return float64(v) / 1000, nil
}

// The dht11 driver returns EIO on checksum mismatch and ETIMEDOUT or EAGAIN
// when the line does not answer in time.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EIO) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EAGAIN)
}
