//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives GPIO on actual hardware using Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line

	mu  sync.Mutex
	err error
}

// NewRealWriter requests each pin as an output at its initial level.
func NewRealWriter(chipName string, initial map[int]bool) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("thermofan"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{chip: chip, lines: make(map[int]*gpiocdev.Line, len(initial))}
	for pin, high := range initial {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(level(high)))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request pin %d: %w", pin, err)
		}
		w.lines[pin] = line
	}
	return w, nil
}

// Set drives pin. Unknown pins and write failures are recorded for Err.
func (w *RealWriter) Set(pin int, high bool) {
	line, ok := w.lines[pin]
	if !ok {
		w.record(fmt.Errorf("pin %d not requested", pin))
		return
	}
	if err := line.SetValue(level(high)); err != nil {
		w.record(fmt.Errorf("set pin %d: %w", pin, err))
	}
}

func (w *RealWriter) record(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

// Err returns and clears the first write error since the last call.
func (w *RealWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.err
	w.err = nil
	return err
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults) before
// closing so the relay and display are released on shutdown/reboot.
func (w *RealWriter) Close() error {
	var errs []error

	for pin, line := range w.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	w.lines = nil
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
