package gpio

import "github.com/sweeney/thermofan/internal/logic"

// Relay drives the fan relay line.
type Relay struct {
	w   Writer
	pin int
}

// NewRelay creates a relay driver on pin.
func NewRelay(w Writer, pin int) *Relay {
	return &Relay{w: w, pin: pin}
}

// Set drives the relay: high runs the fan.
func (r *Relay) Set(on bool) {
	r.w.Set(r.pin, on)
}

// Display drives a two-digit multiplexed seven-segment display.
type Display struct {
	w         Writer
	segments  [7]int
	commons   [2]int // indexed by logic.Position
	activeLow bool
}

// NewDisplay creates a display driver. With activeLow the digit commons are
// lit by driving them low (common anode).
func NewDisplay(w Writer, wiring Wiring, activeLow bool) *Display {
	d := &Display{w: w, segments: wiring.Segments, activeLow: activeLow}
	d.commons[logic.Ones] = wiring.Ones
	d.commons[logic.Tens] = wiring.Tens
	return d
}

// Blank turns off the digit at pos.
func (d *Display) Blank(pos logic.Position) {
	d.w.Set(d.commons[pos], d.activeLow)
}

// Show writes digit to pos. The digit is dark while its segments change.
func (d *Display) Show(pos logic.Position, digit int) {
	d.Blank(pos)
	for k, on := range logic.SegmentLevels(logic.Encode(digit)) {
		d.w.Set(d.segments[k], on)
	}
	d.w.Set(d.commons[pos], !d.activeLow)
}

// Drive applies one display step.
func (d *Display) Drive(step logic.DigitDrive) {
	d.Blank(step.Off)
	d.Show(step.On, step.Digit)
}

// Off blanks both digits.
func (d *Display) Off() {
	d.Blank(logic.Ones)
	d.Blank(logic.Tens)
}
