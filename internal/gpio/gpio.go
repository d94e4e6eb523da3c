// Package gpio provides GPIO output driving with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives GPIO output lines.
type Writer interface {
	// Set drives pin high or low. Writes are fire-and-forget: a failure is
	// recorded and surfaced by Err, never returned to the control path.
	Set(pin int, high bool)

	// Err returns the first write error since the previous call, if any.
	Err() error

	// Close releases GPIO resources.
	Close() error
}

// Wiring is the controller's pin table. Segment pins are in a..g order.
type Wiring struct {
	Segments [7]int
	Ones     int // ones digit common
	Tens     int // tens digit common
	Relay    int // fan relay / motor
	Sensor   int // DHT data line, owned by the sensor driver
}

// DefaultWiring is the original board wiring, with analog pins A0-A5
// numbered 14-19.
var DefaultWiring = Wiring{
	Segments: [7]int{7, 5, 17, 16, 15, 6, 18},
	Ones:     19,
	Tens:     4,
	Relay:    2,
	Sensor:   3,
}

// Outputs returns every pin the controller drives, segments first.
func (w Wiring) Outputs() []int {
	pins := make([]int, 0, 10)
	pins = append(pins, w.Segments[:]...)
	return append(pins, w.Ones, w.Tens, w.Relay)
}
