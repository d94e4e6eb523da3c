package gpio

// Write is one recorded pin write.
type Write struct {
	Pin  int
	High bool
}

// FakeWriter is a test double that records GPIO writes.
type FakeWriter struct {
	// Writes contains every write in order.
	Writes []Write

	// Levels holds the last level written to each pin.
	Levels map[int]bool

	// NoHistory, if set, skips recording Writes. Levels are still tracked.
	NoHistory bool

	// SetError, if set, is reported by Err after any write.
	SetError error

	// Closed tracks if Close was called
	Closed bool

	pendingErr error
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{Levels: make(map[int]bool)}
}

// Set records the write.
func (f *FakeWriter) Set(pin int, high bool) {
	if !f.NoHistory {
		f.Writes = append(f.Writes, Write{Pin: pin, High: high})
	}
	f.Levels[pin] = high
	if f.SetError != nil && f.pendingErr == nil {
		f.pendingErr = f.SetError
	}
}

// Err returns and clears the pending write error.
func (f *FakeWriter) Err() error {
	err := f.pendingErr
	f.pendingErr = nil
	return err
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes but keeps pin levels.
func (f *FakeWriter) Reset() {
	f.Writes = nil
	f.pendingErr = nil
}
