package gpio

// Write records one Set call.
type Write struct {
	Firing  bool
	Tripped bool
}

// FakeOutputs is a test double that records every Set call.
type FakeOutputs struct {
	// Writes contains every state the outputs were driven to, in order.
	Writes []Write

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutputs creates a FakeOutputs for testing.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// Set records the commanded states.
func (f *FakeOutputs) Set(firing, tripped bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, Write{Firing: firing, Tripped: tripped})
	return nil
}

// Last returns the most recent write, or a zero Write if none happened.
func (f *FakeOutputs) Last() Write {
	if len(f.Writes) == 0 {
		return Write{}
	}
	return f.Writes[len(f.Writes)-1]
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeOutputs) Reset() {
	f.Writes = nil
	f.Closed = false
	f.SetError = nil
}
