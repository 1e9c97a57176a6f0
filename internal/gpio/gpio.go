// Package gpio drives the burner-relay and trip-indicator outputs with
// hardware abstraction. The real implementation uses the Linux GPIO
// character device; the fake implementation allows testing without hardware.
package gpio

// Outputs drives the physical control outputs.
type Outputs interface {
	// Set drives the burner relay and trip indicator to the given states.
	Set(firing, tripped bool) error

	// Close de-energizes both outputs and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinBurner = 17 // burner relay
	PinTrip   = 27 // high-limit trip indicator LED
)
