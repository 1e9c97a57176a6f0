//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives actual hardware using the Linux GPIO character device.
type RealOutputs struct {
	chip      *gpiocdev.Chip
	burnerPin *gpiocdev.Line
	tripPin   *gpiocdev.Line
}

// NewRealOutputs requests the burner and trip lines as outputs, both
// de-energized. The relay is wired active-high; boot defaults leave the
// lines low so the burner stays off until the controller commands it.
func NewRealOutputs(chipName string, pinBurner, pinTrip int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	burnerLine, err := chip.RequestLine(pinBurner, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request burner pin %d: %w", pinBurner, err)
	}

	tripLine, err := chip.RequestLine(pinTrip, gpiocdev.AsOutput(0))
	if err != nil {
		burnerLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request trip pin %d: %w", pinTrip, err)
	}

	return &RealOutputs{
		chip:      chip,
		burnerPin: burnerLine,
		tripPin:   tripLine,
	}, nil
}

// Set drives the burner relay and trip indicator.
func (o *RealOutputs) Set(firing, tripped bool) error {
	if err := o.burnerPin.SetValue(boolToLevel(firing)); err != nil {
		return fmt.Errorf("set burner pin: %w", err)
	}
	if err := o.tripPin.SetValue(boolToLevel(tripped)); err != nil {
		return fmt.Errorf("set trip pin: %w", err)
	}
	return nil
}

// Close de-energizes both outputs before releasing them so the burner relay
// can never be left on across a daemon restart.
func (o *RealOutputs) Close() error {
	var errs []error

	if o.burnerPin != nil {
		if err := o.burnerPin.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear burner pin: %w", err))
		}
		if err := o.burnerPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close burner pin: %w", err))
		}
	}
	if o.tripPin != nil {
		if err := o.tripPin.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear trip pin: %w", err))
		}
		if err := o.tripPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trip pin: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToLevel(b bool) int {
	if b {
		return 1
	}
	return 0
}
