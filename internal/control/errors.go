package control

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by all configuration validation failures.
var ErrInvalidConfig = errors.New("control: invalid config")

// ErrNonPositiveTick is returned when a caller supplies Dt <= 0.
// The controller state is left untouched.
var ErrNonPositiveTick = errors.New("control: tick duration must be > 0")

// SensorFault reports an inlet temperature sample that is not a finite,
// physically plausible value. The controller fails safe (firing forced off)
// and surfaces the fault to the caller.
type SensorFault struct {
	Value float64
}

func (e *SensorFault) Error() string {
	return fmt.Sprintf("control: implausible inlet temperature %v", e.Value)
}
