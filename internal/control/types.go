// Package control contains the firing safety-interlock state machine for the
// heater. This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injected via the tick duration, so the same
// controller drives both the live daemon and offline scenario runs.
package control

import "time"

// Config holds the fixed controller parameters. Temperatures are absolute
// (kelvin); the controller never converts units.
type Config struct {
	// Setpoint is the target outlet temperature.
	Setpoint float64
	// Deadband is the full width of the hysteresis band around Setpoint.
	Deadband float64
	// HighLimit is the safety cutout temperature.
	HighLimit float64
	// HighLimitMargin is subtracted from HighLimit when detecting a trip,
	// so the trip asserts slightly before the hard limit.
	HighLimitMargin float64
	// AntiShortCycle is the delay the high-limit timer must satisfy before
	// firing may resume while a trip condition persists.
	AntiShortCycle time.Duration
	// MinimumRun is the shortest continuous firing duration once the burner
	// starts, unless a trip overrides it.
	MinimumRun time.Duration
}

// TickInput is one sample of the controller's inputs.
type TickInput struct {
	// Enable is the external (operator/supervisor) enable.
	Enable bool
	// InletTemp is the sensed inlet temperature in kelvin.
	InletTemp float64
	// Dt is the time elapsed since the previous tick. Must be > 0.
	Dt time.Duration
}

// TickOutput is the controller's decision for one tick.
type TickOutput struct {
	// Firing commands the burner and primary pump on.
	Firing bool
	// HighLimitTripped reports the safety trip condition, for alarms.
	HighLimitTripped bool
}

// Plausible sensor range. Anything outside is treated as a sensor fault:
// absolute zero is unreachable and no domestic plant approaches 1000 K.
const (
	minPlausibleTemp = 0.0
	maxPlausibleTemp = 1000.0
)
