package control

import (
	"fmt"
	"math"
	"time"
)

// Controller owns the interlock state and advances it one tick at a time.
// Not safe for concurrent use; the run loop is the only caller.
type Controller struct {
	cfg Config

	// callForHeat is the latched hysteresis decision. It changes only at
	// the dead-band edges and holds everywhere in between.
	callForHeat bool

	// highLimitTimer counts how long the trip condition has been
	// continuously true. Resets the instant the trip clears.
	highLimitTimer Timer

	// runTimer counts how long firing has been continuously true.
	runTimer Timer

	// firing is the previous tick's decision, fed back into the run timer.
	firing bool
}

// Validate checks the feasibility invariants of a Config.
func (c Config) Validate() error {
	if c.Deadband < 0 {
		return fmt.Errorf("%w: deadband %v < 0", ErrInvalidConfig, c.Deadband)
	}
	if c.HighLimitMargin < 0 {
		return fmt.Errorf("%w: high-limit margin %v < 0", ErrInvalidConfig, c.HighLimitMargin)
	}
	if c.AntiShortCycle < 0 {
		return fmt.Errorf("%w: anti-short-cycle %v < 0", ErrInvalidConfig, c.AntiShortCycle)
	}
	if c.MinimumRun < 0 {
		return fmt.Errorf("%w: minimum run %v < 0", ErrInvalidConfig, c.MinimumRun)
	}
	// The top of the hysteresis band must sit below the trip threshold,
	// otherwise the burner can never legally satisfy a call for heat.
	if c.Setpoint+c.Deadband/2 >= c.HighLimit-c.HighLimitMargin {
		return fmt.Errorf("%w: firing band infeasible: setpoint+deadband/2 (%v) >= high limit - margin (%v)",
			ErrInvalidConfig, c.Setpoint+c.Deadband/2, c.HighLimit-c.HighLimitMargin)
	}
	return nil
}

// NewController creates a controller with all state zero/off.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg}, nil
}

// Config returns the immutable configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Firing returns the most recent firing decision.
func (c *Controller) Firing() bool {
	return c.firing
}

// CallForHeat returns the current hysteresis latch.
func (c *Controller) CallForHeat() bool {
	return c.callForHeat
}

// Tick advances the controller by one step. Gates are computed from the
// pre-tick timer values; timers are written only after the firing decision
// and trip state are known, so a single pass needs no fixed-point solve.
func (c *Controller) Tick(in TickInput) (TickOutput, error) {
	if in.Dt <= 0 {
		return TickOutput{}, ErrNonPositiveTick
	}
	if !plausibleTemp(in.InletTemp) {
		return c.failSafe(in.Dt), &SensorFault{Value: in.InletTemp}
	}

	callForHeat := needHeat(in.InletTemp, c.cfg, c.callForHeat)

	tripped := in.InletTemp >= c.cfg.HighLimit-c.cfg.HighLimitMargin
	highLimitOK := c.highLimitOK(tripped)
	mustStayOn := c.mustStayOn(tripped)

	wantsToFire := in.Enable && callForHeat && highLimitOK
	// Enable is re-applied as a hard gate: dropping it always overrides a
	// pending minimum-run hold.
	firing := in.Enable && (wantsToFire || mustStayOn)

	c.callForHeat = callForHeat
	c.highLimitTimer.Advance(tripped, in.Dt)
	c.runTimer.Advance(firing, in.Dt)
	c.firing = firing

	return TickOutput{Firing: firing, HighLimitTripped: tripped}, nil
}

// needHeat applies the dead-band rule: below the band asserts the call,
// above the band clears it, inside the band the latch holds.
func needHeat(temp float64, cfg Config, latch bool) bool {
	switch {
	case temp <= cfg.Setpoint-cfg.Deadband/2:
		return true
	case temp >= cfg.Setpoint+cfg.Deadband/2:
		return false
	default:
		return latch
	}
}

// highLimitOK evaluates the safety interlock gate from the pre-tick timer.
// Note: because the high-limit timer resets the instant the trip clears and
// a near-zero timer counts as "delay satisfied", the anti-short-cycle delay
// only constrains firing while the trip condition is continuously active.
// That matches the deployed behavior and is kept as-is.
func (c *Controller) highLimitOK(tripped bool) bool {
	delayComplete := c.highLimitTimer.Elapsed() >= c.cfg.AntiShortCycle
	timerAtZero := c.highLimitTimer.AtZero()
	return !tripped && (delayComplete || timerAtZero)
}

// mustStayOn evaluates the minimum-run hold from the pre-tick run timer.
// A trip always satisfies the minimum-run requirement so shutdown is
// immediate.
func (c *Controller) mustStayOn(tripped bool) bool {
	minTimeComplete := c.runTimer.Elapsed() >= c.cfg.MinimumRun
	timerWasRunning := c.runTimer.Running()
	return timerWasRunning && !minTimeComplete && !tripped
}

// failSafe is the sensor-fault path: firing forced off, timers advanced
// consistently with firing=false. The trip condition cannot be evaluated
// from a bad sample, so it is treated as clear and its timer resets.
func (c *Controller) failSafe(dt time.Duration) TickOutput {
	c.highLimitTimer.Advance(false, dt)
	c.runTimer.Advance(false, dt)
	c.firing = false
	return TickOutput{Firing: false, HighLimitTripped: false}
}

func plausibleTemp(temp float64) bool {
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		return false
	}
	return temp > minPlausibleTemp && temp < maxPlausibleTemp
}
