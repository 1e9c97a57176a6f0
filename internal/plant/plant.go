// Package plant models the thermal/hydraulic side of the heater for
// simulation: burner, primary-loop pump, heat exchanger and a lumped tank.
// Like the control core it is pure — fixed-step, no clocks, no I/O — so the
// same model drives the daemon's simulated sensor and offline scenario runs.
package plant

import (
	"fmt"
	"time"
)

// Config holds the plant parameters. Temperatures are kelvin, energies
// joules, powers watts.
type Config struct {
	// TankMass is the thermal mass of the tank contents in kg of water.
	TankMass float64
	// MaxBurnerPower is the heat input commanded while firing, in watts.
	MaxBurnerPower float64
	// ExchangerEffectiveness scales how much burner heat reaches the tank
	// while the primary pump runs (0..1].
	ExchangerEffectiveness float64
	// PumpSpeed is the commanded primary pump speed while firing (0..1].
	PumpSpeed float64
	// MainsTemp is the cold inlet temperature replacing drawn water.
	MainsTemp float64
	// AmbientTemp is the surrounding temperature for standing losses.
	AmbientTemp float64
	// LossCoefficient is the standing-loss conductance to ambient, W/K.
	LossCoefficient float64
}

// specificHeatWater is c_p for liquid water, J/(kg·K).
const specificHeatWater = 4186.0

// Validate checks the physical feasibility of a Config.
func (c Config) Validate() error {
	if c.TankMass <= 0 {
		return fmt.Errorf("plant: tank mass %v must be > 0", c.TankMass)
	}
	if c.MaxBurnerPower <= 0 {
		return fmt.Errorf("plant: burner power %v must be > 0", c.MaxBurnerPower)
	}
	if c.ExchangerEffectiveness <= 0 || c.ExchangerEffectiveness > 1 {
		return fmt.Errorf("plant: exchanger effectiveness %v must be in (0, 1]", c.ExchangerEffectiveness)
	}
	if c.PumpSpeed <= 0 || c.PumpSpeed > 1 {
		return fmt.Errorf("plant: pump speed %v must be in (0, 1]", c.PumpSpeed)
	}
	if c.MainsTemp <= 0 || c.AmbientTemp <= 0 {
		return fmt.Errorf("plant: mains/ambient temperatures must be absolute (> 0)")
	}
	if c.LossCoefficient < 0 {
		return fmt.Errorf("plant: loss coefficient %v must be >= 0", c.LossCoefficient)
	}
	return nil
}

// Plant advances the thermal model one step at a time.
// Not safe for concurrent use.
type Plant struct {
	cfg  Config
	temp float64 // lumped tank temperature, kelvin

	heatInput float64 // last commanded burner power, watts
	pumpSpeed float64 // last commanded pump speed, 0..1
}

// New creates a plant at the given initial tank temperature.
func New(cfg Config, initialTemp float64) (*Plant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if initialTemp <= 0 {
		return nil, fmt.Errorf("plant: initial temperature %v must be absolute (> 0)", initialTemp)
	}
	return &Plant{cfg: cfg, temp: initialTemp}, nil
}

// StepInput carries one tick of commands and boundary conditions.
type StepInput struct {
	// Firing gates burner heat and the primary pump, both on/off.
	Firing bool
	// DrawKgPerSec is the hot-water draw; drawn water is replaced by
	// mains-temperature water.
	DrawKgPerSec float64
	// Dt is the step duration. Must be > 0.
	Dt time.Duration
}

// Step advances the model by one tick and returns the sensed inlet
// temperature. Heat balance: burner input (through the exchanger, scaled by
// pump speed) minus standing loss, plus mass exchange from the draw.
func (p *Plant) Step(in StepInput) float64 {
	if in.Dt <= 0 {
		return p.temp
	}
	sec := in.Dt.Seconds()

	p.heatInput = 0
	p.pumpSpeed = 0
	if in.Firing {
		p.heatInput = p.cfg.MaxBurnerPower
		p.pumpSpeed = p.cfg.PumpSpeed
	}

	// Heat delivered to the tank depends on the pump actually moving water
	// through the exchanger.
	delivered := p.heatInput * p.cfg.ExchangerEffectiveness * p.pumpSpeed
	loss := p.cfg.LossCoefficient * (p.temp - p.cfg.AmbientTemp)

	capacity := p.cfg.TankMass * specificHeatWater
	p.temp += (delivered - loss) * sec / capacity

	// Draw replaces tank water with mains water.
	if in.DrawKgPerSec > 0 {
		drawn := in.DrawKgPerSec * sec
		if drawn > p.cfg.TankMass {
			drawn = p.cfg.TankMass
		}
		frac := drawn / p.cfg.TankMass
		p.temp += frac * (p.cfg.MainsTemp - p.temp)
	}

	return p.temp
}

// Temp returns the current tank temperature.
func (p *Plant) Temp() float64 {
	return p.temp
}

// HeatInput returns the burner power commanded on the last step.
func (p *Plant) HeatInput() float64 {
	return p.heatInput
}

// PumpSpeed returns the pump speed commanded on the last step.
func (p *Plant) PumpSpeed() float64 {
	return p.pumpSpeed
}
