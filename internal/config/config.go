// Package config loads and validates the daemon/scenario configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Control ControlConfig `yaml:"control"`
	Plant   PlantConfig   `yaml:"plant"`
	Sim     SimConfig     `yaml:"sim"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Web     WebConfig     `yaml:"web"`
	GPIO    GPIOConfig    `yaml:"gpio"`
}

// ControlConfig mirrors the control core configuration. Temperatures kelvin.
type ControlConfig struct {
	Setpoint        float64       `yaml:"setpoint"`
	Deadband        float64       `yaml:"deadband"`
	HighLimit       float64       `yaml:"high_limit"`
	HighLimitMargin float64       `yaml:"high_limit_margin"`
	AntiShortCycle  time.Duration `yaml:"anti_short_cycle"`
	MinimumRun      time.Duration `yaml:"minimum_run"`
}

// PlantConfig mirrors the plant model configuration.
type PlantConfig struct {
	TankMassKg             float64 `yaml:"tank_mass_kg"`
	BurnerPowerW           float64 `yaml:"burner_power_w"`
	ExchangerEffectiveness float64 `yaml:"exchanger_effectiveness"`
	PumpSpeed              float64 `yaml:"pump_speed"`
	MainsTemp              float64 `yaml:"mains_temp"`
	AmbientTemp            float64 `yaml:"ambient_temp"`
	LossWPerK              float64 `yaml:"loss_w_per_k"`
	InitialTemp            float64 `yaml:"initial_temp"`
}

// SimConfig describes an offline scenario run.
type SimConfig struct {
	Tick     time.Duration `yaml:"tick"`
	Segments []SegmentConfig
}

// SegmentConfig is one stretch of a scenario with constant boundary inputs.
type SegmentConfig struct {
	Duration     time.Duration `yaml:"duration"`
	Enable       bool          `yaml:"enable"`
	DrawKgPerSec float64       `yaml:"draw_kg_per_sec"`
}

// DaemonConfig holds live-loop settings. DrawKgPerSec is the standing hot
// water draw applied to the plant model while the daemon runs.
type DaemonConfig struct {
	Tick         time.Duration `yaml:"tick"`
	Heartbeat    time.Duration `yaml:"heartbeat"`
	DrawKgPerSec float64       `yaml:"draw_kg_per_sec"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type GPIOConfig struct {
	Enable    bool   `yaml:"enable"`
	Chip      string `yaml:"chip"`
	BurnerPin int    `yaml:"burner_pin"`
	TripPin   int    `yaml:"trip_pin"`
}

// UnmarshalYAML keeps segment lists readable while defaulting enable=true
// when omitted (a scenario segment without an operator action leaves the
// heater enabled).
func (s *SimConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		Tick     time.Duration `yaml:"tick"`
		Segments []struct {
			Duration     time.Duration `yaml:"duration"`
			Enable       *bool         `yaml:"enable"`
			DrawKgPerSec float64       `yaml:"draw_kg_per_sec"`
		} `yaml:"segments"`
	}
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}
	s.Tick = r.Tick
	s.Segments = nil
	for _, seg := range r.Segments {
		enable := true
		if seg.Enable != nil {
			enable = *seg.Enable
		}
		s.Segments = append(s.Segments, SegmentConfig{
			Duration:     seg.Duration,
			Enable:       enable,
			DrawKgPerSec: seg.DrawKgPerSec,
		})
	}
	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes and validates a configuration document, applying defaults.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Control.Setpoint == 0 {
		return Config{}, fmt.Errorf("control.setpoint is required")
	}
	if cfg.Control.HighLimit == 0 {
		return Config{}, fmt.Errorf("control.high_limit is required")
	}

	if cfg.Plant.TankMassKg == 0 {
		cfg.Plant.TankMassKg = 50
	}
	if cfg.Plant.BurnerPowerW == 0 {
		cfg.Plant.BurnerPowerW = 24000
	}
	if cfg.Plant.ExchangerEffectiveness == 0 {
		cfg.Plant.ExchangerEffectiveness = 0.9
	}
	if cfg.Plant.PumpSpeed == 0 {
		cfg.Plant.PumpSpeed = 1.0
	}
	if cfg.Plant.MainsTemp == 0 {
		cfg.Plant.MainsTemp = 283.0
	}
	if cfg.Plant.AmbientTemp == 0 {
		cfg.Plant.AmbientTemp = 293.0
	}
	if cfg.Plant.InitialTemp == 0 {
		cfg.Plant.InitialTemp = cfg.Plant.MainsTemp
	}

	if cfg.Sim.Tick <= 0 {
		cfg.Sim.Tick = time.Second
	}
	for i, seg := range cfg.Sim.Segments {
		if seg.Duration <= 0 {
			return Config{}, fmt.Errorf("sim.segments[%d].duration must be > 0", i)
		}
		if seg.DrawKgPerSec < 0 {
			return Config{}, fmt.Errorf("sim.segments[%d].draw_kg_per_sec must be >= 0", i)
		}
	}

	if cfg.Daemon.Tick <= 0 {
		cfg.Daemon.Tick = time.Second
	}
	if cfg.Daemon.Heartbeat == 0 {
		cfg.Daemon.Heartbeat = 15 * time.Minute
	}
	if cfg.Daemon.DrawKgPerSec < 0 {
		return Config{}, fmt.Errorf("daemon.draw_kg_per_sec must be >= 0")
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "heater-control"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}

	if cfg.GPIO.Enable {
		if cfg.GPIO.Chip == "" {
			cfg.GPIO.Chip = "gpiochip0"
		}
		if cfg.GPIO.BurnerPin == cfg.GPIO.TripPin {
			return Config{}, fmt.Errorf("gpio.burner_pin and gpio.trip_pin must differ")
		}
	}

	return cfg, nil
}
