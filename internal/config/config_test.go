package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
control:
  setpoint: 350.0
  deadband: 5.6
  high_limit: 355.4
  high_limit_margin: 0.1
  anti_short_cycle: 300s
  minimum_run: 60s
plant:
  tank_mass_kg: 40
  initial_temp: 320.0
sim:
  tick: 1s
  segments:
    - duration: 10m
      draw_kg_per_sec: 0.1
    - duration: 5m
      enable: false
daemon:
  tick: 500ms
  draw_kg_per_sec: 0.02
mqtt:
  broker: tcp://broker.local:1883
web:
  addr: ":9090"
gpio:
  enable: true
  burner_pin: 17
  trip_pin: 27
`

func TestParseSample(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Control.Setpoint != 350.0 {
		t.Errorf("setpoint: expected 350.0, got %v", cfg.Control.Setpoint)
	}
	if cfg.Control.AntiShortCycle != 300*time.Second {
		t.Errorf("anti_short_cycle: expected 300s, got %v", cfg.Control.AntiShortCycle)
	}
	if cfg.Control.MinimumRun != time.Minute {
		t.Errorf("minimum_run: expected 1m, got %v", cfg.Control.MinimumRun)
	}

	if cfg.Plant.TankMassKg != 40 {
		t.Errorf("tank_mass_kg: expected 40, got %v", cfg.Plant.TankMassKg)
	}
	// Unset plant fields get defaults.
	if cfg.Plant.BurnerPowerW != 24000 {
		t.Errorf("burner_power_w default: expected 24000, got %v", cfg.Plant.BurnerPowerW)
	}
	if cfg.Plant.MainsTemp != 283.0 {
		t.Errorf("mains_temp default: expected 283.0, got %v", cfg.Plant.MainsTemp)
	}

	if len(cfg.Sim.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(cfg.Sim.Segments))
	}
	if !cfg.Sim.Segments[0].Enable {
		t.Error("segment 0: enable should default to true")
	}
	if cfg.Sim.Segments[0].DrawKgPerSec != 0.1 {
		t.Errorf("segment 0 draw: expected 0.1, got %v", cfg.Sim.Segments[0].DrawKgPerSec)
	}
	if cfg.Sim.Segments[1].Enable {
		t.Error("segment 1: enable=false should be honored")
	}

	if cfg.Daemon.Tick != 500*time.Millisecond {
		t.Errorf("daemon tick: expected 500ms, got %v", cfg.Daemon.Tick)
	}
	if cfg.Daemon.Heartbeat != 15*time.Minute {
		t.Errorf("heartbeat default: expected 15m, got %v", cfg.Daemon.Heartbeat)
	}
	if cfg.Daemon.DrawKgPerSec != 0.02 {
		t.Errorf("daemon draw: expected 0.02, got %v", cfg.Daemon.DrawKgPerSec)
	}
	if cfg.MQTT.ClientID != "heater-control" {
		t.Errorf("client_id default: expected heater-control, got %q", cfg.MQTT.ClientID)
	}
	if cfg.GPIO.Chip != "gpiochip0" {
		t.Errorf("gpio chip default: expected gpiochip0, got %q", cfg.GPIO.Chip)
	}
}

func TestParseMissingSetpoint(t *testing.T) {
	_, err := Parse([]byte("control:\n  high_limit: 355.4\n"))
	if err == nil {
		t.Error("expected error for missing setpoint")
	}
}

func TestParseMissingHighLimit(t *testing.T) {
	_, err := Parse([]byte("control:\n  setpoint: 350.0\n"))
	if err == nil {
		t.Error("expected error for missing high limit")
	}
}

func TestParseBadSegment(t *testing.T) {
	doc := `
control:
  setpoint: 350.0
  high_limit: 355.4
sim:
  segments:
    - duration: 0s
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("expected error for zero-duration segment")
	}
}

func TestParseGPIOSamePins(t *testing.T) {
	doc := `
control:
  setpoint: 350.0
  high_limit: 355.4
gpio:
  enable: true
  burner_pin: 17
  trip_pin: 17
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("expected error for identical burner/trip pins")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://broker.local:1883" {
		t.Errorf("broker: got %q", cfg.MQTT.Broker)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
