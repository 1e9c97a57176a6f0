// Command heater-control runs the burner firing interlock against a simulated
// tank, drives the burner/trip outputs, and publishes state changes to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/heater-control/internal/config"
	"github.com/sweeney/heater-control/internal/control"
	"github.com/sweeney/heater-control/internal/gpio"
	"github.com/sweeney/heater-control/internal/metrics"
	"github.com/sweeney/heater-control/internal/mqtt"
	"github.com/sweeney/heater-control/internal/plant"
	"github.com/sweeney/heater-control/internal/sim"
	"github.com/sweeney/heater-control/internal/status"
	"github.com/sweeney/heater-control/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Configuration file path")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	tick := flag.Duration("tick", 0, "Daemon tick interval (overrides config)")
	heartbeat := flag.Duration("heartbeat", -1, "Heartbeat interval (overrides config, 0 disables)")
	scenarioFlag := flag.Bool("scenario", false, "Run the configured scenario, write the trace, and exit")
	outPath := flag.String("out", "", "Scenario trace CSV path (default stdout)")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	switch *httpAddr {
	case "":
	case "off":
		cfg.Web.Addr = ""
	default:
		cfg.Web.Addr = *httpAddr
	}
	if *tick > 0 {
		cfg.Daemon.Tick = *tick
	}
	if *heartbeat >= 0 {
		cfg.Daemon.Heartbeat = *heartbeat
	}

	if *printConfig {
		printEffectiveConfig(cfg)
		return
	}

	if *scenarioFlag {
		if err := runScenario(cfg, *outPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// controlConfig maps the YAML control section onto the core's config.
func controlConfig(c config.ControlConfig) control.Config {
	return control.Config{
		Setpoint:        c.Setpoint,
		Deadband:        c.Deadband,
		HighLimit:       c.HighLimit,
		HighLimitMargin: c.HighLimitMargin,
		AntiShortCycle:  c.AntiShortCycle,
		MinimumRun:      c.MinimumRun,
	}
}

func plantConfig(p config.PlantConfig) plant.Config {
	return plant.Config{
		TankMass:               p.TankMassKg,
		MaxBurnerPower:         p.BurnerPowerW,
		ExchangerEffectiveness: p.ExchangerEffectiveness,
		PumpSpeed:              p.PumpSpeed,
		MainsTemp:              p.MainsTemp,
		AmbientTemp:            p.AmbientTemp,
		LossCoefficient:        p.LossWPerK,
	}
}

func scenarioConfig(s config.SimConfig) sim.Scenario {
	scn := sim.Scenario{Tick: s.Tick}
	for _, seg := range s.Segments {
		scn.Segments = append(scn.Segments, sim.Segment{
			Duration:     seg.Duration,
			Enable:       seg.Enable,
			DrawKgPerSec: seg.DrawKgPerSec,
		})
	}
	return scn
}

func printEffectiveConfig(cfg config.Config) {
	fmt.Printf("control: setpoint=%.1fK deadband=%.1fK high_limit=%.1fK margin=%.2fK anti_short_cycle=%v minimum_run=%v\n",
		cfg.Control.Setpoint, cfg.Control.Deadband, cfg.Control.HighLimit,
		cfg.Control.HighLimitMargin, cfg.Control.AntiShortCycle, cfg.Control.MinimumRun)
	fmt.Printf("plant: mass=%.1fkg burner=%.0fW effectiveness=%.2f pump=%.2f mains=%.1fK ambient=%.1fK loss=%.1fW/K initial=%.1fK\n",
		cfg.Plant.TankMassKg, cfg.Plant.BurnerPowerW, cfg.Plant.ExchangerEffectiveness,
		cfg.Plant.PumpSpeed, cfg.Plant.MainsTemp, cfg.Plant.AmbientTemp,
		cfg.Plant.LossWPerK, cfg.Plant.InitialTemp)
	fmt.Printf("daemon: tick=%v heartbeat=%v draw=%.3fkg/s\n",
		cfg.Daemon.Tick, cfg.Daemon.Heartbeat, cfg.Daemon.DrawKgPerSec)
	fmt.Printf("mqtt: broker=%s client_id=%s\n", cfg.MQTT.Broker, cfg.MQTT.ClientID)
	fmt.Printf("web: addr=%s\n", cfg.Web.Addr)
	fmt.Printf("gpio: enable=%v chip=%s burner_pin=%d trip_pin=%d\n",
		cfg.GPIO.Enable, cfg.GPIO.Chip, cfg.GPIO.BurnerPin, cfg.GPIO.TripPin)
}

// runScenario runs the configured offline scenario and writes the CSV trace.
func runScenario(cfg config.Config, outPath string) error {
	ctrl, err := control.NewController(controlConfig(cfg.Control))
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}
	pl, err := plant.New(plantConfig(cfg.Plant), cfg.Plant.InitialTemp)
	if err != nil {
		return fmt.Errorf("init plant: %w", err)
	}

	result, err := sim.Run(ctrl, pl, scenarioConfig(cfg.Sim))
	if err != nil {
		return fmt.Errorf("run scenario: %w", err)
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create trace: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := sim.WriteCSV(w, result.Records); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}

	log.Printf("scenario: %d ticks, final temp %.1fK, %d sensor faults",
		len(result.Records), pl.Temp(), result.SensorFaults)
	return nil
}

func run(cfg config.Config) error {
	ctrl, err := control.NewController(controlConfig(cfg.Control))
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}
	pl, err := plant.New(plantConfig(cfg.Plant), cfg.Plant.InitialTemp)
	if err != nil {
		return fmt.Errorf("init plant: %w", err)
	}

	// Initialize GPIO outputs
	var outputs gpio.Outputs
	if cfg.GPIO.Enable {
		real, err := gpio.NewRealOutputs(cfg.GPIO.Chip, cfg.GPIO.BurnerPin, cfg.GPIO.TripPin)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer real.Close()
		outputs = real
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Daemon.Tick.Milliseconds(),
		HeartbeatMs: cfg.Daemon.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.Web.Addr,
		GPIOEnabled: cfg.GPIO.Enable,
	})
	m := metrics.New()

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.Web.Addr != "" {
		srv := web.New(cfg.Web.Addr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.Web.Addr)
	}

	// Enable commands arrive over MQTT; the run loop consumes them between ticks.
	enableCh := make(chan bool, 4)
	if err := publisher.SubscribeEnable(func(enabled bool) {
		select {
		case enableCh <- enabled:
		default:
			log.Printf("dropping enable command, loop busy")
		}
	}); err != nil {
		log.Printf("enable subscription failed: %v", err)
	}

	log.Printf("started: tick=%v heartbeat=%v broker=%s setpoint=%.1fK high_limit=%.1fK",
		cfg.Daemon.Tick, cfg.Daemon.Heartbeat, cfg.MQTT.Broker,
		cfg.Control.Setpoint, cfg.Control.HighLimit)

	ticker := time.NewTicker(cfg.Daemon.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loop := loopConfig{
		Tick:         cfg.Daemon.Tick,
		Heartbeat:    cfg.Daemon.Heartbeat,
		DrawKgPerSec: cfg.Daemon.DrawKgPerSec,
	}
	return runLoop(ctrl, pl, publisher, publisher, outputs, tracker, m, loop, time.Now, ticker.C, enableCh, sigCh)
}

// loopConfig carries the per-tick settings into runLoop.
type loopConfig struct {
	Tick         time.Duration
	Heartbeat    time.Duration
	DrawKgPerSec float64
}

func runLoop(ctrl *control.Controller, pl *plant.Plant, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, outputs gpio.Outputs, tracker *status.Tracker, m *metrics.Metrics, loop loopConfig, now func() time.Time, tick <-chan time.Time, enable <-chan bool, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	enabled := true
	var prev control.TickOutput

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case enabled = <-enable:
			log.Printf("enable command: %v", enabled)

		case <-tick:
			t := now()
			temp := pl.Temp()

			out, err := ctrl.Tick(control.TickInput{
				Enable:    enabled,
				InletTemp: temp,
				Dt:        loop.Tick,
			})
			if err != nil {
				var fault *control.SensorFault
				if !errors.As(err, &fault) {
					return fmt.Errorf("controller tick: %w", err)
				}
				// Controller failed safe; out is the de-energized state.
				log.Printf("sensor fault: %v", err)
				if tracker != nil {
					tracker.RecordSensorFault()
				}
				if m != nil {
					m.ObserveSensorFault()
				}
				faultEvent := mqtt.Event{Timestamp: t, Type: mqtt.EventSensorFault, InletTemp: fault.Value}
				if err := publisher.Publish(faultEvent); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			for _, event := range mqtt.EventsForTransition(prev, out, temp, t) {
				log.Printf("event: %s (inlet=%.1fK)", event.Type, temp)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}
			prev = out

			if outputs != nil {
				if err := outputs.Set(out.Firing, out.HighLimitTripped); err != nil {
					log.Printf("gpio write error: %v", err)
				}
			}

			pl.Step(plant.StepInput{
				Firing:       out.Firing,
				DrawKgPerSec: loop.DrawKgPerSec,
				Dt:           loop.Tick,
			})

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.RecordTick(out.Firing, out.HighLimitTripped, ctrl.CallForHeat(), enabled, temp)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
			if m != nil {
				m.ObserveTick(out.Firing, out.HighLimitTripped, temp, loop.Tick.Seconds())
			}

			// Check for heartbeat
			if loop.Heartbeat > 0 && t.Sub(lastHeartbeat) >= loop.Heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					log.Printf("heartbeat: uptime=%v firing_on=%d trips=%d faults=%d",
						snap.Uptime().Round(time.Second), snap.Counts.FiringOn, snap.Counts.Trips, snap.Counts.SensorFaults)
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
