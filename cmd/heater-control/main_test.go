package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/heater-control/internal/control"
	"github.com/sweeney/heater-control/internal/gpio"
	"github.com/sweeney/heater-control/internal/metrics"
	"github.com/sweeney/heater-control/internal/mqtt"
	"github.com/sweeney/heater-control/internal/plant"
	"github.com/sweeney/heater-control/internal/status"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func testControlConfig() control.Config {
	return control.Config{
		Setpoint:        350.0,
		Deadband:        5.6,
		HighLimit:       355.4,
		HighLimitMargin: 0.1,
		AntiShortCycle:  300 * time.Second,
		MinimumRun:      60 * time.Second,
	}
}

func testPlantConfig() plant.Config {
	return plant.Config{
		TankMass:               50,
		MaxBurnerPower:         24000,
		ExchangerEffectiveness: 0.9,
		PumpSpeed:              1.0,
		MainsTemp:              283.0,
		AmbientTemp:            293.0,
		LossCoefficient:        5.0,
	}
}

// loopFixtures bundles the doubles a runLoop test asserts against.
type loopFixtures struct {
	ctrl    *control.Controller
	pl      *plant.Plant
	pub     *mqtt.FakePublisher
	outputs *gpio.FakeOutputs
	tracker *status.Tracker
	metrics *metrics.Metrics
	tick    chan time.Time
	enable  chan bool
	sig     chan os.Signal
	errCh   chan error
}

// startLoop builds the fixtures and launches runLoop with a synthetic clock.
// The enable channel is unbuffered so tests can sequence commands against ticks.
func startLoop(t *testing.T, initialTemp float64, loop loopConfig, clock func() time.Time) *loopFixtures {
	t.Helper()

	ctrl, err := control.NewController(testControlConfig())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	pl, err := plant.New(testPlantConfig(), initialTemp)
	if err != nil {
		t.Fatalf("plant.New: %v", err)
	}

	f := &loopFixtures{
		ctrl:    ctrl,
		pl:      pl,
		pub:     mqtt.NewFakePublisher(),
		outputs: gpio.NewFakeOutputs(),
		tracker: status.NewTracker(time.Now(), status.Config{}),
		metrics: metrics.New(),
		tick:    make(chan time.Time),
		enable:  make(chan bool),
		sig:     make(chan os.Signal, 1),
		errCh:   make(chan error, 1),
	}

	go func() {
		f.errCh <- runLoop(f.ctrl, f.pl, f.pub, f.pub, f.outputs, f.tracker, f.metrics, loop, clock, f.tick, f.enable, f.sig)
	}()
	return f
}

func (f *loopFixtures) runTicks(n int) {
	for i := 0; i < n; i++ {
		f.tick <- time.Time{}
	}
}

func (f *loopFixtures) shutdown(t *testing.T, signal os.Signal) {
	t.Helper()
	f.sig <- signal
	if err := <-f.errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func defaultLoopConfig() loopConfig {
	return loopConfig{Tick: time.Second, Heartbeat: 0, DrawKgPerSec: 0}
}

func countEvents(events []mqtt.Event, typ mqtt.EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestRunLoopColdStartFires(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 283.0, defaultLoopConfig(), clock)

	f.runTicks(5)
	f.shutdown(t, syscall.SIGTERM)

	if got := countEvents(f.pub.Events, mqtt.EventFiringOn); got != 1 {
		t.Fatalf("expected 1 FIRING_ON event, got %d", got)
	}
	if got := countEvents(f.pub.Events, mqtt.EventFiringOff); got != 0 {
		t.Errorf("expected 0 FIRING_OFF events, got %d", got)
	}

	if last := f.outputs.Last(); !last.Firing || last.Tripped {
		t.Errorf("expected burner output on and trip output off, got %+v", last)
	}

	// Five firing ticks at 24kW into 50kg should warm the tank measurably.
	if f.pl.Temp() <= 283.0 {
		t.Errorf("expected plant to warm past 283.0, got %v", f.pl.Temp())
	}

	snap := f.tracker.Snapshot()
	if !snap.Firing || snap.Counts.FiringOn != 1 {
		t.Errorf("tracker: expected firing with 1 firing-on count, got %+v", snap)
	}
}

func TestRunLoopDisableCommandStopsFiring(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 283.0, defaultLoopConfig(), clock)

	// Unbuffered send: runLoop has consumed the command before the first tick.
	f.enable <- false
	f.runTicks(5)
	f.shutdown(t, syscall.SIGTERM)

	if got := countEvents(f.pub.Events, mqtt.EventFiringOn); got != 0 {
		t.Errorf("expected no firing while disabled, got %d FIRING_ON events", got)
	}
	if last := f.outputs.Last(); last.Firing {
		t.Errorf("expected burner output off while disabled, got %+v", last)
	}
	if snap := f.tracker.Snapshot(); snap.Enabled {
		t.Error("tracker should report disabled")
	}
}

func TestRunLoopReEnableResumesFiring(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 283.0, defaultLoopConfig(), clock)

	f.enable <- false
	f.runTicks(3)
	f.enable <- true
	f.runTicks(3)
	f.shutdown(t, syscall.SIGTERM)

	if got := countEvents(f.pub.Events, mqtt.EventFiringOn); got != 1 {
		t.Errorf("expected 1 FIRING_ON after re-enable, got %d", got)
	}
	if last := f.outputs.Last(); !last.Firing {
		t.Errorf("expected burner output on after re-enable, got %+v", last)
	}
}

func TestRunLoopTripDrivesOutputs(t *testing.T) {
	// Start above the trip threshold; the tank cools far too slowly for the
	// trip to clear within the test.
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 360.0, defaultLoopConfig(), clock)

	f.runTicks(4)
	f.shutdown(t, syscall.SIGTERM)

	if got := countEvents(f.pub.Events, mqtt.EventTrip); got != 1 {
		t.Fatalf("expected 1 TRIP event, got %d", got)
	}
	if got := countEvents(f.pub.Events, mqtt.EventFiringOn); got != 0 {
		t.Errorf("expected no firing while tripped, got %d FIRING_ON events", got)
	}
	if last := f.outputs.Last(); last.Firing || !last.Tripped {
		t.Errorf("expected burner off and trip output on, got %+v", last)
	}
	if snap := f.tracker.Snapshot(); snap.Counts.Trips != 1 {
		t.Errorf("tracker: expected 1 trip, got %d", snap.Counts.Trips)
	}
}

func TestRunLoopSensorFaultFailsSafe(t *testing.T) {
	// An initial temperature outside the plausible sensor range makes every
	// tick a sensor fault; the loop must keep running and de-energize.
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 1500.0, defaultLoopConfig(), clock)

	f.runTicks(3)
	f.shutdown(t, syscall.SIGTERM)

	if got := countEvents(f.pub.Events, mqtt.EventSensorFault); got != 3 {
		t.Errorf("expected 3 SENSOR_FAULT events, got %d", got)
	}
	if got := countEvents(f.pub.Events, mqtt.EventFiringOn); got != 0 {
		t.Errorf("expected no firing during sensor faults, got %d", got)
	}
	if last := f.outputs.Last(); last.Firing || last.Tripped {
		t.Errorf("expected outputs de-energized, got %+v", last)
	}
	if snap := f.tracker.Snapshot(); snap.Counts.SensorFaults != 3 {
		t.Errorf("tracker: expected 3 sensor faults, got %d", snap.Counts.SensorFaults)
	}
}

func TestRunLoopPublishErrorDoesNotCrash(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 283.0, defaultLoopConfig(), clock)
	f.pub.PublishError = errors.New("broker unavailable")

	f.runTicks(3)
	f.shutdown(t, syscall.SIGTERM)

	if len(f.pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(f.pub.Events))
	}

	// SHUTDOWN goes through PublishSystem and should still land.
	found := false
	for _, se := range f.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}

	// The outputs still track the controller despite the dead broker.
	if last := f.outputs.Last(); !last.Firing {
		t.Errorf("expected burner output on, got %+v", last)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// 5-minute ticks against a 15-minute heartbeat: the third tick is the
	// first with 15 minutes elapsed since start.
	loop := loopConfig{Tick: 5 * time.Minute, Heartbeat: 15 * time.Minute}
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)
	f := startLoop(t, 283.0, loop, clock)

	f.runTicks(3)
	f.shutdown(t, syscall.SIGTERM)

	var heartbeats, shutdowns int
	for _, se := range f.pub.SystemEvents {
		switch se.Event {
		case "HEARTBEAT":
			heartbeats++
			if len(se.RawPayload) == 0 {
				t.Error("HEARTBEAT event missing status payload")
			}
		case "SHUTDOWN":
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 283.0, defaultLoopConfig(), clock)

	f.shutdown(t, syscall.SIGINT)

	if len(f.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.pub.SystemEvents))
	}
	se := f.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	f := startLoop(t, 283.0, defaultLoopConfig(), clock)

	f.shutdown(t, syscall.SIGTERM)

	se := f.pub.SystemEvents[0]
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}
}
