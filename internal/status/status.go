// Package status provides a thread-safe status tracker for the heater
// control daemon. It is read by the HTTP handlers and serialized into MQTT
// system events.
package status

import (
	"sync"
	"time"
)

// Counts tracks controller transitions since startup.
type Counts struct {
	FiringOn     int
	FiringOff    int
	Trips        int
	SensorFaults int
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	GPIOEnabled bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Firing        bool
	Tripped       bool
	CallForHeat   bool
	Enabled       bool
	InletTemp     float64
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	LastTick      time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordTick stores the latest controller state and derives transition
// counts from the previous tick. Called from the run loop on every tick.
func (t *Tracker) RecordTick(firing, tripped, callForHeat, enabled bool, inletTemp float64) {
	t.mu.Lock()
	if firing && !t.snap.Firing {
		t.snap.Counts.FiringOn++
	}
	if !firing && t.snap.Firing {
		t.snap.Counts.FiringOff++
	}
	if tripped && !t.snap.Tripped {
		t.snap.Counts.Trips++
	}
	t.snap.Firing = firing
	t.snap.Tripped = tripped
	t.snap.CallForHeat = callForHeat
	t.snap.Enabled = enabled
	t.snap.InletTemp = inletTemp
	t.snap.LastTick = time.Now()
	t.mu.Unlock()
}

// RecordSensorFault counts a rejected temperature sample.
func (t *Tracker) RecordSensorFault() {
	t.mu.Lock()
	t.snap.Counts.SensorFaults++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
