// Package sim runs offline scenarios: it steps the plant model and the
// firing controller in lock-step and collects a per-tick trace suitable for
// CSV export and plotting.
package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/heater-control/internal/control"
	"github.com/sweeney/heater-control/internal/plant"
)

// Segment is one stretch of a scenario with constant boundary inputs.
type Segment struct {
	Duration     time.Duration
	Enable       bool
	DrawKgPerSec float64
}

// Scenario is a fixed-tick sequence of segments. Segment durations are
// truncated to whole ticks.
type Scenario struct {
	Tick     time.Duration
	Segments []Segment
}

// Record is one tick of the trace.
type Record struct {
	Elapsed    time.Duration
	InletTemp  float64
	Enable     bool
	Firing     bool
	Tripped    bool
	HeatInputW float64
	PumpSpeed  float64
}

// Result is the outcome of a scenario run.
type Result struct {
	Records []Record
	// SensorFaults counts ticks the controller rejected the plant's
	// temperature sample. The run continues; the controller fails safe.
	SensorFaults int
}

// Run steps the controller against the plant over the scenario. The
// controller sees the temperature sensed BEFORE the plant step, and the
// plant sees the firing decision made on that temperature, mirroring the
// one-tick sensor/actuator delay of the live loop.
func Run(ctrl *control.Controller, pl *plant.Plant, scn Scenario) (*Result, error) {
	if scn.Tick <= 0 {
		return nil, fmt.Errorf("sim: tick must be > 0, got %v", scn.Tick)
	}
	if len(scn.Segments) == 0 {
		return nil, fmt.Errorf("sim: scenario has no segments")
	}

	res := &Result{}
	elapsed := time.Duration(0)

	for i, seg := range scn.Segments {
		if seg.Duration < scn.Tick {
			return nil, fmt.Errorf("sim: segment %d shorter than one tick", i)
		}
		steps := int(seg.Duration / scn.Tick)

		for s := 0; s < steps; s++ {
			temp := pl.Temp()

			out, err := ctrl.Tick(control.TickInput{
				Enable:    seg.Enable,
				InletTemp: temp,
				Dt:        scn.Tick,
			})
			if err != nil {
				var fault *control.SensorFault
				if !errors.As(err, &fault) {
					return nil, fmt.Errorf("sim: tick at %v: %w", elapsed, err)
				}
				res.SensorFaults++
			}

			pl.Step(plant.StepInput{
				Firing:       out.Firing,
				DrawKgPerSec: seg.DrawKgPerSec,
				Dt:           scn.Tick,
			})

			elapsed += scn.Tick
			res.Records = append(res.Records, Record{
				Elapsed:    elapsed,
				InletTemp:  temp,
				Enable:     seg.Enable,
				Firing:     out.Firing,
				Tripped:    out.HighLimitTripped,
				HeatInputW: pl.HeatInput(),
				PumpSpeed:  pl.PumpSpeed(),
			})
		}
	}

	return res, nil
}
