package sim

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader matches the columns the plotting tooling expects.
var csvHeader = []string{
	"time_s", "inlet_temp_k", "enable", "firing", "high_limit_tripped",
	"heat_input_w", "pump_speed",
}

// WriteCSV writes the trace with booleans as 0/1 so plotting tools can treat
// every column as numeric.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 3, 64),
			strconv.FormatFloat(r.InletTemp, 'f', 4, 64),
			boolAsDigit(r.Enable),
			boolAsDigit(r.Firing),
			boolAsDigit(r.Tripped),
			strconv.FormatFloat(r.HeatInputW, 'f', 1, 64),
			strconv.FormatFloat(r.PumpSpeed, 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func boolAsDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
