package model

import (
	"fmt"
	"strings"
)

// LogEntry is one telemetry row produced by the data collector.
type LogEntry struct {
	Timestamp        float64
	TruckID          int
	Status           Status
	Mode             Mode
	PositionX        float64
	PositionY        float64
	Theta            float64
	Velocity         float64
	Temperature      float64
	ElectricalFault  bool
	HydraulicFault   bool
	EventDescription string
}

// NewLogEntry builds a log entry from a state snapshot.
func NewLogEntry(s VehicleState, ts float64) LogEntry {
	return LogEntry{
		Timestamp:        ts,
		TruckID:          s.TruckID,
		Status:           s.Status,
		Mode:             s.Mode,
		PositionX:        s.Position.X,
		PositionY:        s.Position.Y,
		Theta:            s.Position.Theta,
		Velocity:         s.Velocity,
		Temperature:      s.Temperature,
		ElectricalFault:  s.Faults.Electrical,
		HydraulicFault:   s.Faults.Hydraulic,
		EventDescription: s.LastEvent,
	}
}

// CSVHeader is the fixed header row of truck_{T}.csv.
const CSVHeader = "timestamp,truck_id,status,mode,position_x,position_y,theta," +
	"velocity,temperature,electrical_fault,hydraulic_fault,event_description"

// CSVRow renders the entry as one CSV row (no trailing newline). Metres use
// 3 decimals, radians 4. The event description is quoted when it contains a
// comma or a quote.
func (e LogEntry) CSVRow() string {
	desc := e.EventDescription
	if strings.ContainsAny(desc, ",\"") {
		desc = `"` + strings.ReplaceAll(desc, `"`, `""`) + `"`
	}
	return fmt.Sprintf("%.3f,%d,%s,%s,%.3f,%.3f,%.4f,%.3f,%.1f,%d,%d,%s",
		e.Timestamp, e.TruckID, e.Status, e.Mode,
		e.PositionX, e.PositionY, e.Theta,
		e.Velocity, e.Temperature,
		boolToInt(e.ElectricalFault), boolToInt(e.HydraulicFault), desc)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
