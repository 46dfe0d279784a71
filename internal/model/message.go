package model

// StateMessage is the JSON payload published on mine/truck/{T}/state.
type StateMessage struct {
	TruckID     int      `json:"truck_id"`
	Timestamp   float64  `json:"timestamp"`
	Position    Position `json:"position"`
	Velocity    float64  `json:"velocity"`
	Temperature float64  `json:"temperature"`
	Status      Status   `json:"status"`
	Mode        Mode     `json:"mode"`
	Faults      Faults   `json:"faults"`
}

// PositionMessage is the JSON payload published on mine/truck/{T}/position.
type PositionMessage struct {
	TruckID int     `json:"truck_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Theta   float64 `json:"theta"`
}

// NewStateMessage builds the state payload from a state snapshot.
func NewStateMessage(s VehicleState, ts float64) StateMessage {
	return StateMessage{
		TruckID:     s.TruckID,
		Timestamp:   ts,
		Position:    s.Position,
		Velocity:    s.Velocity,
		Temperature: s.Temperature,
		Status:      s.Status,
		Mode:        s.Mode,
		Faults:      s.Faults,
	}
}

// NewPositionMessage builds the position payload from a state snapshot.
func NewPositionMessage(s VehicleState) PositionMessage {
	return PositionMessage{TruckID: s.TruckID, X: s.Position.X, Y: s.Position.Y, Theta: s.Position.Theta}
}
