package model

import (
	"encoding/json"
	"fmt"
)

// CommandKind discriminates the Command variant.
type CommandKind string

const (
	CmdSetMode             CommandKind = "SET_MODE"
	CmdSetStatus           CommandKind = "SET_STATUS"
	CmdEmergency           CommandKind = "EMERGENCY"
	CmdReset               CommandKind = "RESET"
	CmdSetSetpointVelocity CommandKind = "SET_SETPOINT_VELOCITY"
	CmdSetSetpointAngular  CommandKind = "SET_SETPOINT_ANGULAR"
	CmdSetRoute            CommandKind = "SET_ROUTE"
	CmdStop                CommandKind = "STOP"
)

// Command is a tagged variant consumed by the command logic task. Only the
// fields relevant to Kind are meaningful.
type Command struct {
	Kind     CommandKind
	Mode     Mode       // CmdSetMode
	Status   Status     // CmdSetStatus
	Value    float64    // CmdSetSetpointVelocity, CmdSetSetpointAngular
	Route    []Waypoint // CmdSetRoute
	Reason   string     // CmdEmergency: human-readable cause
}

// commandPayload is the JSON form received on the command topic.
type commandPayload struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// routePayload is the JSON form received on the route topic.
type routePayload struct {
	Waypoints [][2]float64 `json:"waypoints"`
}

// DecodeCommand parses a command topic payload into a Command.
// Unknown type strings are rejected so the caller can log and drop them.
func DecodeCommand(data []byte) (Command, error) {
	var p commandPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	switch CommandKind(p.Type) {
	case CmdSetMode:
		var m Mode
		if err := json.Unmarshal(p.Value, &m); err != nil {
			return Command{}, fmt.Errorf("decode SET_MODE value: %w", err)
		}
		if !ValidMode(m) {
			return Command{}, fmt.Errorf("unknown mode %q", m)
		}
		return Command{Kind: CmdSetMode, Mode: m}, nil
	case CmdSetStatus:
		var s Status
		if err := json.Unmarshal(p.Value, &s); err != nil {
			return Command{}, fmt.Errorf("decode SET_STATUS value: %w", err)
		}
		if !ValidStatus(s) {
			return Command{}, fmt.Errorf("unknown status %q", s)
		}
		return Command{Kind: CmdSetStatus, Status: s}, nil
	case CmdSetSetpointVelocity, CmdSetSetpointAngular:
		var v float64
		if err := json.Unmarshal(p.Value, &v); err != nil {
			return Command{}, fmt.Errorf("decode %s value: %w", p.Type, err)
		}
		return Command{Kind: CommandKind(p.Type), Value: v}, nil
	case CmdEmergency:
		var reason string
		if len(p.Value) > 0 {
			_ = json.Unmarshal(p.Value, &reason)
		}
		return Command{Kind: CmdEmergency, Reason: reason}, nil
	case CmdReset, CmdStop:
		return Command{Kind: CommandKind(p.Type)}, nil
	default:
		return Command{}, fmt.Errorf("unknown command type %q", p.Type)
	}
}

// DecodeRoute parses a route topic payload into an ordered waypoint list.
func DecodeRoute(data []byte) ([]Waypoint, error) {
	var p routePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	wps := make([]Waypoint, len(p.Waypoints))
	for i, xy := range p.Waypoints {
		wps[i] = Waypoint{X: xy[0], Y: xy[1]}
	}
	return wps, nil
}
