package core

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/model"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// LogicTask is the command state machine. It drains the command queue every
// tick (or earlier, when the fault monitor signals), applies the status and
// mode transition tables and records illegal transitions in the event field.
type LogicTask struct {
	store  *state.Store
	queue  *state.CommandQueue
	events *state.Events
	period time.Duration
	log    *log.Entry
}

// NewLogicTask creates the command logic task.
func NewLogicTask(truckID int, store *state.Store, queue *state.CommandQueue, events *state.Events, period time.Duration) *LogicTask {
	return &LogicTask{
		store:  store,
		queue:  queue,
		events: events,
		period: period,
		log:    util.TaskLogger("logic", truckID),
	}
}

// Run loops until stop is closed. Besides the fixed period, a fault signal
// wakes the task immediately so an injected EMERGENCY is consumed without
// waiting for the next boundary.
func (t *LogicTask) Run(stop <-chan struct{}) {
	t.log.Info("task started")
	defer t.log.Info("task stopped")

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		case <-t.events.Chan(state.EventFault):
		}
		t.Drain()
	}
}

// Drain consumes every queued command and applies it.
func (t *LogicTask) Drain() {
	if n := t.queue.TakeDropped(); n > 0 {
		t.log.WithField("dropped", n).Warn("command queue saturated")
		t.store.Update(func(s *model.VehicleState) {
			s.LastEvent = fmt.Sprintf("Fila de comandos saturada (%d descartados)", n)
		})
	}
	for {
		cmd, ok := t.queue.Pop()
		if !ok {
			return
		}
		t.Apply(cmd)
	}
}

// Apply executes one command against the shared state. Logging happens
// outside the store's critical section.
func (t *LogicTask) Apply(cmd model.Command) {
	var (
		modeChanged bool
		illegal     bool
		emergency   string
		reset       bool
	)
	t.store.Update(func(s *model.VehicleState) {
		switch cmd.Kind {
		case model.CmdSetStatus:
			switch {
			case cmd.Status == model.StatusRunning && s.Status == model.StatusStopped:
				s.Status = model.StatusRunning
				s.LastEvent = "Operação iniciada"
			case cmd.Status == model.StatusStopped && s.Status == model.StatusRunning:
				s.Status = model.StatusStopped
				s.LastEvent = "Operação parada"
			case cmd.Status == s.Status:
				// idempotent repeat, nothing to do
			default:
				s.LastEvent = fmt.Sprintf("Transição inválida: %s->%s", s.Status, cmd.Status)
				illegal = true
			}

		case model.CmdStop:
			if s.Status == model.StatusRunning {
				s.Status = model.StatusStopped
				s.LastEvent = "Operação parada"
			} else if s.Status == model.StatusEmergency {
				s.LastEvent = fmt.Sprintf("Transição inválida: STOP em %s", s.Status)
				illegal = true
			}

		case model.CmdEmergency:
			if s.Status != model.StatusEmergency {
				s.Status = model.StatusEmergency
				reason := cmd.Reason
				if reason == "" {
					reason = "Comando remoto"
				}
				s.LastEvent = "Emergência acionada: " + reason
				emergency = reason
			}

		case model.CmdReset:
			if s.Status == model.StatusEmergency {
				s.Status = model.StatusStopped
				s.Faults = model.Faults{}
				s.LastEvent = "Emergência resetada"
				reset = true
			} else {
				s.LastEvent = fmt.Sprintf("Transição inválida: RESET em %s", s.Status)
				illegal = true
			}

		case model.CmdSetMode:
			if s.Mode != cmd.Mode {
				s.Mode = cmd.Mode
				s.LastEvent = fmt.Sprintf("Modo alterado para %s", cmd.Mode)
				modeChanged = true
			}

		case model.CmdSetSetpointVelocity:
			s.SetpointVelocity = cmd.Value

		case model.CmdSetSetpointAngular:
			s.SetpointAngular = cmd.Value

		case model.CmdSetRoute:
			s.Route = append([]model.Waypoint(nil), cmd.Route...)
			s.CurrentWaypoint = 0
			s.LastEvent = fmt.Sprintf("Nova rota com %d pontos", len(cmd.Route))
		}
	})

	switch {
	case illegal:
		t.log.WithFields(log.Fields{"command": cmd.Kind}).Warn("illegal transition ignored")
	case emergency != "":
		t.log.WithField("reason", emergency).Error("emergency engaged")
	case reset:
		t.log.Info("emergency reset")
	case modeChanged:
		t.log.WithField("mode", cmd.Mode).Info("mode changed")
		t.events.Signal(state.EventModeChanged)
	}
}
