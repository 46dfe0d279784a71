package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineTruck/internal/model"
	"MineTruck/internal/sim"
	"MineTruck/internal/state"
)

func newFaultFixture(p float64) (*FaultTask, *state.Store, *state.CommandQueue, *state.Events, *sim.Dynamics) {
	cfg := model.DefaultConfig()
	cfg.Noise.Disable = true
	store := state.NewStore(1)
	queue := state.NewCommandQueue(8)
	events := state.NewEvents()
	dyn := sim.NewDynamics(cfg.Vehicle, cfg.Noise, 1)
	fc := model.FaultConfig{TempWarn: 95, TempCrit: 120, Probability: p, Seed: 42}
	task := NewFaultTask(1, store, queue, events, dyn, fc, 500*time.Millisecond)
	return task, store, queue, events, dyn
}

func TestFaultThermalCritical(t *testing.T) {
	task, store, queue, events, _ := newFaultFixture(0)
	store.Update(func(s *model.VehicleState) { s.Temperature = 121 })

	task.Tick()
	cmd, ok := queue.Pop()
	require.True(t, ok)
	assert.Equal(t, model.CmdEmergency, cmd.Kind)
	assert.Contains(t, cmd.Reason, "Temperatura crítica")
	assert.True(t, events.Poll(state.EventFault))

	// not re-injected while still critical
	task.Tick()
	_, ok = queue.Pop()
	assert.False(t, ok)
}

func TestFaultThermalWarningOnly(t *testing.T) {
	task, store, queue, _, _ := newFaultFixture(0)
	store.Update(func(s *model.VehicleState) { s.Temperature = 100 })

	task.Tick()
	_, ok := queue.Pop()
	assert.False(t, ok)
	assert.Contains(t, store.Snapshot().LastEvent, "Temperatura elevada")

	// warning latches until the temperature recovers
	store.Update(func(s *model.VehicleState) { s.LastEvent = "" })
	task.Tick()
	assert.Equal(t, "", store.Snapshot().LastEvent)

	store.Update(func(s *model.VehicleState) { s.Temperature = 40 })
	task.Tick()
	store.Update(func(s *model.VehicleState) { s.Temperature = 100 })
	task.Tick()
	assert.Contains(t, store.Snapshot().LastEvent, "Temperatura elevada")
}

func TestFaultInjectedLineTrips(t *testing.T) {
	task, store, queue, events, dyn := newFaultFixture(0)
	dyn.InjectElectrical(true)

	task.Tick()
	s := store.Snapshot()
	assert.True(t, s.Faults.Electrical)
	cmd, ok := queue.Pop()
	require.True(t, ok)
	assert.Equal(t, model.CmdEmergency, cmd.Kind)
	assert.Equal(t, "Falha elétrica", cmd.Reason)
	assert.True(t, events.Poll(state.EventFault))

	// sticky: no repeated injection while the flag is set
	task.Tick()
	_, ok = queue.Pop()
	assert.False(t, ok)
}

func TestFaultHydraulicLine(t *testing.T) {
	task, store, queue, _, dyn := newFaultFixture(0)
	dyn.InjectHydraulic(true)
	task.Tick()
	assert.True(t, store.Snapshot().Faults.Hydraulic)
	cmd, ok := queue.Pop()
	require.True(t, ok)
	assert.Equal(t, "Falha hidráulica", cmd.Reason)
}

func TestFaultStochasticCertain(t *testing.T) {
	task, store, queue, _, _ := newFaultFixture(1.0)
	task.Tick()
	s := store.Snapshot()
	assert.True(t, s.Faults.Electrical)
	assert.True(t, s.Faults.Hydraulic)
	assert.Equal(t, 2, queue.Len())
}

func TestFaultStochasticNeverAtZero(t *testing.T) {
	task, store, queue, _, _ := newFaultFixture(0)
	for i := 0; i < 100; i++ {
		task.Tick()
	}
	s := store.Snapshot()
	assert.False(t, s.Faults.Electrical)
	assert.False(t, s.Faults.Hydraulic)
	assert.Equal(t, 0, queue.Len())
}

func TestFaultRetripsAfterResetIfLineStillFaulted(t *testing.T) {
	task, store, queue, _, dyn := newFaultFixture(0)
	dyn.InjectElectrical(true)
	task.Tick()
	queue.Pop()

	// RESET clears the sticky flag, but the line is still faulted
	store.Update(func(s *model.VehicleState) { s.Faults = model.Faults{} })
	task.Tick()
	assert.True(t, store.Snapshot().Faults.Electrical)
	cmd, ok := queue.Pop()
	require.True(t, ok)
	assert.Equal(t, model.CmdEmergency, cmd.Kind)
}
