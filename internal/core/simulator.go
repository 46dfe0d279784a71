package core

import (
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/sim"
	"MineTruck/internal/util"
)

// SimulatorTask integrates the vehicle dynamics at the simulation period,
// producing the sensor samples the rest of the system consumes.
type SimulatorTask struct {
	dyn    *sim.Dynamics
	period time.Duration
	log    *log.Entry
}

// NewSimulatorTask creates the mine simulator task.
func NewSimulatorTask(truckID int, dyn *sim.Dynamics, period time.Duration) *SimulatorTask {
	return &SimulatorTask{dyn: dyn, period: period, log: util.TaskLogger("simulator", truckID)}
}

// Run loops until stop is closed.
func (t *SimulatorTask) Run(stop <-chan struct{}) {
	runPeriodic(t.log, t.period, stop, func(dt float64) {
		t.dyn.Step(dt)
	})
}
