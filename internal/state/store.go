// Package state provides the synchronization substrate shared by the truck
// tasks: the mutex-guarded vehicle state store, the circular sample buffer,
// the event notifier and the bounded command queue.
package state

import (
	"sync"

	"MineTruck/internal/model"
)

// Store owns the single VehicleState instance. All mutations go through the
// internal mutex; critical sections must stay short (no I/O inside Update).
type Store struct {
	mu sync.Mutex
	s  model.VehicleState
}

// NewStore creates the store for the given truck id. The truck starts
// STOPPED in MANUAL_LOCAL mode.
func NewStore(truckID int) *Store {
	return &Store{s: model.VehicleState{
		TruckID: truckID,
		Status:  model.StatusStopped,
		Mode:    model.ModeManualLocal,
	}}
}

// Snapshot returns a consistent deep copy of the current state.
func (st *Store) Snapshot() model.VehicleState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Clone()
}

// Update applies fn to the state under the lock. fn must not block.
func (st *Store) Update(fn func(*model.VehicleState)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
}
