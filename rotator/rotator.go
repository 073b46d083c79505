// Package rotator holds the shared target/current position state for the
// two axes of the mount and the scheduler that turns pending targets into
// motor motion.
package rotator

import (
	"sync"

	"github.com/hamlab/gorotor/axis"
	"github.com/hamlab/gorotor/util"
)

// Axis names.  The scheduler processes them in this order within a tick.
const (
	AZ = "AZ"
	EL = "EL"
)

// axisState pairs a driver with its requested and applied targets.  Each
// axis carries its own lock; the two axes never share mutable state, so no
// global lock is needed.
type axisState struct {
	mu      sync.Mutex
	target  int // last requested angle, always within limits
	applied int // target most recently handed to the driver
	limits  util.Limiter
	drv     *axis.Axis
}

// Store is the position store.  Transports write targets through it and
// read current positions from it; the scheduler is the only consumer of
// the pending-motion state.
type Store struct {
	az, el *axisState
}

// NewStore returns a store with both axes at rest at zero.
func NewStore(az, el *axis.Axis, azLimits, elLimits util.Limiter) *Store {
	return &Store{
		az: &axisState{limits: azLimits, drv: az},
		el: &axisState{limits: elLimits, drv: el},
	}
}

func (s *Store) axis(name string) *axisState {
	switch name {
	case AZ:
		return s.az
	case EL:
		return s.el
	}
	return nil
}

// SetTarget clamps deg into the axis's range and stores it as the new
// target.  Out-of-range input is silently clamped, never rejected.
func (s *Store) SetTarget(name string, deg int) {
	a := s.axis(name)
	if a == nil {
		return
	}
	a.mu.Lock()
	a.target = a.limits.ClampInt(deg)
	a.mu.Unlock()
}

// SetPosition stores both targets from one command.
func (s *Store) SetPosition(azDeg, elDeg int) {
	s.SetTarget(AZ, azDeg)
	s.SetTarget(EL, elDeg)
}

// Target returns the stored target for the axis.
func (s *Store) Target(name string) int {
	a := s.axis(name)
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// Targets returns both stored targets.
func (s *Store) Targets() (azDeg, elDeg int) {
	return s.Target(AZ), s.Target(EL)
}

// CurrentDegrees returns the driver's physical position in truncated
// integer degrees, not the pending target, so a query during motion
// reports the in-flight position.
func (s *Store) CurrentDegrees(name string) int {
	a := s.axis(name)
	if a == nil {
		return 0
	}
	return a.drv.CurrentDegrees()
}

// Position returns both physical positions.
func (s *Store) Position() (azDeg, elDeg int) {
	return s.CurrentDegrees(AZ), s.CurrentDegrees(EL)
}

// HasPending returns true when the axis's target differs from the last
// target handed to the driver.
func (s *Store) HasPending(name string) bool {
	a := s.axis(name)
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target != a.applied
}

// MarkApplied copies the current target into the applied field and returns
// it.  The scheduler calls this immediately before driving the axis, so a
// command arriving during the move is kept as a fresh pending delta rather
// than lost.
func (s *Store) MarkApplied(name string) int {
	a := s.axis(name)
	if a == nil {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = a.target
	return a.applied
}

// Driver exposes the axis driver for the scheduler.
func (s *Store) Driver(name string) *axis.Axis {
	a := s.axis(name)
	if a == nil {
		return nil
	}
	return a.drv
}
