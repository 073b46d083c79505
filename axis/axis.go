// Package axis drives a single mechanical axis of the mount from a current
// step count toward a target step count.  The step-level backends (GPIO
// stepper, serial controller, sim) implement Mover; Axis layers the
// degree/step conversion on top.
package axis

import (
	"context"
	"errors"
)

// ErrNotConnected is generated when an operation is attempted on a serial
// backend whose port is not open.
var ErrNotConnected = errors.New("conn is nil, not connected to controller")

// Mover describes a step-level motion backend for one axis.
type Mover interface {
	// Enable powers the motor coils.  Idempotent.
	Enable() error

	// Disable de-powers the motor coils.  Only call when stationary.
	Disable() error

	// RunTo blocks until the physical position equals target, honoring the
	// backend's speed and acceleration limits.
	RunTo(ctx context.Context, target int) error

	// CurrentSteps returns the instantaneous step count.  Safe to call
	// while a different axis moves; not reentrant with this axis's own
	// in-progress RunTo.
	CurrentSteps() int
}

// Axis converts between mount degrees and motor steps for one degree of
// freedom.  StepsPerDegree is gear ratio x motor steps per revolution / 360.
type Axis struct {
	Name           string
	StepsPerDegree float64

	drv Mover
}

// New returns an Axis wrapping the given step-level backend.
func New(name string, stepsPerDegree float64, drv Mover) *Axis {
	return &Axis{Name: name, StepsPerDegree: stepsPerDegree, drv: drv}
}

// Enable powers the axis's coils.
func (a *Axis) Enable() error {
	return a.drv.Enable()
}

// Disable de-powers the axis's coils to avoid holding current when idle.
func (a *Axis) Disable() error {
	return a.drv.Disable()
}

// RunTo blocks until the axis reaches deg.
func (a *Axis) RunTo(ctx context.Context, deg int) error {
	target := int(float64(deg) * a.StepsPerDegree)
	return a.drv.RunTo(ctx, target)
}

// CurrentDegrees returns the physical position in truncated integer degrees.
// During a move on another goroutine this reports the in-flight position.
func (a *Axis) CurrentDegrees() int {
	if a.StepsPerDegree == 0 {
		return 0
	}
	return int(float64(a.drv.CurrentSteps()) / a.StepsPerDegree)
}
