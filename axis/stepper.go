package axis

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hamlab/gorotor/gpio"
)

// StepperConfig holds the hardware configuration for a step/dir stepper
// driver such as an A4988 or TMC2208.
type StepperConfig struct {
	StepPin   int
	DirPin    int
	EnablePin int // 0 = not used.  Active LOW (LOW=enabled).

	// MaxStepRate is the speed limit in steps per second.
	MaxStepRate float64

	// Accel is the ramp in steps per second squared.  <= 0 disables the
	// ramp and the motor runs at MaxStepRate from the first step.
	Accel float64
}

// Stepper generates step pulses on GPIO pins.  The pulse cadence is paced
// with a rate.Limiter whose limit follows the acceleration ramp.
type Stepper struct {
	gpio    gpio.Driver
	cfg     StepperConfig
	limiter *rate.Limiter
	pos     atomic.Int64
}

const stepPulseWidth = 5 * time.Microsecond

// NewStepper creates a stepper backend and configures its pins.  The driver
// starts disabled; coils are powered by Enable.
func NewStepper(g gpio.Driver, cfg StepperConfig) *Stepper {
	_ = g.SetupPin(cfg.StepPin, gpio.Output)
	_ = g.SetupPin(cfg.DirPin, gpio.Output)
	if cfg.MaxStepRate <= 0 {
		cfg.MaxStepRate = 500
	}
	if cfg.EnablePin > 0 {
		_ = g.SetupPin(cfg.EnablePin, gpio.Output)
		_ = g.WritePin(cfg.EnablePin, gpio.High)
	}
	return &Stepper{
		gpio:    g,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxStepRate), 1),
	}
}

// Enable powers the motor driver (ENABLE=LOW).  The motor holds position.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable de-powers the motor driver (ENABLE=HIGH).  The motor freewheels.
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}

// CurrentSteps returns the instantaneous step count.
func (s *Stepper) CurrentSteps() int {
	return int(s.pos.Load())
}

// RunTo blocks until the step counter equals target.  Steps are paced at
// the speed the acceleration ramp allows, saturating at MaxStepRate, and
// decelerating toward the target so the final step lands near rest.
func (s *Stepper) RunTo(ctx context.Context, target int) error {
	delta := target - s.CurrentSteps()
	if delta == 0 {
		return nil
	}
	var dirLevel gpio.Level
	inc := int64(1)
	if delta > 0 {
		dirLevel = gpio.High
	} else {
		dirLevel = gpio.Low
		inc = -1
		delta = -delta
	}
	if err := s.gpio.WritePin(s.cfg.DirPin, dirLevel); err != nil {
		return err
	}
	for i := 0; i < delta; i++ {
		s.limiter.SetLimit(rate.Limit(s.allowedRate(i, delta-i)))
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.stepPulse(); err != nil {
			return err
		}
		s.pos.Add(inc)
	}
	return nil
}

// allowedRate returns the step rate for the i-th step of a move with rem
// steps remaining, from v^2 = 2*a*d on whichever side of the trapezoid is
// more constraining.
func (s *Stepper) allowedRate(i, rem int) float64 {
	if s.cfg.Accel <= 0 {
		return s.cfg.MaxStepRate
	}
	up := math.Sqrt(2 * s.cfg.Accel * float64(i+1))
	down := math.Sqrt(2 * s.cfg.Accel * float64(rem))
	v := math.Min(up, down)
	if v > s.cfg.MaxStepRate {
		v = s.cfg.MaxStepRate
	}
	if v < 1 {
		v = 1
	}
	return v
}

func (s *Stepper) stepPulse() error {
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
		return err
	}
	time.Sleep(stepPulseWidth)
	return s.gpio.WritePin(s.cfg.StepPin, gpio.Low)
}
