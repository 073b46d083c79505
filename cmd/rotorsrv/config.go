package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamlab/gorotor/axis"
	"github.com/hamlab/gorotor/gpio"
	"github.com/hamlab/gorotor/util"
)

// AxisConfig holds the mechanical and electrical parameters for one axis.
// Pin fields apply to the gpio backend, Addr/Baud to the serial backend;
// unused fields may be left out of the config file.
type AxisConfig struct {
	// MinDeg and MaxDeg bound the commandable range.  Out-of-range
	// commands clamp to them.
	MinDeg int
	MaxDeg int

	// GearRatio is the mount reduction between motor and axis, e.g. 96
	// for a 96:1 worm drive.
	GearRatio float64

	// StepsPerRev is the motor's full steps per revolution, typically 200.
	StepsPerRev int

	// Microstep is the driver's microstep divisor, 1 for full steps.
	Microstep int

	// MaxSpeedDegS is the axis speed limit in degrees per second.
	MaxSpeedDegS float64

	// AccelDegS2 is the acceleration ramp in degrees per second squared.
	// Zero runs at full speed from the first step.
	AccelDegS2 float64

	// StepPin, DirPin and EnablePin are BCM pin numbers for the gpio
	// backend.  EnablePin 0 means the driver is hard-enabled.
	StepPin   int
	DirPin    int
	EnablePin int

	// Addr is the serial device or network address for the serial
	// backend, e.g. /dev/ttyUSB0 or 192.168.1.40:2001.
	Addr string

	// Baud is the serial line rate; 0 uses the backend default.
	Baud int
}

// StepsPerDegree is gear ratio x motor steps x microstep / 360.
func (c AxisConfig) StepsPerDegree() float64 {
	return c.GearRatio * float64(c.StepsPerRev) * float64(c.Microstep) / 360
}

func (c AxisConfig) limits() util.Limiter {
	return util.Limiter{Min: float64(c.MinDeg), Max: float64(c.MaxDeg)}
}

// Config holds the daemon's initialization parameters.  It is populated
// from the yaml config file over the compiled-in defaults.
type Config struct {
	// WebAddr is the listen address of the web surface.
	WebAddr string

	// CtlAddr is the listen address of the rotctl protocol server.
	CtlAddr string

	// Backend selects the motion backend: mock, gpio, or serial.
	Backend string

	// PeriodMS is the scheduler cadence in milliseconds.
	PeriodMS int

	// IdleTimeoutS closes rotctl sessions silent for this many seconds.
	IdleTimeoutS int

	// Az and El configure the two axes.
	Az AxisConfig
	El AxisConfig
}

func defaultConfig() Config {
	return Config{
		WebAddr:      ":8080",
		CtlAddr:      ":4533",
		Backend:      "mock",
		PeriodMS:     100,
		IdleTimeoutS: 300,
		Az: AxisConfig{
			MinDeg:       0,
			MaxDeg:       360,
			GearRatio:    96,
			StepsPerRev:  200,
			Microstep:    8,
			MaxSpeedDegS: 6,
			AccelDegS2:   12,
			StepPin:      17,
			DirPin:       27,
			EnablePin:    22,
		},
		El: AxisConfig{
			MinDeg:       0,
			MaxDeg:       70,
			GearRatio:    96,
			StepsPerRev:  200,
			Microstep:    8,
			MaxSpeedDegS: 4,
			AccelDegS2:   8,
			StepPin:      23,
			DirPin:       24,
			EnablePin:    25,
		},
	}
}

func (c Config) period() time.Duration {
	return time.Duration(c.PeriodMS) * time.Millisecond
}

func (c Config) idleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutS) * time.Second
}

// buildMover constructs the step-level backend for one axis.  The gpio
// driver is shared between axes and is nil for the other backends.
func buildMover(backend string, g gpio.Driver, c AxisConfig) (axis.Mover, error) {
	switch strings.ToLower(backend) {
	case "mock", "sim":
		return &axis.Sim{StepsPerSecond: c.MaxSpeedDegS * c.StepsPerDegree()}, nil
	case "gpio":
		return axis.NewStepper(g, axis.StepperConfig{
			StepPin:     c.StepPin,
			DirPin:      c.DirPin,
			EnablePin:   c.EnablePin,
			MaxStepRate: c.MaxSpeedDegS * c.StepsPerDegree(),
			Accel:       c.AccelDegS2 * c.StepsPerDegree(),
		}), nil
	case "serial":
		return axis.NewSerialController(c.Addr, c.Baud)
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}
