package axis

import (
	"context"
	"testing"

	"github.com/hamlab/gorotor/gpio"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls []gpioCall
}

type gpioCall struct {
	op    string // "setup", "write"
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) {
	return gpio.Low, nil
}

func (d *recordingDriver) Close() error { return nil }

func (d *recordingDriver) writesForPin(pin int) []gpioCall {
	var result []gpioCall
	for _, c := range d.calls {
		if c.op == "write" && c.pin == pin {
			result = append(result, c)
		}
	}
	return result
}

func testConfig() StepperConfig {
	return StepperConfig{
		StepPin:     17,
		DirPin:      27,
		EnablePin:   5,
		MaxStepRate: 100000,
	}
}

func TestStepperRunToForward(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig())
	drv.calls = nil

	if err := s.RunTo(context.Background(), 10); err != nil {
		t.Fatalf("RunTo: %v", err)
	}
	dir := drv.writesForPin(27)
	if len(dir) != 1 || dir[0].level != gpio.High {
		t.Errorf("direction pin should be written HIGH once, got %v", dir)
	}
	pulses := 0
	for _, c := range drv.writesForPin(17) {
		if c.level == gpio.High {
			pulses++
		}
	}
	if pulses != 10 {
		t.Errorf("expected 10 step pulses, got %d", pulses)
	}
	if s.CurrentSteps() != 10 {
		t.Errorf("CurrentSteps = %d, want 10", s.CurrentSteps())
	}
}

func TestStepperRunToBackward(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig())
	if err := s.RunTo(context.Background(), 10); err != nil {
		t.Fatalf("RunTo: %v", err)
	}
	drv.calls = nil

	if err := s.RunTo(context.Background(), 4); err != nil {
		t.Fatalf("RunTo: %v", err)
	}
	dir := drv.writesForPin(27)
	if len(dir) != 1 || dir[0].level != gpio.Low {
		t.Errorf("direction pin should be written LOW once, got %v", dir)
	}
	pulses := 0
	for _, c := range drv.writesForPin(17) {
		if c.level == gpio.High {
			pulses++
		}
	}
	if pulses != 6 {
		t.Errorf("expected 6 step pulses, got %d", pulses)
	}
	if s.CurrentSteps() != 4 {
		t.Errorf("CurrentSteps = %d, want 4", s.CurrentSteps())
	}
}

func TestStepperRunToNoMotion(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig())
	drv.calls = nil

	if err := s.RunTo(context.Background(), 0); err != nil {
		t.Fatalf("RunTo: %v", err)
	}
	if len(drv.calls) != 0 {
		t.Errorf("zero-delta move should produce no GPIO calls, got %d", len(drv.calls))
	}
}

func TestStepperEnableDisable(t *testing.T) {
	drv := &recordingDriver{}
	s := NewStepper(drv, testConfig())
	drv.calls = nil

	if err := s.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	w := drv.writesForPin(5)
	if len(w) != 1 || w[0].level != gpio.Low {
		t.Errorf("Enable should write LOW to enable pin, got %v", w)
	}

	drv.calls = nil
	if err := s.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	w = drv.writesForPin(5)
	if len(w) != 1 || w[0].level != gpio.High {
		t.Errorf("Disable should write HIGH to enable pin, got %v", w)
	}
}

func TestStepperAllowedRateRamps(t *testing.T) {
	s := NewStepper(&recordingDriver{}, StepperConfig{
		StepPin:     17,
		DirPin:      27,
		MaxStepRate: 1000,
		Accel:       200,
	})
	first := s.allowedRate(0, 1000)
	mid := s.allowedRate(500, 500)
	if first >= mid {
		t.Errorf("ramp should accelerate: first=%v mid=%v", first, mid)
	}
	if mid != 1000 {
		t.Errorf("long move should saturate at MaxStepRate, got %v", mid)
	}
	last := s.allowedRate(999, 1)
	if last >= mid {
		t.Errorf("ramp should decelerate near target: last=%v", last)
	}
}
