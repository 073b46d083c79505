// Package gpio provides an abstract pin driver so the step generation logic
// can run against real Raspberry Pi hardware or a mock on a dev machine.
package gpio

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Driver defines the abstract interface for controlling GPIOs.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// MockDriver discards all pin operations.  Used for development off-target
// and for the daemon's mock backend.
type MockDriver struct{}

// NewDriver creates a GPIO driver.  If mock is true the returned driver is
// a no-op; otherwise it memory-maps the Pi's GPIO registers.
func NewDriver(mock bool) (Driver, error) {
	if mock {
		return &MockDriver{}, nil
	}
	return NewRPiDriver()
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error { return nil }

func (m *MockDriver) WritePin(pin int, level Level) error { return nil }

func (m *MockDriver) ReadPin(pin int) (Level, error) { return Low, nil }

func (m *MockDriver) Close() error { return nil }
