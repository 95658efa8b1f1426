package transport

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// OutputPin is a single digital output backed by periph.io.
// It implements types.DigitalPin.
type OutputPin struct {
	pin gpio.PinIO
}

// OpenPin resolves a GPIO pin by name (e.g. "GPIO24") and configures it as output.
func OpenPin(name string) (*OutputPin, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Errorf("GPIO pin %q not found", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "failed to configure GPIO pin %q as output", name)
	}

	return &OutputPin{pin: pin}, nil
}

// Set drives the pin high or low.
func (p *OutputPin) Set(high bool) error {
	return errors.Wrapf(p.pin.Out(gpio.Level(high)), "failed to drive GPIO pin %s", p.pin.Name())
}
