package transport

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// I2CConfig holds the configuration for an I2C device.
type I2CConfig struct {
	Bus  string // e.g. "/dev/i2c-1" or "1"; empty selects the first available bus
	Addr uint16 // 7-bit slave address
}

// I2CDevice is a single device on an I2C bus, backed by periph.io.
// It implements types.I2CTransport.
type I2CDevice struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenI2C opens the bus described by cfg and binds the slave address.
func OpenI2C(cfg I2CConfig) (*I2CDevice, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C bus %q", cfg.Bus)
	}

	return &I2CDevice{
		bus: bus,
		dev: &i2c.Dev{Bus: bus, Addr: cfg.Addr},
	}, nil
}

// Tx writes w and then reads len(r) bytes in one transaction.
func (d *I2CDevice) Tx(w, r []byte) error {
	return errors.Wrap(d.dev.Tx(w, r), "I2C transaction failed")
}

// Close releases the bus.
func (d *I2CDevice) Close() error {
	return d.bus.Close()
}
