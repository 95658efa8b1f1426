package transport

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// SPIConfig holds the configuration for an SPI device.
type SPIConfig struct {
	Port  string // e.g. "SPI0.0"; empty selects the first available port
	Speed physic.Frequency
	Mode  spi.Mode
}

// SPIDevice is an SPI device backed by periph.io.
// It implements types.SPITransport.
type SPIDevice struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenSPI opens and configures the SPI port described by cfg.
func OpenSPI(cfg SPIConfig) (*SPIDevice, error) {
	if err := initHost(); err != nil {
		return nil, err
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SPI port %q", cfg.Port)
	}

	speed := cfg.Speed
	if speed == 0 {
		speed = physic.MegaHertz
	}

	conn, err := port.Connect(speed, cfg.Mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrapf(err, "failed to configure SPI port %q", cfg.Port)
	}

	return &SPIDevice{port: port, conn: conn}, nil
}

// Transfer performs a full-duplex transaction and returns len(w) read bytes.
func (d *SPIDevice) Transfer(w []byte) ([]byte, error) {
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return nil, errors.Wrap(err, "SPI transfer failed")
	}
	return r, nil
}

// Close releases the SPI port.
func (d *SPIDevice) Close() error {
	return d.port.Close()
}
