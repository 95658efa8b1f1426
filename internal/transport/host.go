package transport

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph.io host drivers exactly once. All periph-backed
// transports (SPI, I2C, GPIO) go through this before opening a port.
func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = errors.Wrap(err, "failed to initialize periph host drivers")
		}
	})
	return hostErr
}
