// Package transport wraps the platform bus libraries (serial, SPI, I2C, GPIO)
// behind the narrow interfaces the sensor drivers consume. The drivers never
// touch the underlying libraries directly.
package transport

import (
	"bufio"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// SerialConfig holds the configuration for a line-oriented serial port.
type SerialConfig struct {
	Port        string        // e.g. "/dev/ttyS0"
	Baud        int           // e.g. 9600
	ReadTimeout time.Duration // per-read timeout, e.g. 1 * time.Second
}

// SerialLine is a line-oriented serial port backed by tarm/serial.
// It implements types.LineTransport.
type SerialLine struct {
	port   *serial.Port
	reader *bufio.Reader
}

// OpenSerial opens the serial port described by cfg.
func OpenSerial(cfg SerialConfig) (*SerialLine, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", cfg.Port)
	}

	return &SerialLine{
		port:   port,
		reader: bufio.NewReader(port),
	}, nil
}

// WriteString writes s to the port.
func (s *SerialLine) WriteString(str string) error {
	_, err := s.port.Write([]byte(str))
	return errors.Wrap(err, "serial write failed")
}

// ReadLine reads a single line from the port and strips the line terminator.
func (s *SerialLine) ReadLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "serial read failed")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close releases the port.
func (s *SerialLine) Close() error {
	return s.port.Close()
}
