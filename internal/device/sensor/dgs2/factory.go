package dgs2

import (
	"time"

	"airsense_reader/internal/config"
	"airsense_reader/internal/transport"
	"airsense_reader/internal/types"
)

// CreateDGS2Sensor erstellt einen DGS2-Sensor aus einer Konfiguration.
// Der serielle Transport wird erst bei Connect geöffnet.
func CreateDGS2Sensor(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error) {
	port := cfg.Port
	if port == "" {
		port = bus.SerialPort
	}
	baud := int(cfg.Param("baud", float64(bus.SerialBaud)))

	open := func() (types.LineTransport, error) {
		return transport.OpenSerial(transport.SerialConfig{
			Port:        port,
			Baud:        baud,
			ReadTimeout: time.Second,
		})
	}

	return NewDGS2Sensor(Config{
		ID:   cfg.ID,
		Name: cfg.Name,
		Port: port,
		Baud: baud,
	}, open)
}
