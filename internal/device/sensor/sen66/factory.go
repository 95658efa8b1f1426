package sen66

import (
	"time"

	"airsense_reader/internal/config"
	"airsense_reader/internal/transport"
	"airsense_reader/internal/types"
)

// CreateSEN66Sensor erstellt einen SEN66-Sensor aus einer Konfiguration.
// Der I2C-Transport wird erst bei Connect geöffnet.
func CreateSEN66Sensor(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error) {
	busName := cfg.Port
	if busName == "" {
		busName = bus.I2CBus
	}
	addr := uint16(cfg.Param("address", float64(DefaultAddr)))

	open := func() (types.I2CTransport, error) {
		return transport.OpenI2C(transport.I2CConfig{
			Bus:  busName,
			Addr: addr,
		})
	}

	return NewSEN66Sensor(Config{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Calibration: time.Duration(cfg.Param("calibration_seconds", 10)) * time.Second,
	}, open)
}
