package mcp3208

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"airsense_reader/internal/config"
	"airsense_reader/internal/transport"
	"airsense_reader/internal/types"
)

// spiOpener baut die OpenFunc für den konfigurierten SPI-Port
func spiOpener(cfg config.SensorConfig, bus config.BusConfig) OpenFunc {
	port := cfg.Port
	if port == "" {
		port = bus.SPIPort
	}
	speed := physic.Frequency(cfg.Param("spi_speed_hz", 1e6)) * physic.Hertz

	return func() (types.SPITransport, error) {
		return transport.OpenSPI(transport.SPIConfig{
			Port:  port,
			Speed: speed,
			Mode:  spi.Mode0,
		})
	}
}

// configFromSensor übernimmt die gemeinsamen Tunables aus der Konfiguration
func configFromSensor(cfg config.SensorConfig, defaultChannel int) Config {
	return Config{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Channel:     int(cfg.Param("channel", float64(defaultChannel))),
		Vref:        cfg.Param("vref", DefaultVref),
		RFeedback:   cfg.Param("r_feedback", DefaultRFeedback),
		Sensitivity: cfg.Param("sensitivity", 0),
		CeilingPPM:  cfg.Param("ceiling_ppm", DefaultCeilingPPM),
	}
}

// CreateHCHOSensor erstellt einen Formaldehyd-Sensor aus einer Konfiguration
func CreateHCHOSensor(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error) {
	return NewHCHOSensor(configFromSensor(cfg, HCHOChannel), spiOpener(cfg, bus))
}

// CreateNH3Sensor erstellt einen Ammoniak-Sensor aus einer Konfiguration
func CreateNH3Sensor(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error) {
	return NewNH3Sensor(configFromSensor(cfg, NH3Channel), spiOpener(cfg, bus))
}
