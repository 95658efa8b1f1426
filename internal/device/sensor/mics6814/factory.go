package mics6814

import (
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"airsense_reader/internal/config"
	"airsense_reader/internal/device/sensor/mcp3208"
	"airsense_reader/internal/transport"
	"airsense_reader/internal/types"
)

// Standard-Belegung des analogen Breakouts
const (
	defaultOxChannel  = 5
	defaultRedChannel = 6
	defaultNH3Channel = 7

	defaultHeaterPin = "GPIO24"
	defaultLEDRPin   = "GPIO17"
	defaultLEDGPin   = "GPIO27"
	defaultLEDBPin   = "GPIO22"
)

// analogBreakout bündelt das analoge Frontend mit dem SPI-Transport,
// damit Close auch den Bus freigibt
type analogBreakout struct {
	*AnalogDevice
	spi types.SPITransport
}

func (b *analogBreakout) Close() error {
	err := b.AnalogDevice.Close()
	if cerr := b.spi.Close(); err == nil {
		err = cerr
	}
	return err
}

// CreateMICS6814Sensor erstellt einen MICS6814-Sensor aus einer Konfiguration.
// ADC und GPIO-Pins werden erst bei Connect geöffnet.
func CreateMICS6814Sensor(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error) {
	port := cfg.Port
	if port == "" {
		port = bus.SPIPort
	}

	acfg := AnalogConfig{
		OxChannel:    int(cfg.Param("ox_channel", defaultOxChannel)),
		RedChannel:   int(cfg.Param("red_channel", defaultRedChannel)),
		NH3Channel:   int(cfg.Param("nh3_channel", defaultNH3Channel)),
		LoadResistor: cfg.Param("load_resistor", DefaultLoadResistor),
		Vref:         cfg.Param("vref", DefaultVref),
	}

	open := func() (Device, error) {
		spiDev, err := transport.OpenSPI(transport.SPIConfig{
			Port:  port,
			Speed: physic.Frequency(cfg.Param("spi_speed_hz", 1e6)) * physic.Hertz,
			Mode:  spi.Mode0,
		})
		if err != nil {
			return nil, err
		}

		heater, err := transport.OpenPin(cfg.Pin("heater", defaultHeaterPin))
		if err != nil {
			_ = spiDev.Close()
			return nil, err
		}
		ledR, err := transport.OpenPin(cfg.Pin("led_r", defaultLEDRPin))
		if err != nil {
			_ = spiDev.Close()
			return nil, err
		}
		ledG, err := transport.OpenPin(cfg.Pin("led_g", defaultLEDGPin))
		if err != nil {
			_ = spiDev.Close()
			return nil, err
		}
		ledB, err := transport.OpenPin(cfg.Pin("led_b", defaultLEDBPin))
		if err != nil {
			_ = spiDev.Close()
			return nil, err
		}

		adc := mcp3208.NewChannelReader(spiDev, acfg.Vref)
		return &analogBreakout{
			AnalogDevice: NewAnalogDevice(adc, heater, ledR, ledG, ledB, acfg),
			spi:          spiDev,
		}, nil
	}

	return NewMICS6814Sensor(Config{
		ID:        cfg.ID,
		Name:      cfg.Name,
		Warmup:    time.Duration(cfg.Param("warmup_seconds", 30)) * time.Second,
		EnableLED: cfg.Param("enable_led", 1) != 0,
	}, open)
}
