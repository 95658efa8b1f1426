// Package device implementiert eine Factory für die Erstellung von Sensoren
// und die Registry der laufenden Instanzen.
package device

import (
	"fmt"
	"sync"

	"airsense_reader/internal/config"
	"airsense_reader/internal/device/sensor/dgs2"
	"airsense_reader/internal/device/sensor/mcp3208"
	"airsense_reader/internal/device/sensor/mics6814"
	"airsense_reader/internal/device/sensor/sen66"
	"airsense_reader/internal/types"
)

// SensorCreator ist eine Funktion, die einen Sensor anhand einer
// Konfiguration erstellt
type SensorCreator func(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error)

// Factory erstellt Sensoren basierend auf ihrer Konfiguration
type Factory struct {
	creators map[string]SensorCreator
	mutex    sync.RWMutex
}

// NewFactory erstellt eine Fabrik mit allen bekannten Sensortypen
func NewFactory() *Factory {
	f := &Factory{
		creators: make(map[string]SensorCreator),
	}

	f.RegisterCreator("dgs2", dgs2.CreateDGS2Sensor)
	f.RegisterCreator("hcho", mcp3208.CreateHCHOSensor)
	f.RegisterCreator("nh3", mcp3208.CreateNH3Sensor)
	f.RegisterCreator("mics6814", mics6814.CreateMICS6814Sensor)
	f.RegisterCreator("sen66", sen66.CreateSEN66Sensor)

	return f
}

// RegisterCreator registriert einen neuen Sensor-Creator für einen bestimmten Typ
func (f *Factory) RegisterCreator(sensorType string, creator SensorCreator) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.creators[sensorType] = creator
}

// CreateSensor erstellt einen Sensor basierend auf der Konfiguration
func (f *Factory) CreateSensor(cfg config.SensorConfig, bus config.BusConfig) (types.Sensor, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	creator, exists := f.creators[cfg.Type]
	if !exists {
		return nil, &types.ConfigError{
			Param:  "type",
			Reason: fmt.Sprintf("kein Creator für Sensortyp '%s' registriert", cfg.Type),
		}
	}

	return creator(cfg, bus)
}

// CreateSensors erstellt mehrere Sensoren aus einem Array von Konfigurationen
func (f *Factory) CreateSensors(configs []config.SensorConfig, bus config.BusConfig) ([]types.Sensor, []error) {
	var sensors []types.Sensor
	var errs []error

	for _, cfg := range configs {
		s, err := f.CreateSensor(cfg, bus)
		if err != nil {
			errs = append(errs, fmt.Errorf("fehler beim Erstellen von Sensor '%s': %w", cfg.ID, err))
			continue
		}
		sensors = append(sensors, s)
	}

	return sensors, errs
}
