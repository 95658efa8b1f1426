// Package manager drives the configured sensors: it builds them through the
// device factory, connects them and polls each one on its own interval.
package manager

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"airsense_reader/internal/config"
	"airsense_reader/internal/device"
	"airsense_reader/internal/types"
)

// defaultReadInterval is used when a sensor config carries no interval.
const defaultReadInterval = 10 * time.Second

// SensorManager manages all sensors and their readings.
type SensorManager struct {
	appConfig *config.AppConfig
	registry  *device.Registry
	intervals map[string]time.Duration
	logger    *logrus.Entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewSensorManager creates a new SensorManager from the loaded configuration.
// Sensors with invalid configuration abort startup: a ConfigError indicates a
// deployment mistake, not a transient device condition.
func NewSensorManager(appCfg *config.AppConfig) (*SensorManager, error) {
	logger := logrus.WithField("component", "sensor_manager")

	sm := &SensorManager{
		appConfig: appCfg,
		registry:  device.NewRegistry(),
		intervals: make(map[string]time.Duration),
		logger:    logger,
		stopChan:  make(chan struct{}),
	}

	factory := device.NewFactory()
	for _, sc := range appCfg.Sensors {
		if !sc.Enabled {
			logger.Infof("Skipping disabled sensor: %s (type: %s)", sc.ID, sc.Type)
			continue
		}

		s, err := factory.CreateSensor(sc, appCfg.Bus)
		if err != nil {
			return nil, err
		}
		if err := sm.registry.AddSensor(s); err != nil {
			return nil, err
		}

		interval := defaultReadInterval
		if sc.ReadIntervalSeconds > 0 {
			interval = time.Duration(sc.ReadIntervalSeconds) * time.Second
		}
		sm.intervals[s.ID()] = interval

		logger.Infof("Loaded sensor: %s (type: %s, interval: %s)", sc.ID, sc.Type, interval)
	}

	logger.Infof("Total sensors loaded: %d", len(sm.registry.GetSensors()))
	return sm, nil
}

// Start launches one polling goroutine per sensor. The sensors own disjoint
// transport resources, so they need no cross-driver locking.
func (sm *SensorManager) Start() {
	sm.logger.Info("Starting SensorManager...")

	for _, s := range sm.registry.GetSensors() {
		sm.wg.Add(1)
		go sm.poll(s)
	}
}

// Stop terminates the polling loops and cleans up every sensor.
func (sm *SensorManager) Stop() {
	sm.logger.Info("Stopping SensorManager...")
	close(sm.stopChan)
	sm.wg.Wait()
	sm.registry.Close()
	sm.logger.Info("SensorManager stopped.")
}

// Registry exposes the managed sensors to the caller (read-only use).
func (sm *SensorManager) Registry() *device.Registry {
	return sm.registry
}

func (sm *SensorManager) poll(s types.Sensor) {
	defer sm.wg.Done()

	// The first connect may block for the sensor's warm-up time; a failure
	// here is not fatal, ReadMeasurement retries the connect on each cycle.
	if !s.Connect() {
		sm.logger.Warnf("Initial connect of sensor %s failed, will retry on read", s.ID())
	}

	interval := sm.intervals[s.ID()]
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stopChan:
			return
		case <-ticker.C:
			reading := s.ReadMeasurement()
			if reading == nil {
				sm.logger.Warnf("No data yet from sensor %s (state: %s)", s.ID(), s.State())
				continue
			}
			sm.logReading(s, reading)
		}
	}
}

func (sm *SensorManager) logReading(s types.Sensor, r *types.Reading) {
	entry := sm.logger.WithFields(logrus.Fields{
		"sensor": s.ID(),
		"kind":   r.Kind,
		"ts":     r.Timestamp.Format(time.RFC3339),
	})

	switch {
	case r.Serial != nil:
		entry.Infof("gas=%.3fppm temp=%.2f°C rh=%.2f%%",
			r.Serial.GasPPM, r.Serial.Temperature, r.Serial.RelativeHumidity)
	case r.Analog != nil:
		entry.Infof("concentration=%.3fppm voltage=%.4fV raw=%d",
			r.Analog.ConcentrationPPM, r.Analog.Voltage, r.Analog.RawADC)
	case r.Resistive != nil:
		entry.Infof("no2=%.4fppm co=%.4fppm nh3=%.4fppm",
			r.Resistive.PPM.NO2, r.Resistive.PPM.CO, r.Resistive.PPM.NH3)
	case r.Particulate != nil:
		entry.Infof("pm2.5=%.1f pm10=%.1f voc=%.1f nox=%.1f co2=%.0fppm temp=%.2f°C rh=%.2f%%",
			r.Particulate.PM2_5, r.Particulate.PM10, r.Particulate.VOCIndex,
			r.Particulate.NOxIndex, r.Particulate.CO2,
			r.Particulate.Temperature, r.Particulate.RelativeHumidity)
	}
}
