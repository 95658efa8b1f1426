// Package sen66 implementiert den Treiber für den SEN66 Umweltsensor
// (Feinstaub, VOC-/NOx-Index, CO2, Temperatur, Feuchte) am I2C-Bus.
package sen66

import (
	"time"

	"airsense_reader/internal/device/sensor"
	"airsense_reader/internal/types"
)

const (
	// DefaultAddr ist die I2C-Slave-Adresse des SEN66
	DefaultAddr uint16 = 0x6B
	// DefaultCalibration ist die Standard-Kalibrierzeit nach dem Reset
	DefaultCalibration = 10 * time.Second

	// Gerätekommandos
	cmdDeviceReset        uint16 = 0xD304
	cmdStartContinuous    uint16 = 0x0021
	cmdStopMeasurement    uint16 = 0x0104
	cmdReadMeasuredValues uint16 = 0x0300

	// measurementSlots ist die feste Länge des Messwertvektors.
	// Die Positionszuordnung 0..8 ist ein Gerätevertrag:
	// {PM1.0, PM2.5, PM4.0, PM10, Feuchte, Temperatur, VOC, NOx, CO2}.
	measurementSlots = 9

	// defaultCmdDelay ist die Ausführungszeit eines Kommandos
	defaultCmdDelay = 20 * time.Millisecond
)

// Skalenfaktoren der rohen Wortwerte laut Gerätevertrag
const (
	pmScale       = 10.0
	humidityScale = 100.0
	tempScale     = 200.0
	indexScale    = 10.0
)

// Config enthält die Konstruktionsparameter eines SEN66-Sensors
type Config struct {
	ID          string
	Name        string
	Calibration time.Duration
}

// OpenFunc öffnet den I2C-Transport. Sie wird erst bei Connect aufgerufen.
type OpenFunc func() (types.I2CTransport, error)

// SEN66Sensor implementiert den Feinstaub-/VOC-Sensor
type SEN66Sensor struct {
	*sensor.BaseSensor

	cfg      Config
	open     OpenFunc
	dev      types.I2CTransport
	cmdDelay time.Duration
}

// NewSEN66Sensor erstellt einen neuen SEN66-Sensor
func NewSEN66Sensor(cfg Config, open OpenFunc) (*SEN66Sensor, error) {
	if open == nil {
		return nil, &types.ConfigError{Param: "transport", Reason: "kein I2C-Transport verfügbar"}
	}
	if cfg.Calibration <= 0 {
		cfg.Calibration = DefaultCalibration
	}

	return &SEN66Sensor{
		BaseSensor: sensor.NewBaseSensor(cfg.ID, cfg.Name, types.KindParticulateI2C),
		cfg:        cfg,
		open:       open,
		cmdDelay:   defaultCmdDelay,
	}, nil
}

// Connect setzt das Gerät zurück, wartet die Kalibrierzeit ab und startet
// die kontinuierliche interne Messung. Den Messmodus behält das Gerät bis
// zum Ausschalten bei.
func (s *SEN66Sensor) Connect() bool {
	// Ein noch offener Transport aus einem fehlgeschlagenen Zyklus wird
	// freigegeben, bevor neu geöffnet wird.
	s.Cleanup()
	s.SetState(types.StateConnecting)

	dev, err := s.open()
	if err != nil {
		s.Log().Errorf("Fehler beim Initialisieren: %v", err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}
	s.dev = dev

	if err := s.writeCommand(cmdDeviceReset); err != nil {
		s.Log().Errorf("Fehler beim Zurücksetzen des Geräts: %v", err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}

	s.Log().Infof("Kalibrieren, bitte %s warten", s.cfg.Calibration)
	time.Sleep(s.cfg.Calibration)

	if err := s.writeCommand(cmdStartContinuous); err != nil {
		s.Log().Errorf("Fehler beim Starten der kontinuierlichen Messung: %v", err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}

	s.SetState(types.StateReady)
	s.Log().Info("Kalibrierung abgeschlossen, kontinuierliche Messung gestartet")
	return true
}

// decode wandelt den rohen Wortvektor anhand der festen Positionszuordnung
// und Skalenfaktoren in benannte Messgrößen um
func decode(words []uint16) *types.ParticulateValues {
	return &types.ParticulateValues{
		PM1_0:            float64(words[0]) / pmScale,
		PM2_5:            float64(words[1]) / pmScale,
		PM4_0:            float64(words[2]) / pmScale,
		PM10:             float64(words[3]) / pmScale,
		RelativeHumidity: float64(int16(words[4])) / humidityScale,
		Temperature:      float64(int16(words[5])) / tempScale,
		VOCIndex:         float64(int16(words[6])) / indexScale,
		NOxIndex:         float64(int16(words[7])) / indexScale,
		CO2:              float64(words[8]),
	}
}

// validate prüft die treiberspezifischen Wertebereiche
func (s *SEN66Sensor) validate(r *types.Reading) bool {
	if r == nil || r.Particulate == nil {
		return false
	}
	v := r.Particulate

	if v.PM1_0 < 0 || v.PM2_5 < 0 || v.PM4_0 < 0 || v.PM10 < 0 ||
		v.VOCIndex < 0 || v.NOxIndex < 0 || v.CO2 < 0 {
		return false
	}
	if v.Temperature < -40 || v.Temperature > 85 {
		return false
	}
	if v.RelativeHumidity < 0 || v.RelativeHumidity > 100 {
		return false
	}
	return true
}

// ReadMeasurement liest eine Messung vom Sensor. Schlägt die frische Messung
// fehl oder fällt sie durch die Validierung, wird der letzte gültige
// Messwert zurückgegeben.
func (s *SEN66Sensor) ReadMeasurement() *types.Reading {
	if s.State() != types.StateReady {
		if !s.Connect() {
			return s.LastValid()
		}
	}

	words, err := s.readWords(cmdReadMeasuredValues, measurementSlots)
	if err != nil {
		s.Log().Errorf("Fehler beim Lesen: %v", err)
		s.SetState(types.StateFaulted)
		return s.LastValid()
	}

	reading := types.NewReading(s.Name(), types.KindParticulateI2C)
	reading.Particulate = decode(words)

	if !s.validate(reading) {
		v := reading.Particulate
		s.Log().Warnf("Verdächtige Messung: PM2.5=%g, PM10=%g, VOC=%g, NOx=%g, CO2=%g, Temp=%g°C, RH=%g%%",
			v.PM2_5, v.PM10, v.VOCIndex, v.NOxIndex, v.CO2, v.Temperature, v.RelativeHumidity)
		return s.LastValid()
	}

	s.StoreLastValid(reading)
	return reading
}

// Cleanup stoppt die Messung nach Möglichkeit und gibt den I2C-Transport
// frei. Mehrfache Aufrufe sind erlaubt.
func (s *SEN66Sensor) Cleanup() {
	if s.dev != nil {
		if err := s.writeCommand(cmdStopMeasurement); err != nil {
			s.Log().Debugf("Stoppen der Messung fehlgeschlagen: %v", err)
		}
		if err := s.dev.Close(); err != nil {
			s.Log().Errorf("Fehler beim Schließen des I2C-Transports: %v", err)
		}
		s.dev = nil
	}
	s.SetState(types.StateDisconnected)
}
