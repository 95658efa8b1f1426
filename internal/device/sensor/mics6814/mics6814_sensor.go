package mics6814

import (
	"time"

	"airsense_reader/internal/device/sensor"
	"airsense_reader/internal/types"
)

// DefaultWarmup ist die Standard-Aufwärm- und Kalibrierzeit
const DefaultWarmup = 30 * time.Second

// Empirische Kalibrierkoeffizienten der Verhältnisformeln, kein
// physikalisches Gesetz. Die Verhältnisrichtung ist kanalspezifisch:
// beim oxidierenden Kanal geht die Baseline in den Zähler.
const (
	oxidisingCoeff = 0.1
	reducingCoeff  = 4.0
	nh3Coeff       = 5.0
)

// LED-Schwellwerte in ppm; geprüft in fester Prioritätsreihenfolge
// NO2 > CO > NH3 > nominal
const (
	no2LEDThreshold = 0.1
	coLEDThreshold  = 5.0
	nh3LEDThreshold = 1.0
)

// Config enthält die Konstruktionsparameter eines MICS6814-Sensors
type Config struct {
	ID     string
	Name   string
	Warmup time.Duration
	// EnableLED steuert, ob die Anzeige-LED nach jeder Messung gesetzt wird
	EnableLED bool
}

// OpenFunc öffnet das Sensor-Breakout. Sie wird erst bei Connect aufgerufen.
type OpenFunc func() (Device, error)

// Baseline enthält die Referenzwiderstände der drei Kanäle in Ohm.
// Sie wird genau einmal pro Connect-Zyklus beim Aufwärmen erfasst.
type Baseline struct {
	Oxidising float64
	Reducing  float64
	NH3       float64
}

// MICS6814Sensor implementiert den Widerstandsverhältnis-Gassensor
type MICS6814Sensor struct {
	*sensor.BaseSensor

	cfg      Config
	open     OpenFunc
	dev      Device
	baseline *Baseline
}

// NewMICS6814Sensor erstellt einen neuen MICS6814-Sensor
func NewMICS6814Sensor(cfg Config, open OpenFunc) (*MICS6814Sensor, error) {
	if open == nil {
		return nil, &types.ConfigError{Param: "transport", Reason: "kein Sensor-Breakout verfügbar"}
	}
	if cfg.Warmup <= 0 {
		cfg.Warmup = DefaultWarmup
	}

	return &MICS6814Sensor{
		BaseSensor: sensor.NewBaseSensor(cfg.ID, cfg.Name, types.KindResistiveGas),
		cfg:        cfg,
		open:       open,
	}, nil
}

// Connect heizt den Sensor auf und erfasst die Kalibrier-Baseline.
// Blockiert für die konfigurierte Aufwärmzeit. Die Baseline wird pro
// Connect-Zyklus genau einmal gesetzt; spätere Reads kalibrieren nie neu.
func (s *MICS6814Sensor) Connect() bool {
	// Ein noch offenes Breakout aus einem fehlgeschlagenen Zyklus wird
	// abgeschaltet und freigegeben, bevor neu geöffnet wird; das verwirft
	// auch die alte Baseline.
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

	s.setLED(0, 255, 0)

	s.Log().Infof("Aufwärmen und Kalibrieren, bitte %s warten", s.cfg.Warmup)
	if err := dev.SetHeater(true); err != nil {
		s.Log().Errorf("Fehler beim Einschalten des Heizers: %v", err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}

	time.Sleep(s.cfg.Warmup)

	raw, err := dev.ReadAll()
	if err != nil {
		s.Log().Errorf("Fehler beim Erfassen der Baseline: %v", err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}
	s.baseline = &Baseline{
		Oxidising: raw.Oxidising,
		Reducing:  raw.Reducing,
		NH3:       raw.NH3,
	}

	s.Log().Infof("Baseline: oxidierend %.2f Ω, reduzierend %.2f Ω, NH3 %.2f Ω",
		s.baseline.Oxidising, s.baseline.Reducing, s.baseline.NH3)

	s.SetState(types.StateReady)
	return true
}

// calculatePPM berechnet die ungefähre Gaskonzentration aus dem
// Widerstandsverhältnis. Ergebnisse sind bei null gedeckelt.
func calculatePPM(current, baseline float64, coeff float64, inverted bool) float64 {
	if current <= 0 || baseline <= 0 {
		return 0.0
	}

	ratio := current / baseline
	if inverted {
		ratio = baseline / current
	}

	ppm := coeff * (ratio - 1)
	if ppm < 0 {
		return 0.0
	}
	return ppm
}

// validate verlangt drei positive Rohwerte und eine vollständige Baseline.
// Eine fehlende Baseline (noch nicht kalibriert) ist ungültig.
func (s *MICS6814Sensor) validate(raw Raw) bool {
	if raw.Oxidising <= 0 || raw.Reducing <= 0 || raw.NH3 <= 0 {
		return false
	}
	if s.baseline == nil {
		return false
	}
	if s.baseline.Oxidising <= 0 || s.baseline.Reducing <= 0 || s.baseline.NH3 <= 0 {
		return false
	}
	return true
}

// updateLED setzt die LED-Farbe anhand der Schwellwerte; der erste
// überschrittene Kanal in der Prioritätsreihenfolge gewinnt
func (s *MICS6814Sensor) updateLED(no2PPM, coPPM, nh3PPM float64) {
	switch {
	case no2PPM > no2LEDThreshold:
		s.setLED(255, 0, 0) // rot
	case coPPM > coLEDThreshold:
		s.setLED(255, 255, 0) // gelb
	case nh3PPM > nh3LEDThreshold:
		s.setLED(255, 0, 255) // violett
	default:
		s.setLED(0, 255, 0) // grün
	}
}

func (s *MICS6814Sensor) setLED(r, g, b uint8) {
	if !s.cfg.EnableLED || s.dev == nil {
		return
	}
	if err := s.dev.SetLED(r, g, b); err != nil {
		s.Log().Warnf("Fehler beim Setzen der LED: %v", err)
	}
}

// ReadMeasurement liest eine Messung vom Sensor. Nach jeder erfolgreichen
// Messung wird die Anzeige-LED als beobachtbarer Nebeneffekt aktualisiert.
func (s *MICS6814Sensor) ReadMeasurement() *types.Reading {
	if s.State() != types.StateReady {
		if !s.Connect() {
			return s.LastValid()
		}
	}

	raw, err := s.dev.ReadAll()
	if err != nil {
		terr := &types.TransportError{Op: "read all", Err: err}
		s.Log().Errorf("Fehler beim Lesen: %v", terr)
		s.SetState(types.StateFaulted)
		return s.LastValid()
	}

	if !s.validate(raw) {
		s.Log().Warn("Ungültige Messwerte erkannt")
		return s.LastValid()
	}

	no2PPM := calculatePPM(raw.Oxidising, s.baseline.Oxidising, oxidisingCoeff, true)
	coPPM := calculatePPM(raw.Reducing, s.baseline.Reducing, reducingCoeff, false)
	nh3PPM := calculatePPM(raw.NH3, s.baseline.NH3, nh3Coeff, false)

	s.updateLED(no2PPM, coPPM, nh3PPM)

	reading := types.NewReading(s.Name(), types.KindResistiveGas)
	reading.Resistive = &types.ResistiveValues{
		Raw: types.ResistiveRaw{
			Oxidising: raw.Oxidising,
			Reducing:  raw.Reducing,
			NH3:       raw.NH3,
		},
		PPM: types.ResistivePPM{
			NO2: no2PPM,
			CO:  coPPM,
			NH3: nh3PPM,
		},
	}

	s.StoreLastValid(reading)
	return reading
}

// Cleanup schaltet LED und Heizer aus und gibt das Breakout frei.
// Ein eingeschaltet vergessener Heizer wäre ein Ressourcenleck, kein rein
// logisches Problem. Mehrfache Aufrufe sind erlaubt.
func (s *MICS6814Sensor) Cleanup() {
	if s.dev != nil {
		// Die LED wird unabhängig von EnableLED ausgeschaltet; sie könnte
		// von einem früheren Zyklus mit aktivierter Anzeige noch leuchten.
		if err := s.dev.SetLED(0, 0, 0); err != nil {
			s.Log().Warnf("Fehler beim Ausschalten der LED: %v", err)
		}
		if err := s.dev.SetHeater(false); err != nil {
			s.Log().Errorf("Fehler beim Ausschalten des Heizers: %v", err)
		}
		if err := s.dev.Close(); err != nil {
			s.Log().Errorf("Fehler beim Schließen des Breakouts: %v", err)
		}
		s.dev = nil
	}
	s.baseline = nil
	s.SetState(types.StateDisconnected)
}
