// Package dgs2 implementiert den Treiber für elektrochemische DGS2-Gassensoren
// (z.B. H2S oder CO) mit zeilenorientiertem ASCII-Protokoll über die serielle
// Schnittstelle.
package dgs2

import (
	"strconv"
	"strings"
	"time"

	"airsense_reader/internal/device/sensor"
	"airsense_reader/internal/types"
)

// Verzögerungen des seriellen Protokolls
const (
	// DefaultBaud ist die Standard-Baudrate des DGS2
	DefaultBaud = 9600
	// stabilizeDelay lässt der seriellen Verbindung nach dem Öffnen Zeit zum Stabilisieren
	stabilizeDelay = 2 * time.Second
	// commandDelay ist die kurze Wartezeit zwischen Kommando und Antwortzeile
	commandDelay = 100 * time.Millisecond
	// minFields ist die Mindestanzahl an Komma-Feldern einer gültigen Messzeile
	minFields = 7
)

// Config enthält die Konstruktionsparameter eines DGS2-Sensors
type Config struct {
	ID   string
	Name string
	Port string
	Baud int
}

// OpenFunc öffnet den seriellen Transport. Sie wird erst bei Connect
// aufgerufen, nicht bei der Konstruktion.
type OpenFunc func() (types.LineTransport, error)

// DGS2Sensor implementiert einen DGS2-Gassensor
type DGS2Sensor struct {
	*sensor.BaseSensor

	cfg  Config
	open OpenFunc
	port types.LineTransport

	// Testbare Verzögerungen, Standardwerte siehe Konstanten oben
	stabilize time.Duration
	cmdDelay  time.Duration
}

// NewDGS2Sensor erstellt einen neuen DGS2-Sensor.
// Ein leerer Port ist ein Konfigurationsfehler und schlägt sofort fehl.
func NewDGS2Sensor(cfg Config, open OpenFunc) (*DGS2Sensor, error) {
	if cfg.Port == "" {
		return nil, &types.ConfigError{Param: "port", Reason: "serieller Port darf nicht leer sein"}
	}
	if open == nil {
		return nil, &types.ConfigError{Param: "transport", Reason: "kein serieller Transport verfügbar"}
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}

	return &DGS2Sensor{
		BaseSensor: sensor.NewBaseSensor(cfg.ID, cfg.Name, types.KindSerialASCII),
		cfg:        cfg,
		open:       open,
		stabilize:  stabilizeDelay,
		cmdDelay:   commandDelay,
	}, nil
}

// Connect öffnet die serielle Verbindung und prüft die Kommunikation.
// Blockiert für die Stabilisierungszeit der Verbindung.
func (s *DGS2Sensor) Connect() bool {
	// Ein noch offener Transport aus einem fehlgeschlagenen Zyklus wird
	// freigegeben, bevor neu geöffnet wird.
	s.Cleanup()
	s.SetState(types.StateConnecting)

	port, err := s.open()
	if err != nil {
		s.Log().Errorf("Fehler beim Öffnen von %s: %v", s.cfg.Port, err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}
	s.port = port

	time.Sleep(s.stabilize)

	// Kommunikationstest; eine leere Antwort ist kein harter Fehler
	if resp := s.sendCommand(""); resp == "" {
		s.Log().Warn("Keine Antwort vom DGS2-Sensor während der Initialisierung")
	}

	s.SetState(types.StateReady)
	s.Log().Infof("DGS2-Sensor an Port %s initialisiert", s.cfg.Port)
	return true
}

// sendCommand sendet ein Kommando und liest eine Antwortzeile.
// Transportfehler werden lokal behandelt: der Zustand wird auf Faulted
// gesetzt und ein leerer String zurückgegeben. Aufrufer müssen einen
// leeren String als "keine Daten" interpretieren.
func (s *DGS2Sensor) sendCommand(cmd string) string {
	if s.port == nil {
		s.Log().Error("Sensor nicht initialisiert")
		return ""
	}

	if err := s.port.WriteString(cmd + "\r"); err != nil {
		terr := &types.TransportError{Op: "write", Err: err}
		s.Log().Errorf("Fehler beim Senden des Kommandos: %v", terr)
		s.SetState(types.StateFaulted)
		return ""
	}

	time.Sleep(s.cmdDelay)

	line, err := s.port.ReadLine()
	if err != nil {
		terr := &types.TransportError{Op: "read", Err: err}
		s.Log().Errorf("Fehler beim Lesen der Antwort: %v", terr)
		s.SetState(types.StateFaulted)
		return ""
	}

	return strings.TrimSpace(line)
}

// parseMeasurement zerlegt eine Messzeile des Sensors.
// Erwartet werden mindestens sieben Komma-Felder mit fester Belegung:
// Feld 1 Gas in ppb, Feld 2 Temperatur in hundertstel °C, Feld 3 relative
// Feuchte in hundertstel %, Felder 4-6 rohe ADC-Zählwerte.
func (s *DGS2Sensor) parseMeasurement(line string) (*types.Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) < minFields {
		return nil, &types.ParseError{Payload: line, Reason: "zu wenige Felder"}
	}

	ppb, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, &types.ParseError{Payload: line, Reason: "gaskonzentration nicht numerisch"}
	}
	rawTemp, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil, &types.ParseError{Payload: line, Reason: "temperatur nicht numerisch"}
	}
	rawHum, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return nil, &types.ParseError{Payload: line, Reason: "feuchte nicht numerisch"}
	}
	adcGas, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return nil, &types.ParseError{Payload: line, Reason: "adc-gaskanal nicht numerisch"}
	}
	adcTemp, err := strconv.Atoi(strings.TrimSpace(parts[5]))
	if err != nil {
		return nil, &types.ParseError{Payload: line, Reason: "adc-temperaturkanal nicht numerisch"}
	}
	adcHum, err := strconv.Atoi(strings.TrimSpace(parts[6]))
	if err != nil {
		return nil, &types.ParseError{Payload: line, Reason: "adc-feuchtekanal nicht numerisch"}
	}

	reading := types.NewReading(s.Name(), types.KindSerialASCII)
	reading.Serial = &types.SerialValues{
		GasPPB:           float64(ppb),
		GasPPM:           float64(ppb) / 1000.0,
		Temperature:      rawTemp / 100.0,
		RelativeHumidity: rawHum / 100.0,
		ADCGas:           adcGas,
		ADCTemp:          adcTemp,
		ADCHumidity:      adcHum,
	}

	return reading, nil
}

// sanitize setzt negative Messwerte auf null. Die Temperatur darf
// physikalisch negativ sein und bleibt unangetastet.
func (s *DGS2Sensor) sanitize(v *types.SerialValues) {
	clamp := func(name string, val *float64) {
		if *val < 0 {
			s.Log().Warnf("Ungültiger Messwert %s (%g), ersetzt durch 0", name, *val)
			*val = 0
		}
	}
	clamp("gas_ppb", &v.GasPPB)
	clamp("gas_ppm", &v.GasPPM)
	clamp("relative_humidity", &v.RelativeHumidity)

	clampInt := func(name string, val *int) {
		if *val < 0 {
			s.Log().Warnf("Ungültiger Messwert %s (%d), ersetzt durch 0", name, *val)
			*val = 0
		}
	}
	clampInt("adc_g", &v.ADCGas)
	clampInt("adc_t", &v.ADCTemp)
	clampInt("adc_h", &v.ADCHumidity)
}

// validate prüft die treiberspezifischen Wertebereiche
func (s *DGS2Sensor) validate(r *types.Reading) bool {
	if r == nil || r.Serial == nil {
		return false
	}
	v := r.Serial

	if v.GasPPB < 0 || v.GasPPM < 0 {
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
// fehl, wird der letzte gültige Messwert zurückgegeben (nil vor dem ersten
// erfolgreichen Lesen).
func (s *DGS2Sensor) ReadMeasurement() *types.Reading {
	if s.State() != types.StateReady {
		if !s.Connect() {
			return s.LastValid()
		}
	}

	line := s.sendCommand("")
	if line == "" {
		return s.LastValid()
	}

	reading, err := s.parseMeasurement(line)
	if err != nil {
		s.Log().Warnf("Ungültiges Messformat: %v", err)
		return s.LastValid()
	}

	s.sanitize(reading.Serial)

	if !s.validate(reading) {
		s.Log().Warnf("Messwert außerhalb des gültigen Bereichs: %+v", reading.Serial)
		return s.LastValid()
	}

	s.StoreLastValid(reading)
	return reading
}

// Cleanup gibt die serielle Verbindung frei. Mehrfache Aufrufe sind erlaubt.
func (s *DGS2Sensor) Cleanup() {
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			s.Log().Errorf("Fehler beim Schließen der seriellen Verbindung: %v", err)
		}
		s.port = nil
	}
	s.SetState(types.StateDisconnected)
}
