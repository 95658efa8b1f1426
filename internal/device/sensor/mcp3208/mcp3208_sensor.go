// Package mcp3208 implementiert den Treiber für analoge Gassensoren mit
// Transimpedanzverstärker, die über einen MCP3208 12-Bit-ADC am SPI-Bus
// gelesen werden. Die Spezies-Spezialisierungen (HCHO, NH3) unterscheiden
// sich nur in Kanal, Empfindlichkeit und Validierungsobergrenze.
package mcp3208

import (
	"airsense_reader/internal/device/sensor"
	"airsense_reader/internal/types"
)

const (
	// ADCMax ist der größte Zählwert des 12-Bit-Wandlers
	ADCMax = 4095
	// DefaultVref ist die gemessene Referenzspannung des Wandlers in Volt
	DefaultVref = 3.282
	// DefaultRFeedback ist der TIA-Rückkopplungswiderstand in Ohm
	DefaultRFeedback = 22000.0
	// DefaultCeilingPPM ist die empirisch abgestimmte Validierungsobergrenze.
	// Sie liegt bewusst weit über den nominellen Sensorbereichen, weil
	// Felddaten deutlich höhere Werte zeigten; pro Deployment konfigurierbar.
	DefaultCeilingPPM = 100.0

	minChannel = 0
	maxChannel = 7
)

// Config enthält die Konstruktionsparameter eines MCP3208-Sensors
type Config struct {
	ID          string
	Name        string
	Channel     int
	Vref        float64
	RFeedback   float64
	Sensitivity float64 // nA/ppm, speziesabhängig
	CeilingPPM  float64

	// Chemische Identität der Spezies für die Messwert-Metadaten
	Formula    string
	CommonName string
}

// OpenFunc öffnet den SPI-Transport. Sie wird erst bei Connect aufgerufen.
type OpenFunc func() (types.SPITransport, error)

// MCP3208Sensor implementiert einen analogen Gassensor am MCP3208
type MCP3208Sensor struct {
	*sensor.BaseSensor

	cfg    Config
	open   OpenFunc
	spi    types.SPITransport
	reader *ChannelReader
}

// NewMCP3208Sensor erstellt einen neuen MCP3208-Sensor.
// Kanal außerhalb 0-7 und nicht-positive Empfindlichkeit sind
// Konfigurationsfehler und schlagen sofort fehl.
func NewMCP3208Sensor(cfg Config, open OpenFunc) (*MCP3208Sensor, error) {
	if cfg.Channel < minChannel || cfg.Channel > maxChannel {
		return nil, &types.ConfigError{Param: "channel", Reason: "muss zwischen 0 und 7 liegen"}
	}
	if cfg.Sensitivity <= 0 {
		return nil, &types.ConfigError{Param: "sensitivity", Reason: "muss positiv sein"}
	}
	if open == nil {
		return nil, &types.ConfigError{Param: "transport", Reason: "kein SPI-Transport verfügbar"}
	}
	if cfg.Vref <= 0 {
		cfg.Vref = DefaultVref
	}
	if cfg.RFeedback <= 0 {
		cfg.RFeedback = DefaultRFeedback
	}
	if cfg.CeilingPPM <= 0 {
		cfg.CeilingPPM = DefaultCeilingPPM
	}

	return &MCP3208Sensor{
		BaseSensor: sensor.NewBaseSensor(cfg.ID, cfg.Name, types.KindAnalogADC),
		cfg:        cfg,
		open:       open,
	}, nil
}

// Connect öffnet den SPI-Transport
func (s *MCP3208Sensor) Connect() bool {
	// Ein noch offener Transport aus einem fehlgeschlagenen Zyklus wird
	// freigegeben, bevor neu geöffnet wird.
	s.Cleanup()
	s.SetState(types.StateConnecting)

	spi, err := s.open()
	if err != nil {
		s.Log().Errorf("Fehler beim Initialisieren des MCP3208: %v", err)
		s.Cleanup()
		s.SetState(types.StateFaulted)
		return false
	}
	s.spi = spi
	s.reader = NewChannelReader(spi, s.cfg.Vref)

	s.SetState(types.StateReady)
	s.Log().Infof("MCP3208-Sensor auf Kanal %d initialisiert", s.cfg.Channel)
	return true
}

// readChannel liest den rohen Zählwert des konfigurierten Kanals.
// Bei Transportfehlern wird 0 zurückgegeben, kein Fehler: Aufrufer müssen
// den Wert 0 als "Treiber nicht bereit" tolerieren.
func (s *MCP3208Sensor) readChannel() int {
	if s.reader == nil {
		return 0
	}

	raw, err := s.reader.ReadRaw(s.cfg.Channel)
	if err != nil {
		terr := &types.TransportError{Op: "spi transfer", Err: err}
		s.Log().Errorf("Fehler beim Lesen des ADC-Kanals: %v", terr)
		s.SetState(types.StateFaulted)
		return 0
	}
	return raw
}

// calculateIOut berechnet den Ausgangsstrom des TIA in nA
func (s *MCP3208Sensor) calculateIOut(vout float64) float64 {
	return ((s.cfg.Vref - vout) / s.cfg.RFeedback) * 1e9
}

// calculateConcentration berechnet die Gaskonzentration in ppm.
// Eine nicht-positive Empfindlichkeit wird abgefangen statt zu dividieren.
func (s *MCP3208Sensor) calculateConcentration(iout float64) float64 {
	if s.cfg.Sensitivity <= 0 {
		s.Log().Errorf("Ungültige Empfindlichkeit: %g", s.cfg.Sensitivity)
		return 0.0
	}
	return iout / s.cfg.Sensitivity
}

// validate prüft Konzentration gegen null und die konfigurierte Obergrenze
func (s *MCP3208Sensor) validate(r *types.Reading) bool {
	if r == nil || r.Analog == nil {
		return false
	}
	if r.Analog.ConcentrationPPM < 0 {
		return false
	}
	if r.Analog.ConcentrationPPM > s.cfg.CeilingPPM {
		return false
	}
	return true
}

// ReadMeasurement liest eine Messung vom Sensor. Schlägt die frische Messung
// fehl oder fällt sie durch die Validierung, wird der letzte gültige
// Messwert zurückgegeben.
func (s *MCP3208Sensor) ReadMeasurement() *types.Reading {
	if s.State() != types.StateReady {
		if !s.Connect() {
			return s.LastValid()
		}
	}

	raw := s.readChannel()
	voltage := ADCToVoltage(raw, s.cfg.Vref)
	iout := s.calculateIOut(voltage)
	concentration := s.calculateConcentration(iout)

	// Offset-Rauschen des Verstärkers kann kleine negative Werte liefern;
	// die sind physikalisch bedeutungslos
	if concentration < 0 {
		s.Log().Warnf("Ungültige Konzentration %g, ersetzt durch 0", concentration)
		concentration = 0
	}

	reading := types.NewReading(s.Name(), types.KindAnalogADC)
	reading.Analog = &types.AnalogValues{
		RawADC:           raw,
		Voltage:          voltage,
		CurrentNA:        iout,
		ConcentrationPPM: concentration,
		ConcentrationPPB: concentration * 1000,
	}
	if s.cfg.Formula != "" {
		reading.Metadata["chemical_formula"] = s.cfg.Formula
		reading.Metadata["common_name"] = s.cfg.CommonName
		reading.Metadata["unit"] = "ppm"
	}

	if !s.validate(reading) {
		rerr := &types.RangeError{Field: "concentration", Value: reading.Analog.ConcentrationPPM}
		s.Log().Warnf("Messwert verworfen: %v", rerr)
		return s.LastValid()
	}

	s.StoreLastValid(reading)
	return reading
}

// Cleanup gibt den SPI-Transport frei. Mehrfache Aufrufe sind erlaubt.
func (s *MCP3208Sensor) Cleanup() {
	if s.spi != nil {
		if err := s.spi.Close(); err != nil {
			s.Log().Errorf("Fehler beim Schließen des SPI-Transports: %v", err)
		}
		s.spi = nil
		s.reader = nil
	}
	s.SetState(types.StateDisconnected)
}
