// Package types enthält zentrale Typen und Interfaces, die von verschiedenen Paketen verwendet werden.
package types

import "time"

// DriverKind kategorisiert die Treiberfamilie eines Sensors
type DriverKind string

const (
	// KindSerialASCII kennzeichnet Sensoren mit zeilenorientiertem ASCII-Protokoll (z.B. DGS2)
	KindSerialASCII DriverKind = "SERIAL_ASCII"
	// KindAnalogADC kennzeichnet analoge Sensoren hinter einem SPI-ADC (z.B. MCP3208)
	KindAnalogADC DriverKind = "ANALOG_ADC"
	// KindResistiveGas kennzeichnet Widerstandsverhältnis-Gassensoren (z.B. MICS6814)
	KindResistiveGas DriverKind = "RESISTIVE_GAS"
	// KindParticulateI2C kennzeichnet Feinstaub-/VOC-Sensoren am I2C-Bus (z.B. SEN66)
	KindParticulateI2C DriverKind = "PARTICULATE_I2C"
)

// ConnectionState beschreibt den Verbindungszustand eines Treibers
type ConnectionState string

const (
	// StateDisconnected ist der Ausgangszustand vor dem ersten Connect
	StateDisconnected ConnectionState = "DISCONNECTED"
	// StateConnecting wird während eines laufenden Verbindungsaufbaus gesetzt
	StateConnecting ConnectionState = "CONNECTING"
	// StateReady bedeutet, dass Messwerte gelesen werden können
	StateReady ConnectionState = "READY"
	// StateFaulted wird nach einem Transport- oder Lesefehler gesetzt;
	// der nächste Read versucht genau einen erneuten Connect
	StateFaulted ConnectionState = "FAULTED"
)

// Identity beschreibt einen Sensor eindeutig. Nach der Konstruktion unveränderlich.
type Identity struct {
	ID   string
	Name string
	Kind DriverKind
}

// SerialValues enthält die Messwerte eines ASCII-seriellen Gassensors
type SerialValues struct {
	// GasPPB ist die Gaskonzentration in ppb, GasPPM = GasPPB/1000
	GasPPB float64
	GasPPM float64
	// Temperature in °C, RelativeHumidity in %
	Temperature      float64
	RelativeHumidity float64
	// Rohe ADC-Zählwerte der Gas-, Temperatur- und Feuchtekanäle
	ADCGas      int
	ADCTemp     int
	ADCHumidity int
}

// AnalogValues enthält die Messwerte eines TIA-verstärkten Sensors am ADC
type AnalogValues struct {
	RawADC           int
	Voltage          float64
	CurrentNA        float64
	ConcentrationPPM float64
	ConcentrationPPB float64
}

// ResistiveRaw sind die rohen Kanalwiderstände des MICS6814 in Ohm
type ResistiveRaw struct {
	Oxidising float64
	Reducing  float64
	NH3       float64
}

// ResistivePPM sind die aus den Widerstandsverhältnissen abgeleiteten Konzentrationen
type ResistivePPM struct {
	NO2 float64
	CO  float64
	NH3 float64
}

// ResistiveValues enthält Roh- und abgeleitete Werte des Widerstandssensors
type ResistiveValues struct {
	Raw ResistiveRaw
	PPM ResistivePPM
}

// ParticulateValues enthält die neun Messgrößen des Feinstaub-/VOC-Sensors.
// Die Positionszuordnung 0..8 auf dem Gerät ist
// {PM1.0, PM2.5, PM4.0, PM10, Feuchte, Temperatur, VOC, NOx, CO2}.
type ParticulateValues struct {
	PM1_0            float64
	PM2_5            float64
	PM4_0            float64
	PM10             float64
	RelativeHumidity float64
	Temperature      float64
	VOCIndex         float64
	NOxIndex         float64
	CO2              float64
}

// Reading repräsentiert eine unveränderliche Momentaufnahme einer Messung.
// Genau ein Varianten-Feld passend zu Kind ist gesetzt (tagged union).
type Reading struct {
	Sensor    string
	Kind      DriverKind
	Timestamp time.Time

	Serial      *SerialValues
	Analog      *AnalogValues
	Resistive   *ResistiveValues
	Particulate *ParticulateValues

	// Metadata enthält zusätzliche messwertbezogene Informationen
	// (z.B. chemische Identität bei Spezies-Spezialisierungen)
	Metadata map[string]string
}

// NewReading erstellt ein neues Reading mit aktuellem Zeitstempel
func NewReading(sensor string, kind DriverKind) *Reading {
	return &Reading{
		Sensor:    sensor,
		Kind:      kind,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// Sensor ist die gemeinsame Schnittstelle aller Treibervarianten.
//
// Connect öffnet den Transport, führt gerätespezifisches Aufwärmen bzw.
// Kalibrieren durch und blockiert dabei für eine feste, begrenzte Dauer.
// ReadMeasurement liefert niemals einen Fehler an den Aufrufer: schlägt die
// frische Messung fehl, wird der letzte gültige Messwert zurückgegeben
// (nil, solange noch nie erfolgreich gelesen wurde). Cleanup gibt die
// Transportressourcen frei und ist idempotent.
type Sensor interface {
	ID() string
	Name() string
	Kind() DriverKind
	State() ConnectionState

	Connect() bool
	ReadMeasurement() *Reading
	Cleanup()
}

// LineTransport ist die schmale Schnittstelle zu zeilenorientierten seriellen Geräten
type LineTransport interface {
	WriteString(s string) error
	ReadLine() (string, error)
	Close() error
}

// SPITransport ist die schmale Schnittstelle zu SPI-Geräten.
// Transfer schreibt w und liefert gleich viele gelesene Bytes zurück.
type SPITransport interface {
	Transfer(w []byte) ([]byte, error)
	Close() error
}

// I2CTransport ist die schmale Schnittstelle zu I2C-Geräten
type I2CTransport interface {
	Tx(w, r []byte) error
	Close() error
}

// DigitalPin ist ein einzelner digitaler Ausgang (Heizer, LED)
type DigitalPin interface {
	Set(high bool) error
}
