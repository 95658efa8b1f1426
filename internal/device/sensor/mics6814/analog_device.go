package mics6814

import (
	"github.com/pkg/errors"

	"airsense_reader/internal/types"
)

// Analoge Frontend-Parameter des Breakouts: jeder Kanal hängt als
// Spannungsteiler mit einem 56-kΩ-Lastwiderstand am ADC.
const (
	// DefaultLoadResistor ist der Lastwiderstand der Kanalteiler in Ohm
	DefaultLoadResistor = 56000.0
	// DefaultVref ist die Versorgungsspannung der Teiler in Volt
	DefaultVref = 3.3
)

// AnalogReader liefert die Spannung eines ADC-Kanals in Volt
type AnalogReader interface {
	ReadVoltage(channel int) (float64, error)
}

// AnalogConfig beschreibt die Kanal- und Pinbelegung des analogen Breakouts
type AnalogConfig struct {
	OxChannel  int
	RedChannel int
	NH3Channel int

	LoadResistor float64
	Vref         float64
}

// AnalogDevice implementiert Device über ein ADC-Frontend und GPIO-Pins
// für Heizer und RGB-LED
type AnalogDevice struct {
	adc    AnalogReader
	heater types.DigitalPin
	ledR   types.DigitalPin
	ledG   types.DigitalPin
	ledB   types.DigitalPin
	cfg    AnalogConfig
}

// NewAnalogDevice erstellt ein analoges MICS6814-Breakout
func NewAnalogDevice(adc AnalogReader, heater, ledR, ledG, ledB types.DigitalPin, cfg AnalogConfig) *AnalogDevice {
	if cfg.LoadResistor <= 0 {
		cfg.LoadResistor = DefaultLoadResistor
	}
	if cfg.Vref <= 0 {
		cfg.Vref = DefaultVref
	}
	return &AnalogDevice{
		adc:    adc,
		heater: heater,
		ledR:   ledR,
		ledG:   ledG,
		ledB:   ledB,
		cfg:    cfg,
	}
}

// channelResistance rechnet die Teilerspannung eines Kanals in den
// Sensorwiderstand um
func (d *AnalogDevice) channelResistance(channel int) (float64, error) {
	v, err := d.adc.ReadVoltage(channel)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v >= d.cfg.Vref {
		return 0, errors.Errorf("channel %d voltage %.3f V outside divider range", channel, v)
	}
	return (v * d.cfg.LoadResistor) / (d.cfg.Vref - v), nil
}

// ReadAll liest die Widerstände aller drei Kanäle
func (d *AnalogDevice) ReadAll() (Raw, error) {
	ox, err := d.channelResistance(d.cfg.OxChannel)
	if err != nil {
		return Raw{}, errors.Wrap(err, "oxidising channel")
	}
	red, err := d.channelResistance(d.cfg.RedChannel)
	if err != nil {
		return Raw{}, errors.Wrap(err, "reducing channel")
	}
	nh3, err := d.channelResistance(d.cfg.NH3Channel)
	if err != nil {
		return Raw{}, errors.Wrap(err, "nh3 channel")
	}

	return Raw{Oxidising: ox, Reducing: red, NH3: nh3}, nil
}

// SetHeater schaltet die Heizplatte über ihren GPIO-Pin
func (d *AnalogDevice) SetHeater(on bool) error {
	if d.heater == nil {
		return nil
	}
	return d.heater.Set(on)
}

// SetLED setzt die RGB-LED; die Pins sind rein digital, jeder Farbanteil
// über der halben Skala schaltet den Pin ein
func (d *AnalogDevice) SetLED(r, g, b uint8) error {
	if d.ledR == nil || d.ledG == nil || d.ledB == nil {
		return nil
	}
	if err := d.ledR.Set(r > 127); err != nil {
		return err
	}
	if err := d.ledG.Set(g > 127); err != nil {
		return err
	}
	return d.ledB.Set(b > 127)
}

// Close schaltet die Ausgänge aus; die Busse selbst gehören dem Aufrufer
func (d *AnalogDevice) Close() error {
	if d.heater != nil {
		if err := d.heater.Set(false); err != nil {
			return err
		}
	}
	return d.SetLED(0, 0, 0)
}
