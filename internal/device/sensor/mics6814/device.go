// Package mics6814 implementiert den Treiber für den MICS6814
// Dreikanal-Gassensor (oxidierend, reduzierend, NH3) mit Heizer und
// RGB-Anzeige-LED. Die Konzentrationen werden aus dem Verhältnis von
// aktuellem Widerstand zur beim Aufwärmen erfassten Baseline berechnet.
package mics6814

// Raw enthält die rohen Kanalwiderstände einer Einzelmessung in Ohm
type Raw struct {
	Oxidising float64
	Reducing  float64
	NH3       float64
}

// Device ist die schmale Schnittstelle zum Sensor-Breakout. Das Breakout
// selbst (ADC-Frontend, Heizer- und LED-Ansteuerung) ist Plattform-Glue
// und gehört nicht zum Treiberkern.
type Device interface {
	// ReadAll liest alle drei Kanalwiderstände in einer Transaktion
	ReadAll() (Raw, error)
	// SetHeater schaltet die Heizplatte ein oder aus
	SetHeater(on bool) error
	// SetLED setzt die Farbe der Anzeige-LED
	SetLED(r, g, b uint8) error
	// Close gibt die Busressourcen frei
	Close() error
}
