package types

import "fmt"

// TransportError kennzeichnet einen Fehler auf Busebene (Öffnen, Schreiben, Lesen).
// Während eines Reads wird er lokal behandelt und nie an den Aufrufer durchgereicht.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transportfehler bei %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError kennzeichnet eine nicht interpretierbare Geräte-Antwort
type ParseError struct {
	Payload string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ungültige Geräteantwort %q: %s", e.Payload, e.Reason)
}

// RangeError kennzeichnet einen Messwert außerhalb des physikalischen
// oder kalibrierten Bereichs
type RangeError struct {
	Field string
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("messwert %s=%g außerhalb des gültigen Bereichs", e.Field, e.Value)
}

// ConfigError kennzeichnet einen ungültigen Konstruktionsparameter.
// Er wird sofort bei der Konstruktion zurückgegeben, da er auf einen
// Programmier- oder Deployment-Fehler hinweist.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ungültiger Parameter %s: %s", e.Param, e.Reason)
}
