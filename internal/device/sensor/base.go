// Package sensor implementiert die gemeinsame Basis aller Sensortreiber:
// Identität, Verbindungszustandsmaschine und den Last-Valid-Cache.
package sensor

import (
	"sync"

	"github.com/sirupsen/logrus"

	"airsense_reader/internal/types"
)

// BaseSensor ist eine grundlegende Implementierung eines Sensors,
// die von spezifischen Sensortypen erweitert werden kann.
//
// Der Last-Valid-Cache gehört exklusiv der Treiberinstanz: er wird nur
// innerhalb von ReadMeasurement aktualisiert, und zwar ausschließlich mit
// Messwerten, die die treiberspezifische Validierung bestanden haben.
type BaseSensor struct {
	identity  types.Identity
	state     types.ConnectionState
	lastValid *types.Reading
	log       *logrus.Entry
	mutex     sync.RWMutex
}

// NewBaseSensor erstellt einen neuen BaseSensor im Zustand Disconnected
func NewBaseSensor(id, name string, kind types.DriverKind) *BaseSensor {
	return &BaseSensor{
		identity: types.Identity{ID: id, Name: name, Kind: kind},
		state:    types.StateDisconnected,
		log: logrus.WithFields(logrus.Fields{
			"sensor": name,
			"id":     id,
		}),
	}
}

// ID gibt die eindeutige Kennung des Sensors zurück
func (s *BaseSensor) ID() string {
	return s.identity.ID
}

// Name gibt den Anzeigenamen des Sensors zurück
func (s *BaseSensor) Name() string {
	return s.identity.Name
}

// Kind gibt die Treiberfamilie des Sensors zurück
func (s *BaseSensor) Kind() types.DriverKind {
	return s.identity.Kind
}

// State gibt den aktuellen Verbindungszustand zurück
func (s *BaseSensor) State() types.ConnectionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// SetState setzt den Verbindungszustand
func (s *BaseSensor) SetState(state types.ConnectionState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state = state
}

// LastValid gibt den letzten gültigen Messwert zurück
// (nil, solange noch nie erfolgreich gelesen wurde)
func (s *BaseSensor) LastValid() *types.Reading {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastValid
}

// StoreLastValid überschreibt den Last-Valid-Cache mit einem validierten Messwert
func (s *BaseSensor) StoreLastValid(r *types.Reading) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastValid = r
}

// Log gibt den Logger des Sensors zurück
func (s *BaseSensor) Log() *logrus.Entry {
	return s.log
}
