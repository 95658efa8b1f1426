package device

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"airsense_reader/internal/types"
)

// Registry ist ein Thread-sicheres Register für alle im System verfügbaren
// Sensoren. Es ermöglicht das Hinzufügen, Entfernen und Abrufen von Sensoren
// und räumt sie beim Schließen gemeinsam auf.
type Registry struct {
	sensors map[string]types.Sensor
	mutex   sync.RWMutex
	log     *logrus.Entry
}

// NewRegistry erstellt eine neue Sensor-Registry
func NewRegistry() *Registry {
	return &Registry{
		sensors: make(map[string]types.Sensor),
		log:     logrus.WithField("component", "registry"),
	}
}

// AddSensor fügt einen Sensor zur Registry hinzu
func (r *Registry) AddSensor(s types.Sensor) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	id := s.ID()
	if _, exists := r.sensors[id]; exists {
		return fmt.Errorf("sensor mit ID %s ist bereits registriert", id)
	}

	r.sensors[id] = s
	return nil
}

// RemoveSensor entfernt einen Sensor aus der Registry
func (r *Registry) RemoveSensor(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sensors[id]; !exists {
		return fmt.Errorf("sensor mit ID %s nicht gefunden", id)
	}

	delete(r.sensors, id)
	return nil
}

// GetSensor gibt einen Sensor aus der Registry zurück
func (r *Registry) GetSensor(id string) (types.Sensor, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, exists := r.sensors[id]
	if !exists {
		return nil, fmt.Errorf("sensor mit ID %s nicht gefunden", id)
	}

	return s, nil
}

// GetSensors gibt alle registrierten Sensoren zurück
func (r *Registry) GetSensors() []types.Sensor {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sensors := make([]types.Sensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		sensors = append(sensors, s)
	}

	return sensors
}

// Close räumt alle Sensoren auf und leert die Registry
func (r *Registry) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id, s := range r.sensors {
		s.Cleanup()
		r.log.Infof("Sensor %s aufgeräumt", id)
	}

	r.sensors = make(map[string]types.Sensor)
}
