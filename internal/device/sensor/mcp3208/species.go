package mcp3208

// Spezies-Standardwerte der beiden Gase, die sich diesen Treiber teilen
const (
	// HCHOChannel ist der Standard-ADC-Kanal des Formaldehyd-Sensors
	HCHOChannel = 0
	// HCHOSensitivity ist die Empfindlichkeit des HCHO-Sensors in nA/ppm
	HCHOSensitivity = 35.0

	// NH3Channel ist der Standard-ADC-Kanal des Ammoniak-Sensors
	NH3Channel = 1
	// NH3Sensitivity ist die Empfindlichkeit des NH3-Sensors in nA/ppm
	NH3Sensitivity = 20.0
)

// NewHCHOSensor erstellt einen Formaldehyd-Sensor mit den HCHO-Standardwerten.
// Abweichende Werte in cfg haben Vorrang.
func NewHCHOSensor(cfg Config, open OpenFunc) (*MCP3208Sensor, error) {
	if cfg.Name == "" {
		cfg.Name = "HCHO"
	}
	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = HCHOSensitivity
	}
	cfg.Formula = "HCHO"
	cfg.CommonName = "Formaldehyde"

	return NewMCP3208Sensor(cfg, open)
}

// NewNH3Sensor erstellt einen Ammoniak-Sensor mit den NH3-Standardwerten.
// Abweichende Werte in cfg haben Vorrang.
func NewNH3Sensor(cfg Config, open OpenFunc) (*MCP3208Sensor, error) {
	if cfg.Name == "" {
		cfg.Name = "NH3"
	}
	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = NH3Sensitivity
	}
	cfg.Formula = "NH₃"
	cfg.CommonName = "Ammonia"

	return NewMCP3208Sensor(cfg, open)
}
