package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// SensorConfig defines the structure for individual sensor configurations.
// Params carries driver-specific tunables (channel, sensitivity, vref,
// warmup_seconds, ceiling_ppm, ...). The per-driver factories pull what they
// need and fall back to their defaults.
type SensorConfig struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Type                string             `json:"type"` // dgs2 | hcho | nh3 | mics6814 | sen66
	Enabled             bool               `json:"enabled"`
	ReadIntervalSeconds int                `json:"read_interval_seconds"`
	Params              map[string]float64 `json:"params"`
	Pins                map[string]string  `json:"pins"` // GPIO pin names (heater, led_r, led_g, led_b)
	Port                string             `json:"port"` // per-sensor bus/port override
}

// BusConfig defines the platform bus endpoints shared by the sensors.
type BusConfig struct {
	SerialPort string `json:"serial_port"`
	SerialBaud int    `json:"serial_baud"`
	SPIPort    string `json:"spi_port"`
	I2CBus     string `json:"i2c_bus"`
}

// AppConfig is the top-level configuration structure.
type AppConfig struct {
	Bus      BusConfig      `json:"bus_settings"`
	Sensors  []SensorConfig `json:"sensors"`
	LogLevel string         `json:"log_level"`
}

// LoadAppConfig loads configuration from a JSON file and overrides with .env values.
func LoadAppConfig(configFilePath string) (*AppConfig, error) {
	logger := logrus.WithField("component", "config")

	// Default AppConfig
	appConfig := &AppConfig{
		Bus: BusConfig{
			SerialPort: "/dev/ttyS0",
			SerialBaud: 9600,
			SPIPort:    "SPI0.0",
			I2CBus:     "1",
		},
		LogLevel: "info",
	}

	// Load from JSON config file if provided and exists
	if configFilePath != "" {
		data, err := os.ReadFile(configFilePath)
		if err != nil {
			logger.Warnf("Could not read JSON config file %s: %v. Using defaults and .env values.", configFilePath, err)
		} else {
			if err := json.Unmarshal(data, appConfig); err != nil {
				return nil, fmt.Errorf("error unmarshalling JSON config file %s: %w", configFilePath, err)
			}
			logger.Infof("Loaded configuration from JSON file: %s", configFilePath)
		}
	}

	// Override with .env file values
	envPath := "/etc/airsense/reader.env"
	if os.Getenv("AIRSENSE_ENV_PATH") != "" {
		envPath = os.Getenv("AIRSENSE_ENV_PATH")
	}

	if err := godotenv.Load(envPath); err != nil {
		logger.Debugf("Could not load .env file from %s: %v. Using JSON or default values.", envPath, err)
	} else {
		logger.Infof("Successfully loaded .env file from %s", envPath)
	}

	if val := os.Getenv("AIRSENSE_SERIAL_PORT"); val != "" {
		appConfig.Bus.SerialPort = val
		logger.Infof("ENV Override: AIRSENSE_SERIAL_PORT=%s", val)
	}
	if val := os.Getenv("AIRSENSE_SERIAL_BAUD"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil {
			logger.Warnf("Could not parse AIRSENSE_SERIAL_BAUD from env ('%s'): %v. Using value %d", val, err, appConfig.Bus.SerialBaud)
		} else {
			appConfig.Bus.SerialBaud = baud
			logger.Infof("ENV Override: AIRSENSE_SERIAL_BAUD=%d", baud)
		}
	}
	if val := os.Getenv("AIRSENSE_SPI_PORT"); val != "" {
		appConfig.Bus.SPIPort = val
		logger.Infof("ENV Override: AIRSENSE_SPI_PORT=%s", val)
	}
	if val := os.Getenv("AIRSENSE_I2C_BUS"); val != "" {
		appConfig.Bus.I2CBus = val
		logger.Infof("ENV Override: AIRSENSE_I2C_BUS=%s", val)
	}
	if val := os.Getenv("AIRSENSE_LOG_LEVEL"); val != "" {
		appConfig.LogLevel = val
		logger.Infof("ENV Override: AIRSENSE_LOG_LEVEL=%s", val)
	}

	return appConfig, nil
}

// Param returns a named tunable from the sensor config, or def when absent.
func (c SensorConfig) Param(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok {
		return v
	}
	return def
}

// Pin returns a named GPIO pin from the sensor config, or def when absent.
func (c SensorConfig) Pin(name, def string) string {
	if v, ok := c.Pins[name]; ok && v != "" {
		return v
	}
	return def
}
