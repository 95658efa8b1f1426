package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"airsense_reader/internal/config"
	"airsense_reader/internal/manager"
)

// Dateipfade
const (
	defaultConfigPath = "config/sensors.json"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger := logrus.WithField("component", "main")
	logger.Info("Starte AirSense Reader...")

	// Konfigurationspfad bestimmen
	actualConfigPath := defaultConfigPath
	if envPath := os.Getenv("AIRSENSE_CONFIG_PATH"); envPath != "" {
		actualConfigPath = envPath
	}

	// Konfiguration laden
	appCfg, err := config.LoadAppConfig(actualConfigPath)
	if err != nil {
		logger.Fatalf("Fehler beim Laden der Anwendungskonfiguration aus %s: %v", actualConfigPath, err)
	}

	if level, err := logrus.ParseLevel(appCfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logger.Warnf("Unbekanntes Log-Level %q, verwende info", appCfg.LogLevel)
	}

	logger.Infof("Konfiguration geladen. Serial: %s, SPI: %s, I2C-Bus: %s, Sensoren: %d",
		appCfg.Bus.SerialPort, appCfg.Bus.SPIPort, appCfg.Bus.I2CBus, len(appCfg.Sensors))

	// Sensor-Manager erstellen
	sensorManager, err := manager.NewSensorManager(appCfg)
	if err != nil {
		logger.Fatalf("Fehler beim Initialisieren des SensorManagers: %v", err)
	}

	sensorManager.Start()
	logger.Info("Anwendung gestartet. Drücke Strg+C zum Beenden.")

	// Auf Beendigungssignal warten
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown-Signal empfangen. Stoppe Dienste...")
	sensorManager.Stop()
	logger.Info("Anwendung wurde ordnungsgemäß beendet.")
}
