package dgs2

import (
	"errors"
	"io"
	"math"
	"testing"

	"airsense_reader/internal/types"
)

// fakePort ist ein serieller Transport für Tests: er liefert vorbereitete
// Antwortzeilen und zeichnet alle geschriebenen Kommandos auf.
type fakePort struct {
	lines    []string
	writes   []string
	writeErr error
	readErr  error
	closes   int
}

func (f *fakePort) WriteString(s string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, s)
	return nil
}

func (f *fakePort) ReadLine() (string, error) {
	if f.readErr != nil {
		return "", f.readErr
	}
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakePort) Close() error {
	f.closes++
	return nil
}

// newTestSensor erstellt einen Sensor ohne Protokollverzögerungen
func newTestSensor(t *testing.T, port *fakePort) *DGS2Sensor {
	t.Helper()

	s, err := NewDGS2Sensor(Config{ID: "h2s-1", Name: "H2S", Port: "/dev/ttyTEST"},
		func() (types.LineTransport, error) { return port, nil })
	if err != nil {
		t.Fatalf("NewDGS2Sensor: %v", err)
	}
	s.stabilize = 0
	s.cmdDelay = 0
	return s
}

func TestNewDGS2SensorConfigErrors(t *testing.T) {
	open := func() (types.LineTransport, error) { return &fakePort{}, nil }

	if _, err := NewDGS2Sensor(Config{ID: "x"}, open); err == nil {
		t.Error("leerer Port wurde akzeptiert")
	}
	if _, err := NewDGS2Sensor(Config{ID: "x", Port: "/dev/ttyS0"}, nil); err == nil {
		t.Error("fehlender Transport wurde akzeptiert")
	}

	var cerr *types.ConfigError
	_, err := NewDGS2Sensor(Config{ID: "x"}, open)
	if !errors.As(err, &cerr) {
		t.Errorf("erwartet ConfigError, bekommen %T", err)
	}
}

func TestParseMeasurement(t *testing.T) {
	s := newTestSensor(t, &fakePort{})

	r, err := s.parseMeasurement("0, 1020, 2512, 4890, 100, 200, 300")
	if err != nil {
		t.Fatalf("parseMeasurement: %v", err)
	}

	v := r.Serial
	if v.GasPPB != 1020 {
		t.Errorf("GasPPB = %g, erwartet 1020", v.GasPPB)
	}
	if math.Abs(v.GasPPM-1.020) > 1e-9 {
		t.Errorf("GasPPM = %g, erwartet 1.020", v.GasPPM)
	}
	if math.Abs(v.Temperature-25.12) > 1e-9 {
		t.Errorf("Temperature = %g, erwartet 25.12", v.Temperature)
	}
	if math.Abs(v.RelativeHumidity-48.90) > 1e-9 {
		t.Errorf("RelativeHumidity = %g, erwartet 48.90", v.RelativeHumidity)
	}
	if v.ADCGas != 100 || v.ADCTemp != 200 || v.ADCHumidity != 300 {
		t.Errorf("ADC-Werte = %d/%d/%d, erwartet 100/200/300", v.ADCGas, v.ADCTemp, v.ADCHumidity)
	}
}

func TestParseMeasurementRejectsMalformedLines(t *testing.T) {
	s := newTestSensor(t, &fakePort{})

	cases := []struct {
		name string
		line string
	}{
		{"zu wenige Felder", "0,1020,2512"},
		{"leere Zeile", ""},
		{"gas nicht numerisch", "0,abc,2512,4890,100,200,300"},
		{"temperatur nicht numerisch", "0,1020,x,4890,100,200,300"},
		{"adc nicht numerisch", "0,1020,2512,4890,1.5x,200,300"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.parseMeasurement(tc.line)
			if err == nil {
				t.Fatalf("Zeile %q wurde akzeptiert", tc.line)
			}
			var perr *types.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("erwartet ParseError, bekommen %T", err)
			}
		})
	}
}

func TestSanitizeClampsNegativesExceptTemperature(t *testing.T) {
	s := newTestSensor(t, &fakePort{})

	v := &types.SerialValues{
		GasPPB:           -5,
		GasPPM:           -0.005,
		Temperature:      -10.5,
		RelativeHumidity: -1,
		ADCGas:           -3,
		ADCTemp:          200,
		ADCHumidity:      -7,
	}
	s.sanitize(v)

	if v.GasPPB != 0 || v.GasPPM != 0 || v.RelativeHumidity != 0 {
		t.Errorf("negative Messwerte nicht auf 0 gesetzt: %+v", v)
	}
	if v.ADCGas != 0 || v.ADCHumidity != 0 {
		t.Errorf("negative ADC-Werte nicht auf 0 gesetzt: %+v", v)
	}
	if v.Temperature != -10.5 {
		t.Errorf("Temperatur wurde verändert: %g", v.Temperature)
	}
	if v.ADCTemp != 200 {
		t.Errorf("gültiger ADC-Wert wurde verändert: %d", v.ADCTemp)
	}
}

func TestValidateRanges(t *testing.T) {
	s := newTestSensor(t, &fakePort{})

	valid := func(temp, hum float64) bool {
		r := types.NewReading("H2S", types.KindSerialASCII)
		r.Serial = &types.SerialValues{Temperature: temp, RelativeHumidity: hum}
		return s.validate(r)
	}

	cases := []struct {
		name string
		temp float64
		hum  float64
		want bool
	}{
		{"nominal", 25, 50, true},
		{"untere Temperaturgrenze", -40, 50, true},
		{"obere Temperaturgrenze", 85, 50, true},
		{"zu kalt", -40.5, 50, false},
		{"zu heiß", 85.5, 50, false},
		{"Feuchte untere Grenze", 25, 0, true},
		{"Feuchte obere Grenze", 25, 100, true},
		{"Feuchte zu hoch", 25, 100.5, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := valid(tc.temp, tc.hum); got != tc.want {
				t.Errorf("validate(temp=%g, hum=%g) = %v, erwartet %v", tc.temp, tc.hum, got, tc.want)
			}
		})
	}

	if s.validate(nil) {
		t.Error("nil-Reading wurde als gültig akzeptiert")
	}
}

func TestConnectSendsCarriageReturnTerminatedCommand(t *testing.T) {
	port := &fakePort{lines: []string{"0,100,2500,5000,1,2,3\r\n"}}
	s := newTestSensor(t, port)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}
	if s.State() != types.StateReady {
		t.Errorf("Zustand = %s, erwartet READY", s.State())
	}
	if len(port.writes) != 1 || port.writes[0] != "\r" {
		t.Errorf("geschriebene Kommandos = %q, erwartet [\"\\r\"]", port.writes)
	}
}

func TestReadMeasurementReturnsNilBeforeFirstSuccess(t *testing.T) {
	// Der Sensor antwortet nur mit Müll; ohne jemals gültig gelesen zu
	// haben gibt es keinen Cache, auf den zurückgefallen werden könnte.
	port := &fakePort{lines: []string{"garbage", "garbage"}}
	s := newTestSensor(t, port)

	if r := s.ReadMeasurement(); r != nil {
		t.Errorf("erwartet nil vor dem ersten gültigen Messwert, bekommen %+v", r)
	}
}

func TestReadMeasurementFallsBackToLastValid(t *testing.T) {
	port := &fakePort{lines: []string{
		"0,100,2500,5000,1,2,3",        // Connect-Kommunikationstest
		"0,1020,2512,4890,100,200,300", // erste gültige Messung
		"not,a,measurement",            // Parse-Fehler
		"0,2000,9900,5000,1,2,3",       // Temperatur 99 °C, fällt durch die Validierung
	}}
	s := newTestSensor(t, port)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}

	first := s.ReadMeasurement()
	if first == nil || first.Serial == nil {
		t.Fatal("erste Messung fehlgeschlagen")
	}
	if first.Serial.GasPPB != 1020 {
		t.Fatalf("GasPPB = %g, erwartet 1020", first.Serial.GasPPB)
	}

	if got := s.ReadMeasurement(); got != first {
		t.Errorf("Parse-Fehler: erwartet Cache-Fallback auf die erste Messung, bekommen %+v", got)
	}
	if got := s.ReadMeasurement(); got != first {
		t.Errorf("Validierungsfehler: erwartet Cache-Fallback auf die erste Messung, bekommen %+v", got)
	}
}

func TestReadMeasurementTransportErrorFaultsSensor(t *testing.T) {
	port := &fakePort{lines: []string{
		"0,100,2500,5000,1,2,3",
		"0,1020,2512,4890,100,200,300",
	}}
	s := newTestSensor(t, port)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}
	first := s.ReadMeasurement()
	if first == nil {
		t.Fatal("erste Messung fehlgeschlagen")
	}

	port.writeErr = errors.New("broken pipe")
	if got := s.ReadMeasurement(); got != first {
		t.Errorf("erwartet Cache-Fallback nach Transportfehler, bekommen %+v", got)
	}
	// Der fehlgeschlagene Read hinterlässt den Sensor im Fehlerzustand;
	// der nächste Read versucht einen erneuten Connect.
	if s.State() == types.StateReady {
		t.Error("Sensor ist nach Transportfehler noch READY")
	}
}

func TestReconnectClosesPreviousTransport(t *testing.T) {
	// Ein blockiertes Gerät lässt jede Messung fehlschlagen; jeder Poll
	// verbindet daher neu. Der Transport des vorherigen Zyklus muss dabei
	// geschlossen werden, sonst leckt jeder Zyklus einen Deskriptor.
	var ports []*fakePort
	open := func() (types.LineTransport, error) {
		p := &fakePort{readErr: errors.New("device wedged")}
		ports = append(ports, p)
		return p, nil
	}

	s, err := NewDGS2Sensor(Config{ID: "h2s-1", Name: "H2S", Port: "/dev/ttyTEST"}, open)
	if err != nil {
		t.Fatalf("NewDGS2Sensor: %v", err)
	}
	s.stabilize = 0
	s.cmdDelay = 0

	for i := 0; i < 5; i++ {
		if r := s.ReadMeasurement(); r != nil {
			t.Fatalf("Poll %d lieferte eine Messung von einem blockierten Gerät", i)
		}
	}

	closes := 0
	for _, p := range ports {
		closes += p.closes
	}
	if len(ports) != 5 {
		t.Fatalf("Transporte geöffnet = %d, erwartet 5", len(ports))
	}
	if closes != len(ports)-1 {
		t.Errorf("Close-Aufrufe = %d, erwartet %d (nur der aktuelle Transport bleibt offen)", closes, len(ports)-1)
	}
	if ports[len(ports)-1].closes != 0 {
		t.Error("der aktuelle Transport wurde geschlossen")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	port := &fakePort{lines: []string{"0,100,2500,5000,1,2,3"}}
	s := newTestSensor(t, port)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}

	s.Cleanup()
	s.Cleanup()

	if port.closes != 1 {
		t.Errorf("Close wurde %d-mal aufgerufen, erwartet 1", port.closes)
	}
	if s.State() != types.StateDisconnected {
		t.Errorf("Zustand = %s, erwartet DISCONNECTED", s.State())
	}
}
