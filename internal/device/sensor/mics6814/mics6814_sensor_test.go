package mics6814

import (
	"errors"
	"math"
	"testing"
	"time"

	"airsense_reader/internal/types"
)

// fakeBreakout zeichnet Heizer- und LED-Zustand auf und liefert
// einstellbare Kanalwiderstände.
type fakeBreakout struct {
	raw     Raw
	readErr error
	heater  bool
	led     [3]uint8
	closes  int
}

func (f *fakeBreakout) ReadAll() (Raw, error) {
	if f.readErr != nil {
		return Raw{}, f.readErr
	}
	return f.raw, nil
}

func (f *fakeBreakout) SetHeater(on bool) error {
	f.heater = on
	return nil
}

func (f *fakeBreakout) SetLED(r, g, b uint8) error {
	f.led = [3]uint8{r, g, b}
	return nil
}

func (f *fakeBreakout) Close() error {
	f.closes++
	return nil
}

func newTestSensor(t *testing.T, dev *fakeBreakout) *MICS6814Sensor {
	t.Helper()

	s, err := NewMICS6814Sensor(Config{
		ID:        "mics-1",
		Name:      "MICS6814",
		Warmup:    time.Nanosecond,
		EnableLED: true,
	}, func() (Device, error) { return dev, nil })
	if err != nil {
		t.Fatalf("NewMICS6814Sensor: %v", err)
	}
	return s
}

func TestCalculatePPM(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		baseline float64
		coeff    float64
		inverted bool
		want     float64
	}{
		{"oxidierend unter Baseline", 90, 100, 0.1, true, 0.1 * (100.0/90.0 - 1)},
		{"oxidierend auf Baseline", 100, 100, 0.1, true, 0},
		{"reduzierend über Baseline", 220, 200, 4.0, false, 0.4},
		{"reduzierend unter Baseline gedeckelt", 180, 200, 4.0, false, 0},
		{"nh3 über Baseline", 450, 300, 5.0, false, 2.5},
		{"null-Widerstand", 0, 100, 4.0, false, 0},
		{"null-Baseline", 100, 0, 4.0, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculatePPM(tc.current, tc.baseline, tc.coeff, tc.inverted)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("calculatePPM = %g, erwartet %g", got, tc.want)
			}
		})
	}
}

func TestConnectCapturesBaselineOnce(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s := newTestSensor(t, dev)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}
	if s.State() != types.StateReady {
		t.Errorf("Zustand = %s, erwartet READY", s.State())
	}
	if !dev.heater {
		t.Error("Heizer wurde nicht eingeschaltet")
	}
	if s.baseline == nil {
		t.Fatal("Baseline wurde nicht erfasst")
	}
	if s.baseline.Oxidising != 100 || s.baseline.Reducing != 200 || s.baseline.NH3 != 300 {
		t.Errorf("Baseline = %+v", s.baseline)
	}

	// spätere Reads verändern die Baseline nicht
	dev.raw = Raw{Oxidising: 90, Reducing: 220, NH3: 300}
	if r := s.ReadMeasurement(); r == nil {
		t.Fatal("Messung fehlgeschlagen")
	}
	if s.baseline.Oxidising != 100 {
		t.Errorf("Baseline wurde nachträglich verändert: %+v", s.baseline)
	}
}

func TestReadMeasurementComputesRatios(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s := newTestSensor(t, dev)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}

	dev.raw = Raw{Oxidising: 90, Reducing: 220, NH3: 300}
	r := s.ReadMeasurement()
	if r == nil || r.Resistive == nil {
		t.Fatal("keine Messung erhalten")
	}

	v := r.Resistive
	if v.Raw.Oxidising != 90 || v.Raw.Reducing != 220 || v.Raw.NH3 != 300 {
		t.Errorf("Rohwerte = %+v", v.Raw)
	}
	if math.Abs(v.PPM.NO2-0.1*(100.0/90.0-1)) > 1e-9 {
		t.Errorf("NO2 = %g, erwartet %g", v.PPM.NO2, 0.1*(100.0/90.0-1))
	}
	if math.Abs(v.PPM.CO-0.4) > 1e-9 {
		t.Errorf("CO = %g, erwartet 0.4", v.PPM.CO)
	}
	if v.PPM.NH3 != 0 {
		t.Errorf("NH3 = %g, erwartet 0", v.PPM.NH3)
	}
}

func TestLEDPriority(t *testing.T) {
	baseline := Raw{Oxidising: 100, Reducing: 200, NH3: 300}

	cases := []struct {
		name string
		raw  Raw
		want [3]uint8
	}{
		// NO2 über Schwellwert gewinnt auch bei gleichzeitig hohem CO
		{"rot bei NO2", Raw{Oxidising: 40, Reducing: 600, NH3: 300}, [3]uint8{255, 0, 0}},
		{"gelb bei CO", Raw{Oxidising: 100, Reducing: 600, NH3: 300}, [3]uint8{255, 255, 0}},
		{"violett bei NH3", Raw{Oxidising: 100, Reducing: 200, NH3: 450}, [3]uint8{255, 0, 255}},
		{"grün nominal", baseline, [3]uint8{0, 255, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev := &fakeBreakout{raw: baseline}
			s := newTestSensor(t, dev)
			if !s.Connect() {
				t.Fatal("Connect fehlgeschlagen")
			}

			dev.raw = tc.raw
			if r := s.ReadMeasurement(); r == nil {
				t.Fatal("Messung fehlgeschlagen")
			}
			if dev.led != tc.want {
				t.Errorf("LED = %v, erwartet %v", dev.led, tc.want)
			}
		})
	}
}

func TestLEDDisabled(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s, err := NewMICS6814Sensor(Config{ID: "mics-1", Warmup: time.Nanosecond},
		func() (Device, error) { return dev, nil })
	if err != nil {
		t.Fatalf("NewMICS6814Sensor: %v", err)
	}

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}
	if r := s.ReadMeasurement(); r == nil {
		t.Fatal("Messung fehlgeschlagen")
	}
	if dev.led != [3]uint8{} {
		t.Errorf("LED wurde trotz Deaktivierung gesetzt: %v", dev.led)
	}
}

func TestValidateRequiresBaselineAndPositiveRaw(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s := newTestSensor(t, dev)

	// vor dem Kalibrieren gibt es keine Baseline
	if s.validate(Raw{Oxidising: 100, Reducing: 200, NH3: 300}) {
		t.Error("Messung ohne Baseline wurde akzeptiert")
	}

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}
	if !s.validate(Raw{Oxidising: 100, Reducing: 200, NH3: 300}) {
		t.Error("gültige Messung wurde verworfen")
	}
	if s.validate(Raw{Oxidising: 0, Reducing: 200, NH3: 300}) {
		t.Error("Messung mit Null-Widerstand wurde akzeptiert")
	}
	if s.validate(Raw{Oxidising: 100, Reducing: -5, NH3: 300}) {
		t.Error("Messung mit negativem Widerstand wurde akzeptiert")
	}
}

func TestReadMeasurementFallsBackOnReadError(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s := newTestSensor(t, dev)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}
	first := s.ReadMeasurement()
	if first == nil {
		t.Fatal("erste Messung fehlgeschlagen")
	}

	dev.readErr = errors.New("adc: channel voltage outside divider range")
	if got := s.ReadMeasurement(); got != first {
		t.Errorf("erwartet Cache-Fallback, bekommen %+v", got)
	}
	if s.State() != types.StateFaulted {
		t.Errorf("Zustand = %s, erwartet FAULTED", s.State())
	}
}

func TestCleanupPowersDown(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s := newTestSensor(t, dev)

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}

	s.Cleanup()
	s.Cleanup()

	if dev.heater {
		t.Error("Heizer wurde nicht ausgeschaltet")
	}
	if dev.led != [3]uint8{0, 0, 0} {
		t.Errorf("LED wurde nicht ausgeschaltet: %v", dev.led)
	}
	if dev.closes != 1 {
		t.Errorf("Close wurde %d-mal aufgerufen, erwartet 1", dev.closes)
	}
	if s.State() != types.StateDisconnected {
		t.Errorf("Zustand = %s, erwartet DISCONNECTED", s.State())
	}
	if s.baseline != nil {
		t.Error("Baseline wurde nicht verworfen")
	}
}

// wedgedBreakout liefert genau eine Baseline-Messung und schlägt danach fehl
type wedgedBreakout struct {
	reads  int
	closes int
}

func (d *wedgedBreakout) ReadAll() (Raw, error) {
	d.reads++
	if d.reads == 1 {
		return Raw{Oxidising: 100, Reducing: 200, NH3: 300}, nil
	}
	return Raw{}, errors.New("adc: read failed")
}

func (d *wedgedBreakout) SetHeater(on bool) error    { return nil }
func (d *wedgedBreakout) SetLED(r, g, b uint8) error { return nil }
func (d *wedgedBreakout) Close() error               { d.closes++; return nil }

func TestReconnectClosesPreviousBreakout(t *testing.T) {
	// Jeder fehlgeschlagene Poll führt zu einem Reconnect; das Breakout
	// des vorherigen Zyklus (SPI-Port plus vier GPIO-Pins) muss dabei
	// geschlossen werden.
	var devices []*wedgedBreakout
	open := func() (Device, error) {
		d := &wedgedBreakout{}
		devices = append(devices, d)
		return d, nil
	}

	s, err := NewMICS6814Sensor(Config{ID: "mics-1", Warmup: time.Nanosecond}, open)
	if err != nil {
		t.Fatalf("NewMICS6814Sensor: %v", err)
	}

	for i := 0; i < 5; i++ {
		if r := s.ReadMeasurement(); r != nil {
			t.Fatalf("Poll %d lieferte eine Messung von einem blockierten Gerät", i)
		}
	}

	closes := 0
	for _, d := range devices {
		closes += d.closes
	}
	if len(devices) != 5 {
		t.Fatalf("Breakouts geöffnet = %d, erwartet 5", len(devices))
	}
	if closes != len(devices)-1 {
		t.Errorf("Close-Aufrufe = %d, erwartet %d (nur das aktuelle Breakout bleibt offen)", closes, len(devices)-1)
	}
}

func TestCleanupTurnsLEDOffEvenWhenDisabled(t *testing.T) {
	dev := &fakeBreakout{raw: Raw{Oxidising: 100, Reducing: 200, NH3: 300}}
	s, err := NewMICS6814Sensor(Config{ID: "mics-1", Warmup: time.Nanosecond},
		func() (Device, error) { return dev, nil })
	if err != nil {
		t.Fatalf("NewMICS6814Sensor: %v", err)
	}

	if !s.Connect() {
		t.Fatal("Connect fehlgeschlagen")
	}

	// Eine andere Device-Implementierung könnte die LED noch aus einem
	// früheren Zyklus leuchten lassen.
	dev.led = [3]uint8{255, 0, 0}
	s.Cleanup()

	if dev.led != [3]uint8{0, 0, 0} {
		t.Errorf("LED nach Cleanup = %v, erwartet aus", dev.led)
	}
}

func TestAnalogDeviceResistance(t *testing.T) {
	adc := &fakeADC{volts: map[int]float64{5: 1.65, 6: 1.1, 7: 2.2}}
	dev := NewAnalogDevice(adc, nil, nil, nil, nil, AnalogConfig{
		OxChannel:  5,
		RedChannel: 6,
		NH3Channel: 7,
	})

	raw, err := dev.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	// R = (v * 56000) / (3.3 - v); bei halber Versorgung gleich dem Lastwiderstand
	if math.Abs(raw.Oxidising-56000) > 0.5 {
		t.Errorf("oxidierend = %g Ω, erwartet 56000", raw.Oxidising)
	}
	if math.Abs(raw.Reducing-(1.1*56000)/2.2) > 0.5 {
		t.Errorf("reduzierend = %g Ω, erwartet %g", raw.Reducing, (1.1*56000)/2.2)
	}
	if math.Abs(raw.NH3-(2.2*56000)/1.1) > 0.5 {
		t.Errorf("nh3 = %g Ω, erwartet %g", raw.NH3, (2.2*56000)/1.1)
	}
}

func TestAnalogDeviceRejectsRailVoltages(t *testing.T) {
	cases := []struct {
		name  string
		volts float64
	}{
		{"Masse", 0},
		{"Versorgung", 3.3},
		{"über Versorgung", 3.4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adc := &fakeADC{volts: map[int]float64{5: tc.volts, 6: 1.65, 7: 1.65}}
			dev := NewAnalogDevice(adc, nil, nil, nil, nil, AnalogConfig{
				OxChannel:  5,
				RedChannel: 6,
				NH3Channel: 7,
			})
			if _, err := dev.ReadAll(); err == nil {
				t.Errorf("Spannung %g V wurde akzeptiert", tc.volts)
			}
		})
	}
}

type fakeADC struct {
	volts map[int]float64
}

func (f *fakeADC) ReadVoltage(channel int) (float64, error) {
	v, ok := f.volts[channel]
	if !ok {
		return 0, errors.New("unbekannter Kanal")
	}
	return v, nil
}
