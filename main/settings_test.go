package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/b3nn0/hoverfly/flight"
	"github.com/b3nn0/hoverfly/pid"
	"github.com/b3nn0/hoverfly/vehicle"
)

func TestDefaultSettingsValid(t *testing.T) {
	defaultSettings()
	if err := globalSettings.validate(); err != nil {
		t.Fatal(err)
	}
	if globalSettings.loopPeriod() != flight.DefaultConfig().Period {
		t.Errorf("default loop period %v", globalSettings.loopPeriod())
	}
}

func TestSettingsValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		mod  func(*settings)
	}{
		{"period", func(s *settings) { s.LoopPeriodUS = 0 }},
		{"wait", func(s *settings) { s.WaitStrategy = "yield" }},
		{"imu", func(s *settings) { s.IMU = "bno055" }},
		{"esc", func(s *settings) { s.ESCProtocol = "dshot600" }},
		{"telemetry", func(s *settings) { s.TelemetryHz = 0 }},
		{"beta", func(s *settings) { s.MadgwickBeta = -1 }},
		{"mixer", func(s *settings) { s.MixerRollPitchScale = 0 }},
	} {
		defaultSettings()
		s := globalSettings
		tc.mod(&s)
		if err := s.validate(); err == nil {
			t.Errorf("%s: invalid settings accepted", tc.name)
		}
	}
}

func TestBuildController(t *testing.T) {
	defaultSettings()
	s := globalSettings
	if n := len(buildController(s).(pid.Pipeline)); n != 3 {
		t.Errorf("stages = %d, want 3", n)
	}
	s.AltitudeHold = true
	s.PositionHold = true
	ctl := buildController(s).(pid.Pipeline)
	if len(ctl) != 5 {
		t.Fatalf("stages = %d, want 5", len(ctl))
	}
	if _, ok := ctl[0].(*pid.Altitude); !ok {
		t.Errorf("first stage %T", ctl[0])
	}
	if _, ok := ctl[1].(*pid.Position); !ok {
		t.Errorf("second stage %T", ctl[1])
	}
	// A reset run on the ground must not command motion.
	out := ctl.Run(0.0005, true, vehicle.State{}, vehicle.Demands{})
	if out.Roll != 0 || out.Pitch != 0 || out.Yaw != 0 {
		t.Errorf("reset output %+v", out)
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	good := `{"Simulate": true, "LoopPeriodUS": 1000, "RateGains": {"kp": 0.3}}`
	s := loadSettings(write("good.conf", good))
	if !s.Simulate || s.LoopPeriodUS != 1000 || s.WaitStrategy != "spin" {
		t.Errorf("overlay %+v", s)
	}
	if s.RateGains.Kp != 0.3 {
		t.Errorf("rate gains %+v", s.RateGains)
	}
	// settings are input only; tuning is never written back
	if buf, err := os.ReadFile(filepath.Join(dir, "good.conf")); err != nil || string(buf) != good {
		t.Errorf("settings file changed: %q, %v", buf, err)
	}

	s = loadSettings(write("bad.conf", `{"WaitStrategy": "yield"}`))
	if s.WaitStrategy != "spin" {
		t.Errorf("invalid file not rejected: %+v", s)
	}
	s = loadSettings(filepath.Join(dir, "missing.conf"))
	if s.LoopPeriodUS != 500 {
		t.Errorf("missing file: %+v", s)
	}
}
