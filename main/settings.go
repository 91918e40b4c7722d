/*
	Copyright (c) 2024 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	settings.go: JSON configuration file, defaults and validation.
*/

package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/b3nn0/hoverfly/esc"
	"github.com/b3nn0/hoverfly/estimator"
	"github.com/b3nn0/hoverfly/mixer"
	"github.com/b3nn0/hoverfly/pid"
)

var configLocation = "/etc/hoverfly.conf"

const (
	managementAddr = ":80"
	logDir         = "/var/log"
	flightLogFile  = "/var/log/hoverfly-flight.db"
)

var waitStrategies = []string{"spin", "sleep", "ticker"}

var imuModels = []string{"mpu6050", "icm20948"}

type settings struct {
	DEBUG    bool
	Simulate bool // fly the dynamics model instead of hardware

	LoopPeriodUS int    // control loop period, microseconds
	WaitStrategy string // spin, sleep or ticker

	IMU          string // mpu6050 or icm20948
	I2CBus       byte
	IBusDevice   string
	TFMiniDevice string // empty when no rangefinder is fitted

	ESCProtocol string // pwm or oneshot125
	ESCAddr     byte   // PCA9685 I2C address
	ESCChannels [4]int

	LEDPin int // BCM numbering, 0 to disable
	FanPin int

	FanTempTarget float64
	FanPWMDutyMin uint32

	TelemetryHz float64
	FlightLogHz float64 // 0 disables the flight log

	MadgwickBeta       float64
	CalibrationSamples int // at startup, vehicle level and still
	Calibration        estimator.Calibration

	// Controller output units per motor fraction
	MixerRollPitchScale float64
	MixerYawScale       float64

	RateGains     pid.Gains
	AngleGains    pid.Gains
	YawGains      pid.Gains
	AltitudeHold  bool
	AltitudeGains pid.Gains
	PositionHold  bool
	PositionGains pid.Gains
}

var globalSettings settings

func defaultSettings() {
	globalSettings = newDefaultSettings()
}

func newDefaultSettings() settings {
	return settings{
		LoopPeriodUS:        500,
		WaitStrategy:        "spin",
		IMU:                 "mpu6050",
		I2CBus:              1,
		IBusDevice:          "/dev/serial0",
		ESCProtocol:         esc.OneShot125.Name,
		ESCAddr:             esc.DefaultPCA9685Addr,
		ESCChannels:         [4]int{0, 1, 2, 3},
		LEDPin:              17,
		FanPin:              18,
		FanTempTarget:       50,
		FanPWMDutyMin:       50,
		TelemetryHz:         20,
		FlightLogHz:         50,
		MadgwickBeta:        estimator.DefaultBeta,
		CalibrationSamples:  1000,
		MixerRollPitchScale: mixer.DefaultOutputScale,
		MixerYawScale:       mixer.DefaultOutputScale,
		RateGains:           pid.DefaultRateGains,
		AngleGains:          pid.DefaultAngleGains,
		YawGains:            pid.DefaultYawGains,
		AltitudeGains:       pid.DefaultAltitudeGains,
		PositionGains:       pid.DefaultPositionGains,
	}
}

func readSettings() {
	globalSettings = loadSettings(configLocation)
}

// loadSettings overlays the config file on the defaults. A missing or
// invalid file yields the defaults.
func loadSettings(path string) settings {
	defaults := newDefaultSettings()
	buf, err := os.ReadFile(path)
	if err != nil {
		log.Printf("can't read settings %s: %s\n", path, err.Error())
		return defaults
	}
	newSettings := defaults
	if err := json.Unmarshal(buf, &newSettings); err != nil {
		log.Printf("can't read settings %s: %s\n", path, err.Error())
		return defaults
	}
	if err := newSettings.validate(); err != nil {
		log.Printf("ignoring settings %s: %s\n", path, err.Error())
		return defaults
	}
	log.Printf("read in settings.\n")
	return newSettings
}

func (s settings) loopPeriod() time.Duration {
	return time.Duration(s.LoopPeriodUS) * time.Microsecond
}

func (s settings) validate() error {
	if s.LoopPeriodUS <= 0 {
		return errors.Errorf("invalid loop period %d us", s.LoopPeriodUS)
	}
	if !slices.Contains(waitStrategies, s.WaitStrategy) {
		return errors.Errorf("unknown wait strategy %q, want one of %v", s.WaitStrategy, waitStrategies)
	}
	if !slices.Contains(imuModels, s.IMU) {
		return errors.Errorf("unknown IMU %q, want one of %v", s.IMU, imuModels)
	}
	if esc.ProtocolByName(s.ESCProtocol).Name != s.ESCProtocol {
		return errors.Errorf("unknown ESC protocol %q", s.ESCProtocol)
	}
	if s.TelemetryHz <= 0 || s.FlightLogHz < 0 {
		return errors.New("invalid telemetry or flight log rate")
	}
	if s.MadgwickBeta <= 0 {
		return errors.Errorf("invalid Madgwick beta %v", s.MadgwickBeta)
	}
	if s.MixerRollPitchScale <= 0 || s.MixerYawScale <= 0 {
		return errors.Errorf("invalid mixer scales %v/%v", s.MixerRollPitchScale, s.MixerYawScale)
	}
	return nil
}
