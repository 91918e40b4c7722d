/*
	Copyright (c) 2024 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	hardware.go: Bring up the IMU, rangefinder, receiver, ESCs and LED on a
	Raspberry Pi.
*/

package main

import (
	"context"
	"log"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/b3nn0/hoverfly/esc"
	"github.com/b3nn0/hoverfly/estimator"
	"github.com/b3nn0/hoverfly/flight"
	"github.com/b3nn0/hoverfly/rx"
	"github.com/b3nn0/hoverfly/sensors"
)

// vehicleIO is the set of collaborators the flight loop drives.
type vehicleIO struct {
	imu      sensors.IMUReader
	rng      sensors.RangeReader
	receiver rx.Receiver
	esc      esc.Writer
	est      flight.Estimator // nil selects the IMU filter
	led      *gpioLED
	closers  []func()
}

func (v *vehicleIO) close() {
	for i := len(v.closers) - 1; i >= 0; i-- {
		v.closers[i]()
	}
}

type gpioLED struct {
	pin rpio.Pin
}

func (l *gpioLED) Set(on bool) {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
}

// initHardware fails on any device the vehicle cannot fly without. The
// rangefinder is optional.
func initHardware(s settings) (*vehicleIO, error) {
	v := &vehicleIO{}
	fail := func(err error) (*vehicleIO, error) {
		v.close()
		return nil, err
	}

	if err := rpio.Open(); err != nil {
		return fail(errors.Wrap(err, "opening GPIO"))
	}
	v.closers = append(v.closers, func() { rpio.Close() })
	if s.LEDPin > 0 {
		pin := rpio.Pin(s.LEDPin)
		pin.Output()
		v.led = &gpioLED{pin: pin}
		v.closers = append(v.closers, func() { pin.Low() })
	}

	i2cbus := embd.NewI2CBus(s.I2CBus)
	v.closers = append(v.closers, func() { i2cbus.Close() })

	writer := esc.NewPCA9685(i2cbus, s.ESCAddr, esc.ProtocolByName(s.ESCProtocol), s.ESCChannels)
	if err := writer.Stop(); err != nil {
		return fail(errors.Wrap(err, "ESC init"))
	}
	v.esc = writer
	v.closers = append(v.closers, func() { writer.Stop() })

	switch s.IMU {
	case "icm20948":
		imu, err := sensors.NewICM20948(&i2cbus)
		if err != nil {
			return fail(err)
		}
		v.imu = imu
	default:
		imu, err := sensors.NewMPU6050(i2cbus, sensors.MPU6050Address, sensors.MPU6050Poll)
		if err != nil {
			return fail(err)
		}
		v.imu = imu
	}
	v.closers = append(v.closers, v.imu.Close)
	log.Printf("%s IMU initialized\n", s.IMU)

	ibus, err := rx.OpenIBus(s.IBusDevice, rx.NewLink(rx.DefaultTimeout))
	if err != nil {
		return fail(err)
	}
	v.receiver = ibus
	v.closers = append(v.closers, func() { ibus.Close() })
	log.Printf("iBus receiver on %s\n", s.IBusDevice)

	if s.TFMiniDevice != "" {
		tf, err := sensors.OpenTFMini(s.TFMiniDevice)
		if err != nil {
			log.Printf("rangefinder unavailable, flying without: %s\n", err.Error())
		} else {
			v.rng = tf
			v.closers = append(v.closers, tf.Close)
			log.Printf("TFmini rangefinder on %s\n", s.TFMiniDevice)
		}
	}
	return v, nil
}

// calibrate averages IMU samples while the vehicle sits still.
func calibrate(ctx context.Context, imu sensors.IMUReader, n int) (estimator.Calibration, error) {
	samples := make([]sensors.IMUSample, 0, n)
	deadline := time.Now().Add(10 * time.Second)
	for len(samples) < n {
		if ctx.Err() != nil {
			return estimator.Calibration{}, ctx.Err()
		}
		if time.Now().After(deadline) {
			return estimator.Calibration{}, errors.Errorf("calibration: only %d of %d samples", len(samples), n)
		}
		s, err := imu.Read()
		if err != nil {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		samples = append(samples, s)
	}
	return estimator.MeasureOffsets(samples), nil
}
