// Package esc drives the electronic speed controllers.
package esc

import (
	"time"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
	"github.com/kidoman/embd"
	"github.com/kidoman/embd/controller/pca9685"
	"github.com/pkg/errors"
)

// Writer accepts one set of normalized motor commands per tick.
type Writer interface {
	Write(m vehicle.Motors) error
}

// Protocol maps a normalized command onto an ESC pulse width.
type Protocol struct {
	Name     string
	MinPulse time.Duration
	MaxPulse time.Duration
	RateHz   int
}

var (
	StandardPWM = Protocol{Name: "pwm", MinPulse: 1000 * time.Microsecond, MaxPulse: 2000 * time.Microsecond, RateHz: 400}
	OneShot125  = Protocol{Name: "oneshot125", MinPulse: 125 * time.Microsecond, MaxPulse: 250 * time.Microsecond, RateHz: 1000}
)

// ProtocolByName returns the named protocol, defaulting to StandardPWM.
func ProtocolByName(name string) Protocol {
	if name == OneShot125.Name {
		return OneShot125
	}
	return StandardPWM
}

// Pulse returns the pulse width for a command in [0,1]; values outside are
// clamped.
func (p Protocol) Pulse(m float64) time.Duration {
	m = common.Constrain(m, 0, 1)
	return p.MinPulse + time.Duration(m*float64(p.MaxPulse-p.MinPulse))
}

// pulseWriter sets one output channel to a pulse width in microseconds.
type pulseWriter interface {
	SetMicroseconds(channel, us int) error
}

// servoBank addresses the expander's outputs by channel number.
type servoBank struct {
	dev *pca9685.PCA9685
}

var _ pulseWriter = servoBank{}

func (b servoBank) SetMicroseconds(channel, us int) error {
	return b.dev.ServoChannel(channel).SetMicroseconds(us)
}

// PCA9685 drives four ESCs from a PCA9685 PWM expander on the I2C bus.
type PCA9685 struct {
	dev      pulseWriter
	proto    Protocol
	channels [vehicle.MotorCount]int
}

// DefaultPCA9685Addr is the factory I2C address of the expander.
const DefaultPCA9685Addr = 0x40

func NewPCA9685(bus embd.I2CBus, addr byte, proto Protocol, channels [vehicle.MotorCount]int) *PCA9685 {
	dev := pca9685.New(bus, addr)
	dev.Freq = proto.RateHz
	return newPCA9685(servoBank{dev: dev}, proto, channels)
}

func newPCA9685(dev pulseWriter, proto Protocol, channels [vehicle.MotorCount]int) *PCA9685 {
	return &PCA9685{dev: dev, proto: proto, channels: channels}
}

func (e *PCA9685) Write(m vehicle.Motors) error {
	for i, v := range m {
		us := int(e.proto.Pulse(v) / time.Microsecond)
		if err := e.dev.SetMicroseconds(e.channels[i], us); err != nil {
			return errors.Wrapf(err, "esc: motor %d on channel %d", i+1, e.channels[i])
		}
	}
	return nil
}

// Stop commands the minimum pulse on every motor.
func (e *PCA9685) Stop() error {
	return e.Write(vehicle.Motors{})
}
