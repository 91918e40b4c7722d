package flight

import (
	"time"

	"github.com/pkg/errors"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/rx"
	"github.com/b3nn0/hoverfly/vehicle"
)

// ChannelMap assigns receiver channels to functions.
type ChannelMap struct {
	Throttle int
	Roll     int
	Pitch    int
	Yaw      int
	Arm      int
}

// Config holds the loop timing and stick handling parameters.
type Config struct {
	Period time.Duration // target tick period
	MaxDt  time.Duration // largest estimator step after a stall

	ThrottleDown      float64 // thrust below this keeps the controllers reset
	PitchRollPrescale float64 // full stick roll and pitch, degrees or deg/s
	YawPrescale       float64 // full stick yaw rate, deg/s

	RxMin float64 // pulse width in microseconds
	RxMax float64

	ArmThrottleMax uint16 // throttle must be below this to arm
	ArmSwitchMin   uint16 // arm switch above this arms, below disarms

	Channels ChannelMap
}

func DefaultConfig() Config {
	return Config{
		Period:            500 * time.Microsecond,
		MaxDt:             10 * time.Millisecond,
		ThrottleDown:      0.06,
		PitchRollPrescale: 30,
		YawPrescale:       160,
		RxMin:             1000,
		RxMax:             2000,
		ArmThrottleMax:    1050,
		ArmSwitchMin:      1500,
		Channels:          ChannelMap{Throttle: 0, Roll: 1, Pitch: 2, Yaw: 3, Arm: 4},
	}
}

func (c Config) validate() error {
	if c.Period <= 0 {
		return errors.Errorf("invalid loop period %v", c.Period)
	}
	if c.MaxDt < c.Period {
		return errors.Errorf("max dt %v shorter than loop period %v", c.MaxDt, c.Period)
	}
	if c.RxMax <= c.RxMin {
		return errors.Errorf("invalid receiver range %v..%v", c.RxMin, c.RxMax)
	}
	for _, ch := range []int{c.Channels.Throttle, c.Channels.Roll, c.Channels.Pitch, c.Channels.Yaw, c.Channels.Arm} {
		if ch < 0 || ch >= rx.MaxChannels {
			return errors.Errorf("receiver channel %d out of range", ch)
		}
	}
	return nil
}

// Demands maps a receiver frame to pilot demands: thrust in [0,1], roll and
// pitch in ±PitchRollPrescale, yaw in ±YawPrescale.
func (c Config) Demands(f rx.Frame) vehicle.Demands {
	ch := func(i int) float64 {
		return common.Constrain(float64(f.Channels[i]), c.RxMin, c.RxMax)
	}
	return vehicle.Demands{
		Thrust: common.MapRange(ch(c.Channels.Throttle), c.RxMin, c.RxMax, 0, 1),
		Roll:   common.MapRange(ch(c.Channels.Roll), c.RxMin, c.RxMax, -1, 1) * c.PitchRollPrescale,
		Pitch:  common.MapRange(ch(c.Channels.Pitch), c.RxMin, c.RxMax, -1, 1) * c.PitchRollPrescale,
		Yaw:    common.MapRange(ch(c.Channels.Yaw), c.RxMin, c.RxMax, -1, 1) * c.YawPrescale,
	}
}
