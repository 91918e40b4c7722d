package flight

import (
	"log"

	"github.com/b3nn0/hoverfly/rx"
)

// Arming is the arm/disarm state machine, evaluated once per tick.
type Arming struct {
	armed     bool
	failsafe  bool
	failsafes uint64
}

// Update applies one receiver frame. A failsafe frame disarms on the same
// tick regardless of the sticks.
func (a *Arming) Update(f rx.Frame, cfg Config) {
	if f.Failsafe {
		if !a.failsafe {
			a.failsafes++
			log.Printf("Flight Info: receiver failsafe (armed=%t)\n", a.armed)
		}
		a.armed = false
		a.failsafe = true
		return
	}
	if a.failsafe {
		log.Printf("Flight Info: receiver link restored\n")
		a.failsafe = false
	}

	armSwitch := f.Channels[cfg.Channels.Arm]
	throttle := f.Channels[cfg.Channels.Throttle]
	switch {
	case !a.armed && armSwitch > cfg.ArmSwitchMin && throttle < cfg.ArmThrottleMax:
		a.armed = true
		log.Printf("Flight Info: armed\n")
	case a.armed && armSwitch < cfg.ArmSwitchMin:
		a.armed = false
		log.Printf("Flight Info: disarmed\n")
	}
}

func (a *Arming) Armed() bool { return a.armed }

func (a *Arming) Failsafe() bool { return a.failsafe }

func (a *Arming) Failsafes() uint64 { return a.failsafes }
