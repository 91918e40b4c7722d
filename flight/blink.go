package flight

import (
	"time"

	"github.com/b3nn0/hoverfly/vehicle"
)

// LED is a status light.
type LED interface {
	Set(on bool)
}

const (
	heartbeatPeriod = time.Second * 2 / 3 // 1.5 Hz
	failsafePeriod  = 4 * time.Second     // 0.25 Hz
)

// Blink drives led from the flight status: solid when armed, a slow blink in
// failsafe, otherwise a short 1.5 Hz heartbeat flash.
func Blink(led LED) Task {
	var last, set bool
	return TaskFunc(func(s vehicle.Snapshot) {
		on := LEDPattern(s)
		if !set || on != last {
			led.Set(on)
			last, set = on, true
		}
	})
}

func LEDPattern(s vehicle.Snapshot) bool {
	t := time.Duration(s.Time.UnixNano())
	if t < 0 {
		t = -t
	}
	switch {
	case s.Armed:
		return true
	case s.Failsafe:
		return t%failsafePeriod < failsafePeriod/2
	default:
		return t%heartbeatPeriod < heartbeatPeriod/5
	}
}
