/*
	Copyright (c) 2024 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	thermal.go: Cooling fan speed control based on CPU temperature. The flight
	loop pins a core, so the board runs warm.
*/

package main

import (
	"context"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/felixge/pidctrl"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/b3nn0/hoverfly/common"
)

const (
	/* Maximum duty for PWM controller */
	pwmDutyMax      = 100
	pwmFanFrequency = 3000

	// how often to update
	fanUpdateDelay = 5 * time.Second

	// how long to run the fan at full duty to get it spinning
	fanKickDelay = 500 * time.Millisecond
)

type fanStatus struct {
	TempCurrent    float64
	PWMDutyCurrent uint32
}

var fanState atomic.Value // fanStatus

// fanTarget carries a new temperature target after a settings reload.
var fanTarget = make(chan float64, 1)

// fanDuty turns a PID output (percent) into the hardware duty cycle. Outputs
// above zero start at the configured minimum, below which the fan stalls.
func fanDuty(out float64, dutyMin uint32) uint32 {
	if out <= 5.0 {
		return 0
	}
	mappedMinimum := common.MapRange(float64(dutyMin), 0, 100, 0, pwmDutyMax)
	return uint32(math.Ceil(common.MapRange(out, 0, 100, mappedMinimum, pwmDutyMax)))
}

func fanControl(ctx context.Context, pin rpio.Pin, tempTarget float64, dutyMin uint32) {
	var temp atomic.Value
	temp.Store(0.0)
	go common.CpuTempMonitor(ctx, time.Second, func(cpuTemp float32) {
		temp.Store(float64(cpuTemp))
		currentTemp.Set(float64(cpuTemp))
	})

	pin.Mode(rpio.Pwm)
	pin.Freq(pwmFanFrequency)
	defer pin.DutyCycle(pwmDutyMax, pwmDutyMax) // full speed when we bail out

	pidControl := pidctrl.NewPIDController(0.2, 0.2, 0.1)
	pidControl.SetOutputLimits(-100, 0.0)
	pidControl.Set(tempTarget)

	ticker := time.NewTicker(fanUpdateDelay)
	defer ticker.Stop()
	lastOut := 0.0
	for {
		current := temp.Load().(float64)
		out := -pidControl.UpdateDuration(current, fanUpdateDelay)

		if lastOut <= 5.0 && out > 5.0 {
			logDbg("Starting up fan for %v\n", fanKickDelay)
			pin.DutyCycle(pwmDutyMax, pwmDutyMax)
			time.Sleep(fanKickDelay)
		}
		duty := fanDuty(out, dutyMin)
		pin.DutyCycle(duty, pwmDutyMax)
		currentPWM.Set(float64(duty))
		fanState.Store(fanStatus{TempCurrent: current, PWMDutyCurrent: duty})
		lastOut = out

		select {
		case <-ctx.Done():
			log.Printf("fan control stopped\n")
			return
		case <-ticker.C:
		case target := <-fanTarget:
			log.Printf("fan target now %.1f C\n", target)
			pidControl.Set(target)
			lastOut = 0 // go through a fan start again
		}
	}
}
