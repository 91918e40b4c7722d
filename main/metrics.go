/*
	Copyright (c) 2024 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	metrics.go: Prometheus metrics for the control loop, motors and board.
*/

package main

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/b3nn0/hoverfly/flight"
	"github.com/b3nn0/hoverfly/vehicle"
)

var (
	loopTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hoverfly_loop_ticks_total",
		Help: "Control loop ticks.",
	})

	loopOverruns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hoverfly_loop_overruns_total",
		Help: "Ticks whose work exceeded the loop period.",
	})

	loopStale = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hoverfly_loop_stale_ticks_total",
		Help: "Ticks without a fresh IMU sample.",
	})

	loopBusy = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoverfly_loop_busy_seconds",
		Help:    "Time spent working in a tick, excluding the wait.",
		Buckets: prometheus.ExponentialBuckets(25e-6, 2, 8),
	})

	failsafeEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hoverfly_failsafe_events_total",
		Help: "Receiver failsafe events.",
	})

	armedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hoverfly_armed",
		Help: "1 while armed.",
	})

	motorGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hoverfly_motor_command",
		Help: "Normalized motor command.",
	}, []string{"motor"})

	altitudeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hoverfly_altitude_meters",
		Help: "Estimated altitude.",
	})

	currentTemp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "current_temp",
		Help: "Current CPU temp.",
	})

	currentPWM = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "current_pwm",
		Help: "Current fan PWM value.",
	})
)

func init() {
	prometheus.MustRegister(loopTicks, loopOverruns, loopStale, loopBusy, failsafeEvents,
		armedGauge, motorGauge, altitudeGauge, currentTemp, currentPWM)
}

// loopStats counts per-tick events for metrics and the status page. It is
// written only by the flight loop.
type loopStats struct {
	ticks     atomic.Uint64
	overruns  atomic.Uint64
	failsafes atomic.Uint64
	failsafe  bool
}

func (l *loopStats) ObserveTick(s flight.TickStats) {
	l.ticks.Add(1)
	loopTicks.Inc()
	loopBusy.Observe(s.Busy.Seconds())
	if s.Overrun {
		l.overruns.Add(1)
		loopOverruns.Inc()
	}
	if !s.Fresh {
		loopStale.Inc()
	}
	if s.Failsafe && !l.failsafe {
		l.failsafes.Add(1)
		failsafeEvents.Inc()
	}
	l.failsafe = s.Failsafe
}

// updateMotorMetrics runs as a sub-rate flight task.
func updateMotorMetrics(s vehicle.Snapshot) {
	if s.Armed {
		armedGauge.Set(1)
	} else {
		armedGauge.Set(0)
	}
	for i, m := range s.Motors {
		motorGauge.WithLabelValues(strconv.Itoa(i + 1)).Set(m)
	}
	altitudeGauge.Set(s.State.Z)
}
