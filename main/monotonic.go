/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New"" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	monotonic.go: Uptime since start, independent of real time clock changes on the RPi.
*/

package main

import (
	"time"

	humanize "github.com/dustin/go-humanize"
)

type monotonic struct {
	start time.Time
}

func NewMonotonic() *monotonic {
	return &monotonic{start: time.Now()}
}

// Uptime uses the monotonic clock reading carried by start, so RTC steps
// (NTP, GPS) do not affect it.
func (m *monotonic) Uptime() time.Duration {
	return time.Since(m.start)
}

func (m *monotonic) HumanizeUptime() string {
	now := time.Now()
	return humanize.RelTime(now.Add(-m.Uptime()), now, "ago", "from now")
}
