package common

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

const InvalidCpuTemp = float32(-99.0)

const cpuTempPath = "/sys/class/thermal/thermal_zone0/temp"

type CpuTempUpdateFunc func(cpuTemp float32)

// ReadCpuTemp parses a thermal zone file. Kernels report either millidegrees
// or plain degrees.
func ReadCpuTemp(path string) float32 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return InvalidCpuTemp
	}
	tInt, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return InvalidCpuTemp
	}
	if tInt > 1000 {
		return float32(tInt) / 1000.0
	}
	return float32(tInt)
}

/* CpuTempMonitor reads the board temperature once per interval and calls
the updater with every valid reading. Reading the sysfs file can hang on
some boards, so this runs on its own goroutine and never inside the flight
loop. */
func CpuTempMonitor(ctx context.Context, interval time.Duration, updater CpuTempUpdateFunc) {
	timer := time.NewTicker(interval)
	defer timer.Stop()
	for {
		if t := ReadCpuTemp(cpuTempPath); IsCPUTempValid(t) {
			updater(t)
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Check if CPU temperature is valid. Assume <= 0 is invalid.
func IsCPUTempValid(cpuTemp float32) bool {
	return cpuTemp > 0
}
