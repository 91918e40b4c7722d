/*
	Copyright (c) 2024 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	hoverfly.go: Flight controller daemon. Brings up the vehicle, runs the
	control loop and the management interface until told to stop.
*/

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
	"github.com/takama/daemon"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/estimator"
	"github.com/b3nn0/hoverfly/flight"
	"github.com/b3nn0/hoverfly/mixer"
	"github.com/b3nn0/hoverfly/pid"
	"github.com/b3nn0/hoverfly/telemetry"
)

const (
	// name of the service
	name        = "hoverfly"
	description = "multirotor flight controller"

	metricsHz = 10
)

var hoverflyVersion = "dev"

var stdlog, errlog *log.Logger

// buildController assembles the controller pipeline from the settings.
// Position corrects the angle demands, so it runs before Angle.
func buildController(s settings) pid.Controller {
	var stages pid.Pipeline
	if s.AltitudeHold {
		stages = append(stages, pid.NewAltitude(s.AltitudeGains))
	}
	if s.PositionHold {
		stages = append(stages, pid.NewPosition(s.PositionGains))
	}
	rate := pid.NewRate(s.RateGains)
	rate.ResetOnBigRate = true
	stages = append(stages, pid.NewAngle(s.AngleGains), rate, pid.NewYaw(s.YawGains))
	return stages
}

func buildMixer(s settings) flight.Mixer {
	return mixer.NewQuadX(s.MixerRollPitchScale, s.MixerYawScale)
}

func buildWaiter(s settings, clock flight.Clock) (flight.Waiter, func()) {
	switch s.WaitStrategy {
	case "sleep":
		return flight.SleepWaiter{Clock: clock}, func() {}
	case "ticker":
		ticker := time.NewTicker(s.loopPeriod())
		return flight.TickerWaiter{C: ticker.C}, ticker.Stop
	}
	return flight.SpinWaiter{Clock: clock}, func() {}
}

func runFlight(ctx context.Context, s settings, takeoff uint16) error {
	var vio *vehicleIO
	if s.Simulate {
		vio = initSimulation(s)
		if takeoff > 0 {
			go takeoffScript(ctx, simSticks, takeoff)
		}
	} else {
		var err error
		if vio, err = initHardware(s); err != nil {
			return errors.Wrap(err, "hardware init")
		}
		if s.FanPin > 0 {
			go fanControl(ctx, rpio.Pin(s.FanPin), s.FanTempTarget, s.FanPWMDutyMin)
		}
	}
	defer vio.close()

	cal := s.Calibration
	if s.CalibrationSamples > 0 && !s.Simulate {
		log.Printf("calibrating IMU, keep the vehicle level and still\n")
		measured, err := calibrate(ctx, vio.imu, s.CalibrationSamples)
		if err != nil {
			return err
		}
		cal = measured
		log.Printf("IMU offsets: gyro %+v deg/s, accel %+v g\n", cal.GyroOffset, cal.AccelOffset)
	}

	cfg := flight.DefaultConfig()
	cfg.Period = s.loopPeriod()
	if cfg.MaxDt < cfg.Period {
		cfg.MaxDt = 20 * cfg.Period
	}
	clock := flight.SystemClock{}
	waiter, stopWaiter := buildWaiter(s, clock)
	defer stopWaiter()

	est := vio.est
	if est == nil {
		est = estimator.NewComplementary(estimator.NewMadgwick(s.MadgwickBeta))
	}

	seq, err := flight.NewSequencer(cfg, flight.Parts{
		IMU:         vio.imu,
		Range:       vio.rng,
		Receiver:    vio.receiver,
		Calibration: cal,
		Estimator:   est,
		Controller:  buildController(s),
		Mixer:       buildMixer(s),
		ESC:         vio.esc,
		Clock:       clock,
		Waiter:      waiter,
	})
	if err != nil {
		return err
	}

	stats := &loopStats{}
	seq.AddObserver(stats)
	if err := seq.AddTask(metricsHz, flight.TaskFunc(updateMotorMetrics)); err != nil {
		return err
	}
	if vio.led != nil {
		if err := seq.AddTask(50, flight.Blink(vio.led)); err != nil {
			return err
		}
	}

	broadcast := telemetry.NewBroadcaster()
	defer broadcast.Close()
	if err := seq.AddTask(s.TelemetryHz, broadcast); err != nil {
		return err
	}

	var flightLog *telemetry.FlightLog
	if s.FlightLogHz > 0 {
		flightLog, err = telemetry.OpenFlightLog(flightLogFile)
		if err != nil {
			log.Printf("flight log disabled: %s\n", err.Error())
		} else {
			defer flightLog.Close()
			if err := seq.AddTask(s.FlightLogHz, flightLog); err != nil {
				return err
			}
		}
	}

	go managementInterface(ctx, &statusSource{
		uptime:    NewMonotonic(),
		stats:     stats,
		snapshot:  seq.Snapshot,
		broadcast: broadcast,
		flightLog: flightLog,
	})

	// The control loop owns this thread for its lifetime.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := seq.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Service has embedded daemon
type Service struct {
	daemon.Daemon
}

// Manage by daemon commands or run the daemon
func (service *Service) Manage() (string, error) {
	config := flag.String("config", configLocation, "Settings file")
	simulate := flag.Bool("sim", false, "Fly the simulated vehicle instead of the hardware")
	rate := flag.Int("rate", 0, "Control loop rate in Hz, overrides the settings file")
	wait := flag.String("wait", "", "Loop wait strategy: spin, sleep or ticker")
	takeoff := flag.Uint("takeoff", 0, "Simulation only: arm and set this throttle pulse width (us) after startup")
	debug := flag.Bool("debug", false, "Verbose logging")
	flag.Parse()

	usage := "Usage: " + name + " install | remove | start | stop | status"
	// if received any kind of command, do it
	if flag.NArg() > 0 {
		switch flag.Arg(0) {
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initLogging(ctx)
	log.Printf("Hoverfly %s starting.\n", hoverflyVersion)

	configLocation = *config
	readSettings()
	if *rate > 0 {
		globalSettings.LoopPeriodUS = 1000000 / *rate
	}
	if *wait != "" {
		globalSettings.WaitStrategy = *wait
	}
	if err := globalSettings.validate(); err != nil {
		return "", err
	}
	if *simulate {
		globalSettings.Simulate = true
	}
	if *debug {
		globalSettings.DEBUG = true
	}
	if !globalSettings.Simulate && !common.IsRunningAsRoot() {
		return "", errors.New("hardware access needs root")
	}

	// Set up channel on which to send signal notifications.
	// We must use a buffered channel or risk missing the signal
	// if we're not ready to receive when the signal is sent.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	done := make(chan error, 1)
	go func() {
		done <- runFlight(ctx, globalSettings, uint16(*takeoff))
	}()

	for {
		select {
		case killSignal := <-interrupt:
			log.Println("Got signal:", killSignal)
			if killSignal == syscall.SIGUSR1 {
				// Flight settings are fixed for the lifetime of the loop;
				// only the fan target is picked up.
				reloaded := loadSettings(configLocation)
				select {
				case fanTarget <- reloaded.FanTempTarget:
				default:
				}
				continue
			}
			cancel()
			if err := <-done; err != nil {
				return "", err
			}
			if killSignal == syscall.SIGINT {
				return "Daemon was interrupted by system signal", nil
			}
			return "Daemon was killed", nil
		case err := <-done:
			if err != nil {
				return "", err
			}
			return "Flight loop stopped", nil
		}
	}
}

func init() {
	stdlog = log.New(os.Stdout, "", 0)
	errlog = log.New(os.Stderr, "", 0)
}

func main() {
	srv, err := daemon.New(name, description, daemon.SystemDaemon)
	if err != nil {
		errlog.Println("Error: ", err)
		os.Exit(1)
	}
	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		errlog.Println(status, "\nError: ", err)
		os.Exit(1)
	}
	stdlog.Println(status)
}
