package sensors

import (
	"time"

	"github.com/pkg/errors"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

// https://www.olimex.com/Products/Modules/Sensors/MOD-MPU6050/resources/RM-MPU-60xxA_rev_4.pdf
const (
	MPU6050Address = 0x68

	mpuSmplrtDiv   = 0x19
	mpuConfig      = 0x1A
	mpuGyroConfig  = 0x1B
	mpuAccelConfig = 0x1C
	mpuAccelXoutH  = 0x3B // accel, temperature, gyro: 14 bytes big-endian
	mpuPwrMgmt1    = 0x6B

	mpuDLPF188Hz  = 0x01
	mpuClockPLLX  = 0x01
	mpuMotionSize = 14

	// MPU6050Poll reads at the flight loop rate; the DLPF output updates at 1 kHz.
	MPU6050Poll = 500 * time.Microsecond
)

// regBus is the part of embd.I2CBus the MPU-6050 needs.
type regBus interface {
	ReadFromReg(addr, reg byte, value []byte) error
	WriteByteToReg(addr, reg, value byte) error
}

// MPU6050 represents an InvenSense MPU-6050 on the I2C bus and satisfies the
// IMUReader interface. It reports raw counts at ±250 deg/s and ±2 g full
// scale.
type MPU6050 struct {
	bus    regBus
	addr   byte
	latest common.Latest[IMUSample]
	errs   common.Latest[error]
	quit   chan struct{}
	done   chan struct{}
}

// NewMPU6050 wakes the sensor, sets its ranges and starts polling it every
// poll interval.
func NewMPU6050(bus regBus, addr byte, poll time.Duration) (*MPU6050, error) {
	setup := []struct{ reg, value byte }{
		{mpuPwrMgmt1, mpuClockPLLX}, // wake, gyro X clock
		{mpuConfig, mpuDLPF188Hz},
		{mpuSmplrtDiv, 0},
		{mpuGyroConfig, 0},  // FS_SEL 0: 250 deg/s
		{mpuAccelConfig, 0}, // AFS_SEL 0: 2 g
	}
	for _, s := range setup {
		if err := bus.WriteByteToReg(addr, s.reg, s.value); err != nil {
			return nil, errors.Wrapf(err, "mpu6050 write reg 0x%02x", s.reg)
		}
	}
	d := &MPU6050{
		bus:  bus,
		addr: addr,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.run(poll)
	return d, nil
}

func (d *MPU6050) run(poll time.Duration) {
	defer close(d.done)
	timer := time.NewTicker(poll)
	defer timer.Stop()
	var buf [mpuMotionSize]byte
	for {
		select {
		case <-d.quit:
			return
		case t := <-timer.C:
			if err := d.bus.ReadFromReg(d.addr, mpuAccelXoutH, buf[:]); err != nil {
				d.errs.Publish(err)
				continue
			}
			s := DecodeMPU6050(buf)
			s.T = t
			d.latest.Publish(s)
		}
	}
}

// DecodeMPU6050 converts one burst read of the motion registers to a sample
// of raw counts.
func DecodeMPU6050(buf [mpuMotionSize]byte) IMUSample {
	word := func(i int) float64 {
		return float64(int16(uint16(buf[i])<<8 | uint16(buf[i+1])))
	}
	return IMUSample{
		Accel:      vehicle.Axis3{X: word(0), Y: word(2), Z: word(4)},
		Gyro:       vehicle.Axis3{X: word(8), Y: word(10), Z: word(12)},
		GyroScale:  131,
		AccelScale: 16384,
	}
}

// Read returns the newest sample since the last call.
func (d *MPU6050) Read() (IMUSample, error) {
	if s, ok := d.latest.Take(); ok {
		return s, nil
	}
	if err, ok := d.errs.Take(); ok {
		return IMUSample{}, errors.Wrap(err, "mpu6050 read")
	}
	return IMUSample{}, ErrNotReady
}

func (d *MPU6050) Close() {
	close(d.quit)
	<-d.done
	d.bus.WriteByteToReg(d.addr, mpuPwrMgmt1, 0x40) // sleep
}
