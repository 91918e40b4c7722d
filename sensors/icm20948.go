package sensors

import (
	"github.com/b3nn0/goflying/icm20948"
	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
	"github.com/kidoman/embd"
	"github.com/pkg/errors"
)

const (
	gyroRange  = 250  // gyroRange is the default range to use for the Gyro, deg/s.
	accelRange = 4    // accelRange is the default range to use for the Accel, g.
	updateFreq = 1000 // updateFreq is the rate at which to update the sensor values.
	gyroLPF    = 92   // Hz, above the rotor vibration band of small frames
)

// ICM20948 represents an InvenSense ICM-20948 attached to the I2C bus and
// satisfies the IMUReader interface. The driver already reports physical
// units, so samples carry unit scale factors.
type ICM20948 struct {
	mpu    *icm20948.ICM20948
	latest common.Latest[IMUSample]
	errs   common.Latest[error]
	done   chan struct{}
}

// NewICM20948 returns an instance of the ICM-20948 IMUReader, connected to an
// ICM-20948 attached on the I2C bus with either valid address.
func NewICM20948(i2cbus *embd.I2CBus) (*ICM20948, error) {
	mpu, err := icm20948.NewICM20948(i2cbus, gyroRange, accelRange, updateFreq, false, false)
	if err != nil {
		return nil, errors.Wrap(err, "icm20948 init")
	}

	if err := mpu.SetGyroLPF(gyroLPF); err != nil {
		return nil, errors.Wrap(err, "icm20948 gyro lpf")
	}
	if err := mpu.SetAccelLPF(gyroLPF); err != nil {
		return nil, errors.Wrap(err, "icm20948 accel lpf")
	}

	m := &ICM20948{mpu: mpu, done: make(chan struct{})}
	go m.reader()
	return m, nil
}

// reader moves driver samples into the single-slot mailbox; the flight loop
// takes at most one per tick.
func (m *ICM20948) reader() {
	for {
		select {
		case <-m.done:
			return
		case data, ok := <-m.mpu.C:
			if !ok {
				return
			}
			if data.GAError != nil {
				m.errs.Publish(data.GAError)
				continue
			}
			m.latest.Publish(IMUSample{
				T:          data.T,
				Gyro:       vehicle.Axis3{X: data.G1, Y: data.G2, Z: data.G3},
				Accel:      vehicle.Axis3{X: data.A1, Y: data.A2, Z: data.A3},
				GyroScale:  1,
				AccelScale: 1,
			})
		}
	}
}

// Read returns the newest sample since the last call.
func (m *ICM20948) Read() (IMUSample, error) {
	if s, ok := m.latest.Take(); ok {
		return s, nil
	}
	if err, ok := m.errs.Take(); ok {
		return IMUSample{}, errors.Wrap(err, "icm20948 read")
	}
	return IMUSample{}, ErrNotReady
}

// Close stops reading the MPU.
func (m *ICM20948) Close() {
	close(m.done)
	m.mpu.CloseMPU()
}
