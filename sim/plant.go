// Package sim closes the flight loop around the dynamics model: it accepts
// motor commands like an ESC and answers like the IMU, rangefinder and
// receiver.
package sim

import (
	"sync"
	"time"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/dynamics"
	"github.com/b3nn0/hoverfly/estimator"
	"github.com/b3nn0/hoverfly/sensors"
	"github.com/b3nn0/hoverfly/vehicle"
)

// DefaultMaxOmega puts DIYQuad hover near half throttle, rad/s.
const DefaultMaxOmega = 150.0

// Plant steps the dynamics model once per motor write, in substeps covering
// one control period.
type Plant struct {
	MaxOmega float64

	mu       sync.Mutex
	dyn      *dynamics.Dynamics
	geom     vehicle.Geometry
	substeps int
	omegas   []float64
	elapsed  time.Duration
	period   time.Duration
}

func NewPlant(params vehicle.Params, geom vehicle.Geometry, period time.Duration, substeps int) *Plant {
	if substeps < 1 {
		substeps = 1
	}
	dt := period.Seconds() / float64(substeps)
	return &Plant{
		MaxOmega: DefaultMaxOmega,
		dyn:      dynamics.New(params, dt),
		geom:     geom,
		substeps: substeps,
		omegas:   make([]float64, geom.Count()),
		period:   period,
	}
}

// Write implements esc.Writer.
func (p *Plant) Write(m vehicle.Motors) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.omegas {
		p.omegas[i] = common.Constrain(m[i], 0, 1) * p.MaxOmega
	}
	for i := 0; i < p.substeps; i++ {
		p.dyn.Update(p.omegas, p.geom)
	}
	p.elapsed += p.period
	return nil
}

// Read implements sensors.IMUReader with MPU-6x00 style raw counts.
func (p *Plant) Read() (sensors.IMUSample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rates := p.dyn.BodyRates()
	force := p.dyn.SpecificForce()
	gs, as := estimator.GyroScale250DPS, estimator.AccelScale2G
	return sensors.IMUSample{
		T: time.Time{}.Add(p.elapsed),
		Gyro: vehicle.Axis3{
			X: common.Rad2Deg(rates.X) * gs,
			Y: common.Rad2Deg(rates.Y) * gs,
			Z: common.Rad2Deg(rates.Z) * gs,
		},
		Accel:      vehicle.Axis3{X: force.X * as, Y: force.Y * as, Z: force.Z * as},
		GyroScale:  gs,
		AccelScale: as,
	}, nil
}

// Distance implements sensors.RangeReader.
func (p *Plant) Distance() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dyn.Range(), nil
}

func (p *Plant) Close() {}

// Estimate reports the model state, so the simulated vehicle flies on
// ground truth rather than fused sensor readings.
func (p *Plant) Estimate(dt float64, gyro, accel vehicle.Axis3, rangefinder float64) vehicle.State {
	return p.Truth()
}

// Truth is the model state, for comparison with the estimate.
func (p *Plant) Truth() vehicle.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dyn.State()
}

func (p *Plant) Airborne() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dyn.Airborne()
}
