package esc

import (
	"errors"
	"testing"
	"time"

	"github.com/b3nn0/hoverfly/vehicle"
	"github.com/kidoman/embd"
)

func TestPulse(t *testing.T) {
	cases := []struct {
		p    Protocol
		m    float64
		want time.Duration
	}{
		{StandardPWM, 0, 1000 * time.Microsecond},
		{StandardPWM, 1, 2000 * time.Microsecond},
		{StandardPWM, 0.5, 1500 * time.Microsecond},
		{StandardPWM, -1, 1000 * time.Microsecond},
		{OneShot125, 0, 125 * time.Microsecond},
		{OneShot125, 1, 250 * time.Microsecond},
		{OneShot125, 7, 250 * time.Microsecond},
	}
	for _, c := range cases {
		if got := c.p.Pulse(c.m); got != c.want {
			t.Errorf("%s Pulse(%v) = %v, want %v", c.p.Name, c.m, got, c.want)
		}
	}
}

func TestProtocolByName(t *testing.T) {
	if ProtocolByName("oneshot125") != OneShot125 {
		t.Error("oneshot125 not found")
	}
	if ProtocolByName("anything") != StandardPWM {
		t.Error("unknown names should fall back to standard PWM")
	}
}

type fakePWM struct {
	us  map[int]int
	err error
}

func (f *fakePWM) SetMicroseconds(channel, us int) error {
	if f.err != nil {
		return f.err
	}
	f.us[channel] = us
	return nil
}

func TestPCA9685Write(t *testing.T) {
	dev := &fakePWM{us: map[int]int{}}
	e := newPCA9685(dev, StandardPWM, [vehicle.MotorCount]int{0, 1, 4, 5})
	if err := e.Write(vehicle.Motors{0, 0.25, 0.5, 1}); err != nil {
		t.Fatal(err)
	}
	want := map[int]int{0: 1000, 1: 1250, 4: 1500, 5: 2000}
	for ch, us := range want {
		if dev.us[ch] != us {
			t.Errorf("channel %d = %d us, want %d", ch, dev.us[ch], us)
		}
	}
	if err := e.Stop(); err != nil || dev.us[5] != 1000 {
		t.Errorf("stop: err=%v us=%d", err, dev.us[5])
	}

	dev.err = errors.New("nack")
	if err := e.Write(vehicle.Motors{}); err == nil {
		t.Error("driver error not returned")
	}
}

// regBus records register writes. Only the calls the PCA9685 driver makes
// are implemented.
type regBus struct {
	embd.I2CBus
	regs map[byte]byte
}

func (b *regBus) ReadByteFromReg(addr, reg byte) (byte, error) {
	return b.regs[reg], nil
}

func (b *regBus) WriteByteToReg(addr, reg, value byte) error {
	b.regs[reg] = value
	return nil
}

func TestPCA9685Registers(t *testing.T) {
	bus := &regBus{regs: map[byte]byte{}}
	e := NewPCA9685(bus, DefaultPCA9685Addr, StandardPWM, [vehicle.MotorCount]int{0, 1, 4, 5})
	if err := e.Write(vehicle.Motors{0, 0, 0.5, 0}); err != nil {
		t.Fatal(err)
	}

	// 25 MHz / (4096 * 400 Hz), rounded, minus one
	if got := bus.regs[0xFE]; got != 14 {
		t.Errorf("prescale = %d, want 14", got)
	}

	// 1500 us at 400 Hz is 2457 of 4096 counts; channel 4 OFF_L/OFF_H at 0x18/0x19
	off := int(bus.regs[0x18]) | int(bus.regs[0x19])<<8
	if off != 2457 {
		t.Errorf("channel 4 off time = %d, want 2457", off)
	}
	// 1000 us is 1638 counts
	off = int(bus.regs[0x08]) | int(bus.regs[0x09])<<8
	if off != 1638 {
		t.Errorf("channel 0 off time = %d, want 1638", off)
	}
}
