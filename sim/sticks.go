package sim

import (
	"sync"

	"github.com/b3nn0/hoverfly/rx"
)

// Default channel layout: throttle, roll, pitch, yaw, arm, aux.
const (
	ChThrottle = iota
	ChRoll
	ChPitch
	ChYaw
	ChArm
	ChAux
)

// Sticks is a receiver whose channels are set programmatically.
type Sticks struct {
	mu    sync.Mutex
	frame rx.Frame
}

// NewSticks starts with throttle low, sticks centered and the arm switch
// off.
func NewSticks() *Sticks {
	return &Sticks{frame: rx.Frame{Channels: [rx.MaxChannels]uint16{1000, 1500, 1500, 1500, 1000, 1000}}}
}

func (s *Sticks) Read() rx.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Sticks) Set(channel int, us uint16) {
	if channel < 0 || channel >= rx.MaxChannels {
		return
	}
	s.mu.Lock()
	s.frame.Channels[channel] = us
	s.mu.Unlock()
}

func (s *Sticks) SetFailsafe(failsafe bool) {
	s.mu.Lock()
	s.frame.Failsafe = failsafe
	s.mu.Unlock()
}
