// Package rx reads pilot commands from an RC receiver.
package rx

import (
	"sync"
	"time"
)

// MaxChannels is the number of channels the flight core consumes.
const MaxChannels = 6

// DefaultTimeout is how long the link may stay silent before failsafe.
const DefaultTimeout = 250 * time.Millisecond

// Frame is one set of channel pulse widths in microseconds (1000-2000).
type Frame struct {
	Channels [MaxChannels]uint16
	Failsafe bool
}

// Receiver returns the newest frame without blocking.
type Receiver interface {
	Read() Frame
}

// Link tracks the newest decoded frame and raises failsafe when frames stop
// arriving. Decoders publish into it from their own goroutine.
type Link struct {
	Timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	frame  Frame
	last   time.Time
	frames uint64
}

func NewLink(timeout time.Duration) *Link {
	return &Link{Timeout: timeout, now: time.Now}
}

// Publish records a valid frame.
func (l *Link) Publish(channels [MaxChannels]uint16) {
	l.mu.Lock()
	l.frame.Channels = channels
	l.last = l.now()
	l.frames++
	l.mu.Unlock()
}

// Read implements Receiver. Before the first frame, and whenever the link
// has been silent for longer than Timeout, the frame is flagged failsafe.
func (l *Link) Read() Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := l.frame
	f.Failsafe = l.frames == 0 || l.now().Sub(l.last) > l.Timeout
	return f
}

// Frames is the number of valid frames received so far.
func (l *Link) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}
