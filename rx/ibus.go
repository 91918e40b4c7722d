package rx

import (
	"encoding/binary"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// FlySky iBus: 0x20 0x40, fourteen little-endian channels, then a
// little-endian checksum of 0xFFFF minus the sum of the preceding bytes.
const (
	ibusHeader1    = 0x20
	ibusHeader2    = 0x40
	ibusFrameSize  = 32
	ibusChannels   = 14
	ibusBaud       = 115200
	ibusChecksumAt = ibusFrameSize - 2
)

var (
	ErrChecksum   = errors.New("ibus: checksum mismatch")
	ErrShortFrame = errors.New("ibus: short frame")
)

// DecodeIBus parses one complete frame.
func DecodeIBus(frame []byte) ([ibusChannels]uint16, error) {
	var ch [ibusChannels]uint16
	if len(frame) < ibusFrameSize {
		return ch, ErrShortFrame
	}
	if frame[0] != ibusHeader1 || frame[1] != ibusHeader2 {
		return ch, errors.Errorf("ibus: bad header %#02x %#02x", frame[0], frame[1])
	}
	sum := uint16(0xFFFF)
	for _, b := range frame[:ibusChecksumAt] {
		sum -= uint16(b)
	}
	if sum != binary.LittleEndian.Uint16(frame[ibusChecksumAt:]) {
		return ch, ErrChecksum
	}
	for i := range ch {
		ch[i] = binary.LittleEndian.Uint16(frame[2+2*i:])
	}
	return ch, nil
}

// IBusDecoder resynchronizes on the header and assembles frames one byte at
// a time.
type IBusDecoder struct {
	buf [ibusFrameSize]byte
	n   int
	Bad uint64
}

// Feed consumes one byte and returns the channels when it completes a valid
// frame.
func (d *IBusDecoder) Feed(b byte) ([ibusChannels]uint16, bool) {
	switch {
	case d.n == 0 && b != ibusHeader1:
		return [ibusChannels]uint16{}, false
	case d.n == 1 && b != ibusHeader2:
		d.n = 0
		if b == ibusHeader1 {
			d.buf[0] = b
			d.n = 1
		}
		return [ibusChannels]uint16{}, false
	}

	d.buf[d.n] = b
	d.n++
	if d.n < ibusFrameSize {
		return [ibusChannels]uint16{}, false
	}
	d.n = 0
	ch, err := DecodeIBus(d.buf[:])
	if err != nil {
		d.Bad++
		return ch, false
	}
	return ch, true
}

// IBus reads frames from a serial port and publishes them to its Link.
type IBus struct {
	*Link
	port io.ReadCloser
	dec  IBusDecoder
}

// OpenIBus opens the receiver UART, e.g. /dev/serial0.
func OpenIBus(device string, link *Link) (*IBus, error) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: ibusBaud})
	if err != nil {
		return nil, errors.Wrapf(err, "open ibus receiver on %s", device)
	}
	r := NewIBus(port, link)
	return r, nil
}

// NewIBus starts decoding from any byte stream.
func NewIBus(port io.ReadCloser, link *Link) *IBus {
	r := &IBus{Link: link, port: port}
	go r.reader()
	return r
}

func (r *IBus) reader() {
	buf := make([]byte, 64)
	for {
		n, err := r.port.Read(buf)
		for _, b := range buf[:n] {
			if ch, ok := r.dec.Feed(b); ok {
				var frame [MaxChannels]uint16
				copy(frame[:], ch[:MaxChannels])
				r.Publish(frame)
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("Receiver: ibus read: %s\n", err.Error())
			}
			return
		}
	}
}

func (r *IBus) Close() error {
	return r.port.Close()
}
