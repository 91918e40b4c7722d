package sensors

import (
	"encoding/binary"
	"io"
	"log"

	"github.com/b3nn0/hoverfly/common"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Benewake TFmini frames: 0x59 0x59, distance (cm), signal strength,
// two reserved bytes, then the low byte of the sum of the first eight.
const (
	tfminiHeader    = 0x59
	tfminiFrameSize = 9
	tfminiBaud      = 115200
	tfminiMinSignal = 100
	tfminiMaxCm     = 1200
)

var errTFMiniFrame = errors.New("tfmini: bad frame")

// DecodeTFMini returns the distance in meters carried by one frame.
func DecodeTFMini(frame []byte) (float64, error) {
	if len(frame) < tfminiFrameSize || frame[0] != tfminiHeader || frame[1] != tfminiHeader {
		return 0, errTFMiniFrame
	}
	var sum byte
	for _, b := range frame[:tfminiFrameSize-1] {
		sum += b
	}
	if sum != frame[tfminiFrameSize-1] {
		return 0, errors.Wrap(errTFMiniFrame, "checksum")
	}
	cm := binary.LittleEndian.Uint16(frame[2:])
	strength := binary.LittleEndian.Uint16(frame[4:])
	if strength < tfminiMinSignal || cm > tfminiMaxCm {
		return 0, ErrNotReady
	}
	return float64(cm) / 100.0, nil
}

// TFMini is a serial LiDAR rangefinder satisfying RangeReader.
type TFMini struct {
	port   io.ReadCloser
	latest common.Latest[float64]
}

// OpenTFMini opens the rangefinder UART, e.g. /dev/ttyAMA1.
func OpenTFMini(device string) (*TFMini, error) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: tfminiBaud})
	if err != nil {
		return nil, errors.Wrapf(err, "open tfmini on %s", device)
	}
	return NewTFMini(port), nil
}

func NewTFMini(port io.ReadCloser) *TFMini {
	r := &TFMini{port: port}
	go r.reader()
	return r
}

func (r *TFMini) reader() {
	var frame [tfminiFrameSize]byte
	n := 0
	buf := make([]byte, 32)
	for {
		cnt, err := r.port.Read(buf)
		for _, b := range buf[:cnt] {
			if n < 2 && b != tfminiHeader {
				n = 0
				continue
			}
			frame[n] = b
			n++
			if n == tfminiFrameSize {
				n = 0
				if d, err := DecodeTFMini(frame[:]); err == nil {
					r.latest.Publish(d)
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("Sensors: tfmini read: %s\n", err.Error())
			}
			return
		}
	}
}

// Distance returns the newest range since the last call.
func (r *TFMini) Distance() (float64, error) {
	if d, ok := r.latest.Take(); ok {
		return d, nil
	}
	return 0, ErrNotReady
}

func (r *TFMini) Close() {
	r.port.Close()
}
