// Package telemetry moves flight snapshots off the control loop: to web
// clients over a websocket and to an sqlite flight log.
package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/net/websocket"

	"github.com/b3nn0/hoverfly/vehicle"
)

// Message is the JSON form of a snapshot sent to web clients.
type Message struct {
	Tick     uint64    `json:"tick"`
	Time     time.Time `json:"time"`
	Armed    bool      `json:"armed"`
	Failsafe bool      `json:"failsafe"`

	Phi    float64 `json:"phi"`
	Theta  float64 `json:"theta"`
	Psi    float64 `json:"psi"`
	DPhi   float64 `json:"dphi"`
	DTheta float64 `json:"dtheta"`
	DPsi   float64 `json:"dpsi"`
	Z      float64 `json:"z"`
	DZ     float64 `json:"dz"`

	Thrust float64 `json:"thrust"`
	Roll   float64 `json:"roll"`
	Pitch  float64 `json:"pitch"`
	Yaw    float64 `json:"yaw"`

	Motors [vehicle.MotorCount]float64 `json:"motors"`
}

func NewMessage(s vehicle.Snapshot) Message {
	return Message{
		Tick:     s.Tick,
		Time:     s.Time,
		Armed:    s.Armed,
		Failsafe: s.Failsafe,
		Phi:      s.State.Phi,
		Theta:    s.State.Theta,
		Psi:      s.State.Psi,
		DPhi:     s.State.DPhi,
		DTheta:   s.State.DTheta,
		DPsi:     s.State.DPsi,
		Z:        s.State.Z,
		DZ:       s.State.DZ,
		Thrust:   s.Demands.Thrust,
		Roll:     s.Demands.Roll,
		Pitch:    s.Demands.Pitch,
		Yaw:      s.Demands.Yaw,
		Motors:   s.Motors,
	}
}

// Broadcaster fans messages out to every connected websocket. Sockets that
// fail a write are dropped. Only the writer goroutine ever blocks on a
// client; the methods used from the control loop never take socketsMu.
type Broadcaster struct {
	sockets   []*websocket.Conn
	socketsMu sync.Mutex
	clients   atomic.Int32
	messages  chan []byte
	dropped   atomic.Uint64

	closeMu sync.RWMutex
	closed  bool
}

func NewBroadcaster() *Broadcaster {
	ret := &Broadcaster{
		sockets:  make([]*websocket.Conn, 0),
		messages: make(chan []byte, 64),
	}
	go ret.writer()
	return ret
}

// Send queues msg without blocking. When the queue is full the message is
// dropped.
func (b *Broadcaster) Send(msg []byte) {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.messages <- msg:
	default:
		b.dropped.Add(1)
	}
}

// Run implements flight.Task.
func (b *Broadcaster) Run(s vehicle.Snapshot) {
	if b.Clients() == 0 {
		return
	}
	msg, err := json.Marshal(NewMessage(s))
	if err != nil {
		return
	}
	b.Send(msg)
}

func (b *Broadcaster) AddSocket(sock *websocket.Conn) {
	b.socketsMu.Lock()
	b.sockets = append(b.sockets, sock)
	b.clients.Store(int32(len(b.sockets)))
	b.socketsMu.Unlock()
}

func (b *Broadcaster) Clients() int {
	return int(b.clients.Load())
}

func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Handler accepts websocket clients. Incoming data is discarded; the
// connection is held until the client goes away.
func (b *Broadcaster) Handler() http.Handler {
	return websocket.Server{
		Handler: websocket.Handler(func(conn *websocket.Conn) {
			b.AddSocket(conn)
			io.Copy(io.Discard, conn)
		}),
	}
}

func (b *Broadcaster) Close() {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.messages)
	}
}

func (b *Broadcaster) writer() {
	for msg := range b.messages {
		b.socketsMu.Lock()
		socks := append([]*websocket.Conn(nil), b.sockets...)
		b.socketsMu.Unlock()

		var dead []*websocket.Conn
		for _, sock := range socks {
			err := sock.SetWriteDeadline(time.Now().Add(time.Second))
			_, err2 := sock.Write(msg)
			if err != nil || err2 != nil {
				sock.Close()
				dead = append(dead, sock)
			}
		}
		if len(dead) > 0 {
			b.removeSockets(dead)
		}
	}
	b.socketsMu.Lock()
	for _, sock := range b.sockets {
		sock.Close()
	}
	b.sockets = nil
	b.clients.Store(0)
	b.socketsMu.Unlock()
}

// removeSockets keeps every socket not in dead, including ones added while
// the writer was busy.
func (b *Broadcaster) removeSockets(dead []*websocket.Conn) {
	b.socketsMu.Lock()
	defer b.socketsMu.Unlock()
	p := make([]*websocket.Conn, 0, len(b.sockets)) // sockets still writeable
	for _, sock := range b.sockets {
		if !slices.Contains(dead, sock) {
			p = append(p, sock)
		}
	}
	b.sockets = p
	b.clients.Store(int32(len(p)))
}
