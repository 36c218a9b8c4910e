package wsserver

import (
	"encoding/binary"
	"io"
	"math"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/internal/dispatcher"
	"github.com/misaka00251/sherpa/internal/executor"
	"github.com/misaka00251/sherpa/internal/metrics"
	"github.com/misaka00251/sherpa/internal/recognizer"
	"github.com/misaka00251/sherpa/internal/registry"
	"github.com/misaka00251/sherpa/internal/samplepool"
)

// samples is the process-wide pool of scratch []float32 buffers used to
// decode binary frame payloads before the recognizer copies them into its
// own stream-owned storage (see Recognizer.Stream.AcceptWaveform).
var samples = samplepool.New()

const doneMessage = "Done"

// Conn is one WebSocket connection's Connection Executor: a dedicated
// single-worker executor serializing every frame write for this handle, a
// read loop feeding onMessage, and the stream state the recognizer owns on
// this connection's behalf. It implements registry.Sender.
type Conn struct {
	nc   net.Conn
	h    registry.Handle
	s    recognizer.Stream
	rec  recognizer.Recognizer
	reg  *registry.Registry
	disp *dispatcher.Dispatcher
	send *executor.Executor // single worker: this connection's Connection Executor
	log  *zap.Logger

	tailPadding time.Duration
}

// ConnConfig configures the per-connection state machine's knobs that come from
// server configuration rather than per-message data.
type ConnConfig struct {
	TailPadding time.Duration // silence appended before flushing on "Done"
}

// NewConn creates the registry entry for an accepted, already-handshaken
// socket and returns the Conn that owns its send loop and read loop.
func NewConn(nc net.Conn, rec recognizer.Recognizer, reg *registry.Registry, disp *dispatcher.Dispatcher, cfg ConnConfig, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Conn{
		nc:          nc,
		rec:         rec,
		reg:         reg,
		disp:        disp,
		send:        executor.New(1),
		log:         log,
		tailPadding: cfg.TailPadding,
	}
	h, s, err := reg.OnOpen(rec, c)
	if err != nil {
		c.send.Close()
		return nil, err
	}
	c.h = h
	c.s = s
	return c, nil
}

// SendText implements registry.Sender by posting the write to this
// connection's own single-worker executor, so frame writes for this handle
// are never concurrent with themselves or out of order.
func (c *Conn) SendText(h registry.Handle, text string) error {
	return c.send.Submit(func() {
		if err := WriteFrame(c.nc, OpcodeText, []byte(text)); err != nil {
			c.log.Warn("write failed", zap.String("handle", h.String()), zap.Error(err))
		}
	})
}

// Serve runs the read loop until the connection closes, then tears down the
// registry entry and send loop. It runs on its own goroutine, one per
// accepted socket; frame writes go through the send executor.
func (c *Conn) Serve() {
	defer c.close()
	for {
		frame, err := ReadFrame(c.nc)
		if err != nil {
			if err != io.EOF {
				c.log.Debug("read failed", zap.String("handle", c.h.String()), zap.Error(err))
			}
			return
		}
		switch frame.Opcode {
		case OpcodePing:
			_ = c.send.Submit(func() { _ = WriteFrame(c.nc, OpcodePong, frame.Payload) })
		case OpcodePong:
			// no-op: this server never initiates pings.
		case OpcodeClose:
			_ = c.send.Submit(func() { _ = WriteFrame(c.nc, OpcodeClose, nil) })
			return
		case OpcodeText, OpcodeBinary:
			c.onMessage(frame)
		default:
			// unknown/continuation opcodes are ignored per §4.3.
		}
	}
}

// onMessage implements the connection state machine's two productive
// events: a "Done" text frame and a binary audio frame.
func (c *Conn) onMessage(frame *Frame) {
	if !c.reg.Contains(c.h) {
		return
	}

	switch frame.Opcode {
	case OpcodeText:
		if string(frame.Payload) != doneMessage {
			return
		}
		c.appendTailPadding()
		c.s.InputFinished()
		c.maybePush()

	case OpcodeBinary:
		if len(frame.Payload)%4 != 0 {
			metrics.FramesDropped.Inc()
			c.log.Warn("dropping malformed binary frame",
				zap.String("handle", c.h.String()), zap.Int("length", len(frame.Payload)))
			return
		}
		buf := decodeSamplesLE(frame.Payload)
		metrics.FramesReceived.Inc()
		c.s.AcceptWaveform(c.rec.SampleRate(), buf)
		samples.Put(buf)
		c.maybePush()
	}
}

func (c *Conn) maybePush() {
	if c.rec.IsReady(c.s) {
		c.disp.Push(c.h, c.s)
		c.disp.PostDecode()
	}
}

// appendTailPadding feeds tailPadding worth of zero samples so the
// recognizer can flush any context held for a longer lookahead window.
func (c *Conn) appendTailPadding() {
	if c.tailPadding <= 0 {
		return
	}
	rate := c.rec.SampleRate()
	n := int(c.tailPadding.Seconds() * float64(rate))
	if n <= 0 {
		return
	}
	c.s.AcceptWaveform(rate, make([]float32, n))
}

func (c *Conn) close() {
	_ = c.nc.Close()
	c.reg.OnClose(c.h)
	c.send.Close()
}

// decodeSamplesLE interprets buf as tightly packed little-endian float32
// PCM samples, writing into a pool-provided scratch buffer. The caller
// guarantees len(buf)%4 == 0.
func decodeSamplesLE(buf []byte) []float32 {
	n := len(buf) / 4
	out := samples.Get(n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
