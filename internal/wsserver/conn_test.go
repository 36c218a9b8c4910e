package wsserver

import (
	"encoding/binary"
	"math"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/internal/dispatcher"
	"github.com/misaka00251/sherpa/internal/executor"
	"github.com/misaka00251/sherpa/internal/recognizer"
	"github.com/misaka00251/sherpa/internal/registry"
)

func encodeSamplesLE(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func writeClientFrame(t *testing.T, w net.Conn, opcode Opcode, payload []byte) {
	t.Helper()
	key := [4]byte{1, 2, 3, 4}
	masked := make([]byte, len(payload))
	copy(masked, payload)
	unmask(masked, key)

	header := []byte{finBit | byte(opcode)}
	switch {
	case len(payload) <= 125:
		header = append(header, maskBit|byte(len(payload)))
	default:
		header = append(header, maskBit|126)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(len(payload)))
		header = append(header, ext[:]...)
	}
	header = append(header, key[:]...)
	header = append(header, masked...)
	if _, err := w.Write(header); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func newTestHarness(t *testing.T) (*Conn, net.Conn, *dispatcher.Dispatcher, *registry.Registry, registry.Handle) {
	t.Helper()
	server, client := net.Pipe()

	rec := recognizer.NewFakeRecognizer(16000, 4)
	reg := registry.New(zap.NewNop())
	compute := executor.New(1)
	t.Cleanup(compute.Close)
	disp := dispatcher.New(rec, reg, compute, dispatcher.Config{}, zap.NewNop())

	conn, err := NewConn(server, rec, reg, disp, ConnConfig{TailPadding: 0}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewConn: %v", err)
	}
	go conn.Serve()
	t.Cleanup(func() { _ = client.Close() })

	return conn, client, disp, reg, conn.h
}

func TestConn_BinaryFrameMalformedLengthDropped(t *testing.T) {
	conn, client, _, reg, h := newTestHarness(t)
	_ = conn

	writeClientFrame(t, client, OpcodeBinary, []byte{1, 2, 3}) // not a multiple of 4

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && !reg.Contains(h) {
		time.Sleep(time.Millisecond)
	}
	if !reg.Contains(h) {
		t.Fatal("connection should remain open after a malformed frame")
	}
}

func TestConn_DoneFlowProducesDoneMessage(t *testing.T) {
	_, client, _, reg, h := newTestHarness(t)

	writeClientFrame(t, client, OpcodeBinary, encodeSamplesLE(make([]float32, 10)))
	writeClientFrame(t, client, OpcodeText, []byte("Done"))

	var gotDone bool
	deadline := time.Now().Add(2 * time.Second)
	_ = client.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		frame, err := ReadFrame(client)
		if err != nil {
			break
		}
		if frame.Opcode == OpcodeText && string(frame.Payload) == "Done" {
			gotDone = true
			break
		}
	}
	if !gotDone {
		t.Fatal("expected a terminal \"Done\" text frame from the server")
	}
	_ = reg.Contains(h)
}
