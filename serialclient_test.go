// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/grid-x/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort scripts the read side of a serial port. Each chunk answers one
// Read call; a nil chunk reads as a poll timeout.
type fakePort struct {
	writes  [][]byte
	reads   [][]byte
	readErr error
	short   bool
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.reads) == 0 {
		if p.readErr != nil {
			return 0, p.readErr
		}
		return 0, serial.ErrTimeout
	}
	chunk := p.reads[0]
	p.reads = p.reads[1:]
	if chunk == nil {
		return 0, serial.ErrTimeout
	}
	return copy(b, chunk), nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.writes = append(p.writes, append([]byte(nil), b...))
	if p.short {
		return len(b) - 1, nil
	}
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

type logRecorder struct {
	lines []string
}

func (r *logRecorder) Printf(format string, v ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func (r *logRecorder) contains(substring string) bool {
	for _, line := range r.lines {
		if strings.Contains(line, substring) {
			return true
		}
	}
	return false
}

func newFakeTransporter(port *fakePort) *dleSerialTransporter {
	tr := &dleSerialTransporter{
		ResponseTimeout: 50 * time.Millisecond,
		PollInterval:    time.Millisecond,
	}
	tr.port = port
	return tr
}

func TestSerialSend(t *testing.T) {
	response := respond(opCodeAck, writeResponseWords, 0x00, 0x00)
	port := &fakePort{reads: [][]byte{
		nil, // nothing stray to drain
		response[:3],
		response[3:],
		nil, // quiet poll ends the frame
	}}
	tr := newFakeTransporter(port)

	request := respond(OpCodeWriteObject, 0x04, 0x00, 0x40, 0x60, 0x00, 0x06, 0x00, 0x00, 0x00)
	got, err := tr.Send(request)
	require.NoError(t, err)
	assert.Equal(t, response, got)

	require.Len(t, port.writes, 1)
	assert.Equal(t, request, port.writes[0])
}

func TestSerialSendDrainsStrays(t *testing.T) {
	response := respond(opCodeAck, readResponseWords, 0x00, 0x00, 0x00, 0x00, 0x2A, 0x00, 0x00, 0x00)
	port := &fakePort{reads: [][]byte{
		{0xDE, 0xAD}, // left over from an earlier timed-out exchange
		nil,
		response,
		nil,
	}}
	tr := newFakeTransporter(port)
	logs := &logRecorder{}
	tr.Logger = logs

	got, err := tr.Send(respond(OpCodeReadObject, 0x02, 0x64, 0x60, 0x00))
	require.NoError(t, err)
	assert.Equal(t, response, got)
	assert.True(t, logs.contains("drain stray"), "stray bytes must be logged:\n%s", strings.Join(logs.lines, ""))
}

func TestSerialSendTimeout(t *testing.T) {
	port := &fakePort{}
	tr := newFakeTransporter(port)
	tr.ResponseTimeout = 20 * time.Millisecond

	start := time.Now()
	_, err := tr.Send(respond(OpCodeReadObject, 0x02, 0x64, 0x60, 0x00))
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	// The wait tracks the configured timeout, with slack for slow machines.
	if elapsed > 10*tr.ResponseTimeout {
		t.Errorf("send gave up after %v, configured timeout is %v", elapsed, tr.ResponseTimeout)
	}
}

func TestSerialSendPartialFrame(t *testing.T) {
	// A response that stalls mid-frame is handed to the packager as is,
	// which rejects it with a framing or checksum error.
	response := respond(opCodeAck, writeResponseWords, 0x00, 0x00)
	port := &fakePort{reads: [][]byte{
		nil,
		response[:4],
	}}
	tr := newFakeTransporter(port)
	tr.ResponseTimeout = 20 * time.Millisecond

	got, err := tr.Send(respond(OpCodeWriteObject, 0x04, 0x40, 0x60, 0x00, 0x06, 0x00, 0x00, 0x00))
	require.NoError(t, err)
	assert.Equal(t, response[:4], got)

	_, err = (&dlePackager{}).Decode(got)
	var framingErr *FramingError
	assert.ErrorAs(t, err, &framingErr)
}

func TestSerialSendReadError(t *testing.T) {
	port := &fakePort{readErr: io.ErrClosedPipe}
	tr := newFakeTransporter(port)

	_, err := tr.Send(respond(OpCodeReadObject, 0x02, 0x64, 0x60, 0x00))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestSerialSendShortWrite(t *testing.T) {
	port := &fakePort{short: true}
	tr := newFakeTransporter(port)

	_, err := tr.Send(respond(OpCodeReadObject, 0x02, 0x64, 0x60, 0x00))
	assert.ErrorContains(t, err, "frame bytes")
}

func TestNewSerialClientHandler(t *testing.T) {
	handler := NewSerialClientHandler("/dev/ttyUSB0")

	assert.Equal(t, "/dev/ttyUSB0", handler.Address)
	assert.Equal(t, 115200, handler.BaudRate)
	assert.Equal(t, 8, handler.DataBits)
	assert.Equal(t, "N", handler.Parity)
	assert.Equal(t, 1, handler.StopBits)
	assert.Equal(t, serialPollInterval, handler.Timeout)
	assert.Equal(t, serialPollInterval, handler.PollInterval)
	assert.Equal(t, serialResponseTimeout, handler.ResponseTimeout)
	assert.Equal(t, serialIdleTimeout, handler.IdleTimeout)

	assert.NotNil(t, SerialClient("/dev/ttyUSB0"))
}
