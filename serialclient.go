// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/grid-x/serial"
)

const (
	serialBaudRate = 115200
	serialDataBits = 8
	serialParity   = "N"
	serialStopBits = 1
)

// SerialClientHandler implements Packager and Transporter interface.
type SerialClientHandler struct {
	dlePackager
	dleSerialTransporter
}

// NewSerialClientHandler allocates and initializes a SerialClientHandler.
// The drive side is fixed at 115200 8N1.
func NewSerialClientHandler(address string) *SerialClientHandler {
	handler := &SerialClientHandler{}
	handler.Address = address
	handler.BaudRate = serialBaudRate
	handler.DataBits = serialDataBits
	handler.Parity = serialParity
	handler.StopBits = serialStopBits
	handler.Timeout = serialPollInterval
	handler.ResponseTimeout = serialResponseTimeout
	handler.PollInterval = serialPollInterval
	handler.IdleTimeout = serialIdleTimeout
	return handler
}

// SerialClient creates a drive client with default handler and given connect string.
func SerialClient(address string) Client {
	handler := NewSerialClientHandler(address)
	return NewClient(handler)
}

// dlePackager implements Packager interface.
type dlePackager struct {
	NodeID byte
}

// SetNodeID sets the node id for the next client operations. Over a direct
// serial line the drive answers to node id 0.
func (p *dlePackager) SetNodeID(nodeID byte) {
	p.NodeID = nodeID
}

// Encode encodes PDU in a stuffed frame:
//
//	OpCode          : 1 byte
//	Length in words : 1 byte
//	Node id         : 1 byte
//	Data            : odd number of bytes, completing the node id to words
//	CRC             : 2 bytes
func (p *dlePackager) Encode(pdu *ProtocolDataUnit) (frame []byte, err error) {
	if len(pdu.Data)%2 != 1 {
		err = fmt.Errorf("epos: length of data '%v' must complete the node id to 16-bit words", len(pdu.Data))
		return
	}
	length := 3 + len(pdu.Data) + 2
	if length > frameMaxSize {
		err = fmt.Errorf("epos: length of frame '%v' must not be bigger than '%v'", length, frameMaxSize)
		return
	}
	raw := make([]byte, length)

	raw[0] = pdu.OpCode
	raw[1] = byte((1 + len(pdu.Data)) / 2)
	raw[2] = p.NodeID
	copy(raw[3:], pdu.Data)

	// Append crc, computed over the zeroed trailer
	var crc crc
	crc.reset().pushBytes(raw)
	checksum := crc.value()

	raw[length-2] = byte(checksum)
	raw[length-1] = byte(checksum >> 8)
	return stuff(raw), nil
}

// Verify verifies the response preamble and minimum length.
func (p *dlePackager) Verify(frameRequest []byte, frameResponse []byte) (err error) {
	length := len(frameResponse)
	// Minimum size (including preamble, header and CRC)
	if length < stuffedMinSize {
		err = fmt.Errorf("epos: response length '%v' does not meet minimum '%v'", length, stuffedMinSize)
		return
	}
	if frameResponse[0] != DLE || frameResponse[1] != STX {
		err = &FramingError{Reason: fmt.Sprintf("missing DLE STX preamble in % x", frameResponse)}
		return
	}
	return
}

// Decode unstuffs the frame, verifies shape and CRC and extracts the PDU.
func (p *dlePackager) Decode(frame []byte) (pdu *ProtocolDataUnit, err error) {
	raw, err := unstuff(frame)
	if err != nil {
		return
	}
	if len(raw) < frameMinSize {
		err = &FramingError{Reason: fmt.Sprintf("frame length '%v' does not meet minimum '%v'", len(raw), frameMinSize)}
		return
	}
	if len(raw)%2 != 0 {
		err = &FramingError{Reason: fmt.Sprintf("frame length '%v' is not word aligned", len(raw))}
		return
	}
	// Calculate checksum over the frame with a zeroed trailer
	var crc crc
	crc.reset().pushBytes(raw[:len(raw)-2]).pushWord(0)
	if got := binary.LittleEndian.Uint16(raw[len(raw)-2:]); got != crc.value() {
		err = &ChecksumError{Got: got, Want: crc.value()}
		return
	}
	// OpCode, length & data
	pdu = &ProtocolDataUnit{}
	pdu.OpCode = raw[0]
	pdu.Length = raw[1]
	pdu.Data = raw[2 : len(raw)-2]
	return
}

// dleSerialTransporter implements Transporter interface.
type dleSerialTransporter struct {
	serialPort

	// ResponseTimeout bounds the wait for the first response byte.
	ResponseTimeout time.Duration
	// PollInterval is the granularity of the receive loop. A poll that
	// returns nothing after response bytes have arrived ends the frame.
	PollInterval time.Duration
}

// Send requests the drive and reads back one response frame. The drive
// serves one request at a time; the transporter mutex enforces that.
func (mb *dleSerialTransporter) Send(frameRequest []byte) (frameResponse []byte, err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.port == nil && mb.PollInterval > 0 {
		// The port read timeout is the poll granularity of the receive loop.
		mb.Config.Timeout = mb.PollInterval
	}
	// Make sure port is connected
	if err = mb.connect(); err != nil {
		return
	}
	// Start the timer to close when idle
	mb.lastActivity = time.Now()
	mb.startCloseTimer()

	// A response can only start on a frame boundary when nothing is left
	// over from the previous exchange.
	mb.drain()

	mb.logf("epos: send % x\n", frameRequest)
	var n int
	if n, err = mb.port.Write(frameRequest); err != nil {
		return
	}
	if n < len(frameRequest) {
		err = fmt.Errorf("epos: sent '%v' of '%v' frame bytes", n, len(frameRequest))
		return
	}

	if frameResponse, err = mb.readFrame(); err != nil {
		return
	}
	mb.logf("epos: recv % x\n", frameResponse)
	return
}

// drain discards stray bytes so the next response is parsed from its first
// byte. Strays happen when a previous exchange timed out mid-response.
func (mb *dleSerialTransporter) drain() {
	buf := make([]byte, stuffedMaxSize)
	for {
		n, err := mb.port.Read(buf)
		if n > 0 {
			mb.logf("epos: drain stray % x\n", buf[:n])
			continue
		}
		if err != nil {
			return
		}
	}
}

// readFrame assembles one response frame. It waits for the first byte until
// ResponseTimeout, then keeps reading until a quiet poll.
func (mb *dleSerialTransporter) readFrame() ([]byte, error) {
	deadline := time.Now().Add(mb.ResponseTimeout)
	frame := make([]byte, 0, stuffedMaxSize)
	buf := make([]byte, stuffedMaxSize)
	for {
		if time.Now().After(deadline) {
			if len(frame) > 0 {
				return frame, nil
			}
			return nil, fmt.Errorf("%w after %v", ErrTimeout, mb.ResponseTimeout)
		}
		n, err := mb.port.Read(buf)
		if n > 0 {
			frame = append(frame, buf[:n]...)
			if len(frame) >= stuffedMaxSize {
				return frame, nil
			}
			continue
		}
		if err != nil && !errors.Is(err, serial.ErrTimeout) {
			return nil, err
		}
		if len(frame) > 0 {
			// Quiet poll after data: the frame is complete.
			return frame, nil
		}
	}
}
