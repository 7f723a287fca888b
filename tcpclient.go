// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	// Default TCP timeouts. A serial device server adds little latency,
	// so the response bound matches the serial one.
	tcpTimeout     = 1 * time.Second
	tcpIdleTimeout = 60 * time.Second
)

// TCPClientHandler implements Packager and Transporter interface. It speaks
// the same stuffed framing through a serial device server that bridges the
// drive's port onto a raw TCP socket.
type TCPClientHandler struct {
	dlePackager
	dleTCPTransporter
}

// NewTCPClientHandler allocates a new TCPClientHandler.
func NewTCPClientHandler(address string) *TCPClientHandler {
	h := &TCPClientHandler{}
	h.Address = address
	h.Timeout = tcpTimeout
	h.IdleTimeout = tcpIdleTimeout
	return h
}

// TCPClient creates a drive client with default handler and given connect string.
func TCPClient(address string) Client {
	handler := NewTCPClientHandler(address)
	return NewClient(handler)
}

// dleTCPTransporter implements Transporter interface.
type dleTCPTransporter struct {
	// Connect string
	Address string
	// Connect & Read timeout
	Timeout time.Duration
	// Idle timeout to close the connection
	IdleTimeout time.Duration
	// Transmission logger
	Logger logger

	// TCP connection
	mu           sync.Mutex
	conn         net.Conn
	closeTimer   *time.Timer
	lastActivity time.Time
}

// Send requests the drive through the gateway and reads back one response frame.
func (mb *dleTCPTransporter) Send(frameRequest []byte) (frameResponse []byte, err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	// Establish a new connection if not connected
	if err = mb.connect(); err != nil {
		return
	}

	// A response to a previously timed-out request may still be in the
	// buffer and would be taken for the answer to this one. Flush any
	// pending bytes before sending.
	if err = mb.flush(); err != nil {
		return
	}

	// Set timer to close when idle
	mb.lastActivity = time.Now()
	mb.startCloseTimer()
	// Set write and read timeout
	var deadline time.Time
	if mb.Timeout > 0 {
		deadline = mb.lastActivity.Add(mb.Timeout)
	}
	if err = mb.conn.SetDeadline(deadline); err != nil {
		return
	}

	// Send data
	mb.logf("epos: send % x\n", frameRequest)
	if _, err = mb.conn.Write(frameRequest); err != nil {
		return
	}

	if frameResponse, err = mb.readFrame(); err != nil {
		if netError, ok := err.(net.Error); ok && netError.Timeout() {
			err = fmt.Errorf("%w after %v", ErrTimeout, mb.Timeout)
		}
		return
	}
	mb.logf("epos: recv % x\n", frameResponse)
	return
}

// readFrame reads one stuffed frame byte by byte. The length byte fixes
// where the frame ends; doubled DLEs count once toward the unstuffed size.
// Anything that cannot be a frame is returned as is for the packager to
// reject.
func (mb *dleTCPTransporter) readFrame() ([]byte, error) {
	frame := make([]byte, 0, stuffedMaxSize)
	buf := make([]byte, 1)
	want := -1
	unstuffed := 0
	esc := false
	for {
		if _, err := io.ReadFull(mb.conn, buf); err != nil {
			return nil, err
		}
		b := buf[0]
		frame = append(frame, b)
		if len(frame) <= 2 {
			// Preamble. A wrong byte still ends the read so the caller
			// can report it.
			if (len(frame) == 1 && b != DLE) || (len(frame) == 2 && b != STX) {
				return frame, nil
			}
			continue
		}
		switch {
		case esc:
			esc = false
			if b != DLE {
				// Lone DLE: not a frame, give up on this read.
				return frame, nil
			}
			unstuffed++
		case b == DLE:
			esc = true
		default:
			unstuffed++
		}
		if want < 0 && unstuffed == 2 && !esc {
			// OpCode and length byte are in; the length byte counts the
			// payload words between header and CRC.
			want = 2 + 2*int(b) + 2
		}
		if want > 0 && unstuffed >= want {
			return frame, nil
		}
		if len(frame) >= stuffedMaxSize {
			return frame, nil
		}
	}
}

// Connect establishes a new connection to the address in Address.
// Connect and Close are exported so that multiple requests can be done with one session
func (mb *dleTCPTransporter) Connect() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.connect()
}

func (mb *dleTCPTransporter) connect() error {
	if mb.conn == nil {
		dialer := net.Dialer{Timeout: mb.Timeout}
		conn, err := dialer.Dial("tcp", mb.Address)
		if err != nil {
			return err
		}
		mb.conn = conn
	}
	return nil
}

func (mb *dleTCPTransporter) startCloseTimer() {
	if mb.IdleTimeout <= 0 {
		return
	}
	if mb.closeTimer == nil {
		mb.closeTimer = time.AfterFunc(mb.IdleTimeout, mb.closeIdle)
	} else {
		mb.closeTimer.Reset(mb.IdleTimeout)
	}
}

// Close closes current connection.
func (mb *dleTCPTransporter) Close() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.close()
}

// flush flushes pending data in the connection,
// returns io.EOF if connection is closed.
func (mb *dleTCPTransporter) flush() (err error) {
	if err = mb.conn.SetReadDeadline(time.Now()); err != nil {
		return
	}
	b := make([]byte, stuffedMaxSize)
	// Timeout setting will be reset when reading
	if n, rerr := mb.conn.Read(b); rerr != nil {
		// Ignore timeout error
		if netError, ok := rerr.(net.Error); ok && netError.Timeout() {
			return nil
		}
		err = rerr
	} else if n > 0 {
		mb.logf("epos: flush stray % x\n", b[:n])
	}
	return
}

func (mb *dleTCPTransporter) logf(format string, v ...interface{}) {
	if mb.Logger != nil {
		mb.Logger.Printf(format, v...)
	}
}

// close closes current connection. Caller must hold the mutex before calling this method.
func (mb *dleTCPTransporter) close() (err error) {
	if mb.conn != nil {
		err = mb.conn.Close()
		mb.conn = nil
	}
	return
}

// closeIdle closes the connection if last activity is passed behind IdleTimeout.
func (mb *dleTCPTransporter) closeIdle() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.IdleTimeout <= 0 {
		return
	}
	if idle := time.Since(mb.lastActivity); idle >= mb.IdleTimeout {
		mb.logf("epos: closing connection due to idle timeout: %v", idle)
		mb.close()
	}
}
