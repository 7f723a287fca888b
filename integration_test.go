// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"errors"
	"net/url"
	"os"
	"testing"
	"time"
)

// TestDriveIntegration talks to real hardware. Point EPOS_TEST_ADDRESS at a
// drive, serial:///dev/ttyUSB0 or tcp://host:port, to run it. Everything it
// does is read-only.
func TestDriveIntegration(t *testing.T) {
	address := os.Getenv("EPOS_TEST_ADDRESS")
	if address == "" {
		t.Skip("EPOS_TEST_ADDRESS not set")
	}

	u, err := url.Parse(address)
	if err != nil {
		t.Fatal(err)
	}
	var handler ClientHandler
	switch u.Scheme {
	case "serial":
		h := NewSerialClientHandler(u.Path)
		h.ResponseTimeout = 5 * time.Second
		handler = h
	case "tcp":
		h := NewTCPClientHandler(u.Host)
		h.Timeout = 5 * time.Second
		handler = h
	default:
		t.Fatalf("unsupported scheme %q in %q", u.Scheme, address)
	}
	if err := handler.Connect(); err != nil {
		t.Fatal(err)
	}
	defer handler.Close()

	client := NewClient(handler)
	drive := NewDrive(client)

	status, err := drive.Statusword()
	if err != nil {
		t.Fatal(err)
	}
	mode, err := drive.Mode()
	if err != nil {
		t.Fatal(err)
	}
	position, err := drive.ActualPosition()
	if err != nil {
		t.Fatal(err)
	}
	voltage, err := drive.Voltage()
	if err != nil {
		t.Fatal(err)
	}
	if voltage <= 0 {
		t.Fatalf("supply voltage %v is not positive", voltage)
	}
	t.Logf("statusword 0x%04X, mode %v, position %d, %.1f V", status, mode, position, voltage)

	// A read of a reserved index must come back as a drive abort, which
	// proves error frames decode end to end.
	_, err = client.ReadObject(0x5FFF, 0x00, Int32)
	var driveErr *DriveError
	if !errors.As(err, &driveErr) {
		t.Fatalf("Expected a drive error for a reserved object, actual %v", err)
	}
}
