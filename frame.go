// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"bytes"
	"fmt"
)

const (
	// DLE is the data link escape character opening every frame. A DLE
	// inside the payload is escaped by doubling it.
	DLE = 0x90
	// STX is the start of text character following the opening DLE.
	STX = 0x02
)

const (
	// Unstuffed frame sizes: opcode and length header, at least one
	// payload word, 2 trailing CRC bytes. The length byte counts payload
	// words, so the payload tops out at 510 bytes.
	frameMinSize = 6
	frameMaxSize = 2 + 2*255 + 2

	// Stuffed sizes include the preamble; stuffing at worst doubles the
	// frame behind it.
	stuffedMinSize = 2 + frameMinSize
	stuffedMaxSize = 2 + 2*frameMaxSize
)

// stuff escapes every payload DLE by doubling it and prepends the
// DLE STX preamble.
func stuff(payload []byte) []byte {
	frame := make([]byte, 0, 2+2*len(payload))
	frame = append(frame, DLE, STX)
	for _, b := range payload {
		if b == DLE {
			frame = append(frame, DLE, DLE)
		} else {
			frame = append(frame, b)
		}
	}
	return frame
}

// unstuff validates the preamble and the escaping of a received frame and
// returns the payload with doubled DLEs collapsed. Splitting the payload on
// DLE must leave an odd number of segments with every odd-indexed segment
// empty; anything else means a lone DLE and the frame is rejected.
func unstuff(frame []byte) ([]byte, error) {
	if len(frame) < 2 || frame[0] != DLE || frame[1] != STX {
		return nil, &FramingError{Reason: fmt.Sprintf("missing DLE STX preamble in % x", frame)}
	}
	parts := bytes.Split(frame[2:], []byte{DLE})
	if len(parts)%2 == 0 {
		return nil, &FramingError{Reason: fmt.Sprintf("unpaired DLE in % x", frame)}
	}
	for i := 1; i < len(parts); i += 2 {
		if len(parts[i]) != 0 {
			return nil, &FramingError{Reason: fmt.Sprintf("unpaired DLE in % x", frame)}
		}
	}
	payload := make([]byte, 0, len(frame)-2)
	for i := 0; i < len(parts); i += 2 {
		if i > 0 {
			payload = append(payload, DLE)
		}
		payload = append(payload, parts[i]...)
	}
	return payload, nil
}
