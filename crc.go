// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import "encoding/binary"

// crc accumulates the word-wise CRC-16/CCITT variant of the drive protocol.
// The frame is consumed as little-endian 16-bit words and every word is
// shifted out MSB first over a zero-seeded accumulator with polynomial
// 0x1021 applied on carry-out.
type crc struct {
	sum uint16
}

func (c *crc) reset() *crc {
	c.sum = 0
	return c
}

// pushWord folds one 16-bit word into the accumulator.
func (c *crc) pushWord(w uint16) *crc {
	for shifter := uint16(0x8000); shifter != 0; shifter >>= 1 {
		carry := c.sum&0x8000 != 0
		c.sum <<= 1
		if w&shifter != 0 {
			c.sum++
		}
		if carry {
			c.sum ^= 0x1021
		}
	}
	return c
}

// pushBytes folds data into the accumulator as little-endian words.
// A trailing odd byte is ignored; both codec paths only feed word-aligned
// frames.
func (c *crc) pushBytes(data []byte) *crc {
	for i := 0; i+1 < len(data); i += 2 {
		c.pushWord(binary.LittleEndian.Uint16(data[i:]))
	}
	return c
}

func (c *crc) value() uint16 {
	return c.sum
}

// crcMatches reports whether the little-endian CRC trailer of an unstuffed
// frame matches a checksum recomputed with the trailer bytes zeroed.
func crcMatches(frame []byte) bool {
	if len(frame) < 2 || len(frame)%2 != 0 {
		return false
	}
	var c crc
	c.reset().pushBytes(frame[:len(frame)-2]).pushWord(0)
	return c.value() == binary.LittleEndian.Uint16(frame[len(frame)-2:])
}
