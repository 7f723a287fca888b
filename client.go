// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"encoding/binary"
	"fmt"
	"math"
)

// opCodeAck is the opcode of every well-formed response.
const opCodeAck = 0x00

const (
	// Payload words following the header, as carried in the length byte.
	readResponseWords  = 4
	writeResponseWords = 2
)

// logger is the interface to the required logging functions
type logger interface {
	Printf(format string, v ...interface{})
}

// ClientHandler is the interface that groups the Packager and Transporter methods.
type ClientHandler interface {
	Packager
	Transporter
	Connector
}

type client struct {
	packager    Packager
	transporter Transporter
}

// NewClient creates a new drive client with given backend handler.
func NewClient(handler ClientHandler) Client {
	return &client{packager: handler, transporter: handler}
}

// NewClient2 creates a new drive client with given backend packager and transporter.
func NewClient2(packager Packager, transporter Transporter) Client {
	return &client{packager: packager, transporter: transporter}
}

// Request:
//
//	OpCode                : 1 byte (0x60)
//	Length in words       : 1 byte (0x02)
//	Node id               : 1 byte
//	Object index          : 2 bytes
//	Object subindex       : 1 byte
//
// Response:
//
//	OpCode                : 1 byte (0x00)
//	Length in words       : 1 byte (0x04)
//	Error code            : 4 bytes
//	Value                 : 4 bytes
func (c *client) ReadObject(index uint16, subindex byte, enc Encoding) (int64, error) {
	request := ProtocolDataUnit{
		OpCode: OpCodeReadObject,
		Data:   addressBlock(index, subindex),
	}
	response, err := c.send(&request)
	if err != nil {
		return 0, err
	}
	if response.Length != readResponseWords {
		return 0, fmt.Errorf("epos: response length '%v' does not match expected '%v'", response.Length, readResponseWords)
	}
	if len(response.Data) < 4+enc.width() {
		return 0, fmt.Errorf("epos: response data size '%v' is less than expected '%v'", len(response.Data), 4+enc.width())
	}
	if code := binary.LittleEndian.Uint32(response.Data); code != 0 {
		return 0, &DriveError{OpCode: request.OpCode, Code: code}
	}
	return enc.decode(response.Data[4:]), nil
}

// Request:
//
//	OpCode                : 1 byte (0x68)
//	Length in words       : 1 byte (0x04)
//	Node id               : 1 byte
//	Object index          : 2 bytes
//	Object subindex       : 1 byte
//	Value                 : 4 bytes (signed, regardless of object width)
//
// Response:
//
//	OpCode                : 1 byte (0x00)
//	Length in words       : 1 byte (0x02)
//	Error code            : 2 bytes (a 4-byte field is tolerated)
func (c *client) WriteObject(index uint16, subindex byte, value int64) error {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return fmt.Errorf("epos: value '%v' does not fit into the 4-byte write field", value)
	}
	request := ProtocolDataUnit{
		OpCode: OpCodeWriteObject,
		Data:   valueBlock(index, subindex, int32(value)),
	}
	response, err := c.send(&request)
	if err != nil {
		return err
	}
	if response.Length != writeResponseWords {
		return fmt.Errorf("epos: response length '%v' does not match expected '%v'", response.Length, writeResponseWords)
	}
	if len(response.Data) < 2 {
		return fmt.Errorf("epos: response data size '%v' is less than expected '%v'", len(response.Data), 2)
	}
	if code := binary.LittleEndian.Uint16(response.Data); code != 0 {
		return &DriveError{OpCode: request.OpCode, Code: uint32(code)}
	}
	return nil
}

// Read reads a dictionary object.
func (c *client) Read(obj Object) (int64, error) {
	if !obj.valid() {
		return 0, fmt.Errorf("epos: object '%v' is not in the dictionary", obj)
	}
	return c.ReadObject(obj.Index(), obj.Subindex(), obj.Encoding())
}

// Write writes a dictionary object.
func (c *client) Write(obj Object, value int64) error {
	if !obj.valid() {
		return fmt.Errorf("epos: object '%v' is not in the dictionary", obj)
	}
	return c.WriteObject(obj.Index(), obj.Subindex(), value)
}

// ReadName resolves name in the object dictionary and reads the entry.
func (c *client) ReadName(name string) (int64, error) {
	obj, err := LookupObject(name)
	if err != nil {
		return 0, err
	}
	return c.Read(obj)
}

// WriteName resolves name in the object dictionary and writes the entry.
func (c *client) WriteName(name string, value int64) error {
	obj, err := LookupObject(name)
	if err != nil {
		return err
	}
	return c.Write(obj, value)
}

// Helpers

// send sends request and checks the acknowledge opcode in the response.
func (c *client) send(request *ProtocolDataUnit) (*ProtocolDataUnit, error) {
	frameRequest, err := c.packager.Encode(request)
	if err != nil {
		return nil, err
	}
	frameResponse, err := c.transporter.Send(frameRequest)
	if err != nil {
		return nil, err
	}
	if err := c.packager.Verify(frameRequest, frameResponse); err != nil {
		return nil, err
	}
	response, err := c.packager.Decode(frameResponse)
	if err != nil {
		return nil, err
	}
	if response.OpCode != opCodeAck {
		return nil, fmt.Errorf("epos: response opcode '0x%02X' is not an acknowledge", response.OpCode)
	}
	if len(response.Data) == 0 {
		// Empty response
		return nil, fmt.Errorf("epos: response data is empty")
	}
	return response, nil
}

// addressBlock encodes an object address as little-endian index plus
// subindex.
func addressBlock(index uint16, subindex byte) []byte {
	data := make([]byte, 3)
	binary.LittleEndian.PutUint16(data, index)
	data[2] = subindex
	return data
}

// valueBlock appends the 4-byte signed value field to an object address.
func valueBlock(index uint16, subindex byte, value int32) []byte {
	data := make([]byte, 7)
	binary.LittleEndian.PutUint16(data, index)
	data[2] = subindex
	binary.LittleEndian.PutUint32(data[3:], uint32(value))
	return data
}
