// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

/*
Package epos provides a client for EPOS4-style positioning controllers
attached over a serial line or a TCP serial gateway.
*/
package epos

import (
	"fmt"
)

const (
	// OpCodeReadObject reads one object dictionary entry.
	OpCodeReadObject = 0x60
	// OpCodeWriteObject writes one object dictionary entry.
	OpCodeWriteObject = 0x68
)

// CANopen SDO abort codes reported by the drive in the error field of a
// response. Only the codes the firmware actually emits are named here.
const (
	// AbortCodeToggleBit error code
	AbortCodeToggleBit = 0x05030000
	// AbortCodeSDOTimeout error code
	AbortCodeSDOTimeout = 0x05040000
	// AbortCodeCommandInvalid error code
	AbortCodeCommandInvalid = 0x05040001
	// AbortCodeOutOfMemory error code
	AbortCodeOutOfMemory = 0x05040005
	// AbortCodeUnsupportedAccess error code
	AbortCodeUnsupportedAccess = 0x06010000
	// AbortCodeWriteOnly error code
	AbortCodeWriteOnly = 0x06010001
	// AbortCodeReadOnly error code
	AbortCodeReadOnly = 0x06010002
	// AbortCodeObjectDoesNotExist error code
	AbortCodeObjectDoesNotExist = 0x06020000
	// AbortCodeHardwareError error code
	AbortCodeHardwareError = 0x06060000
	// AbortCodeParameterLength error code
	AbortCodeParameterLength = 0x06070010
	// AbortCodeSubindexDoesNotExist error code
	AbortCodeSubindexDoesNotExist = 0x06090011
	// AbortCodeValueRangeExceeded error code
	AbortCodeValueRangeExceeded = 0x06090030
	// AbortCodeValueTooHigh error code
	AbortCodeValueTooHigh = 0x06090031
	// AbortCodeValueTooLow error code
	AbortCodeValueTooLow = 0x06090032
	// AbortCodeGeneralError error code
	AbortCodeGeneralError = 0x08000000
	// AbortCodeCannotStore error code
	AbortCodeCannotStore = 0x08000020
	// AbortCodeLocalControl error code
	AbortCodeLocalControl = 0x08000021
	// AbortCodeDeviceState error code
	AbortCodeDeviceState = 0x08000022
	// AbortCodeWrongNMTState error code
	AbortCodeWrongNMTState = 0x0F00FFC0
	// AbortCodeIllegalCommand error code
	AbortCodeIllegalCommand = 0x0F00FFBF
	// AbortCodePasswordIncorrect error code
	AbortCodePasswordIncorrect = 0x0F00FFBE
	// AbortCodeNotInServiceMode error code
	AbortCodeNotInServiceMode = 0x0F00FFBC
	// AbortCodeWrongNodeID error code
	AbortCodeWrongNodeID = 0x0F00FFB9
)

// DriveError is a non-zero error code reported by the drive itself in an
// otherwise well-formed response. It implements the error interface.
type DriveError struct {
	OpCode byte
	Code   uint32
}

// Error converts a known abort code to an error message.
func (e *DriveError) Error() string {
	var name string
	switch e.Code {
	case AbortCodeToggleBit:
		name = "toggle bit not alternated"
	case AbortCodeSDOTimeout:
		name = "SDO protocol timed out"
	case AbortCodeCommandInvalid:
		name = "command specifier not valid"
	case AbortCodeOutOfMemory:
		name = "out of memory"
	case AbortCodeUnsupportedAccess:
		name = "unsupported access to an object"
	case AbortCodeWriteOnly:
		name = "read command to a write only object"
	case AbortCodeReadOnly:
		name = "write command to a read only object"
	case AbortCodeObjectDoesNotExist:
		name = "object does not exist"
	case AbortCodeHardwareError:
		name = "access failed due to a hardware error"
	case AbortCodeParameterLength:
		name = "length of service parameter does not match"
	case AbortCodeSubindexDoesNotExist:
		name = "subindex does not exist"
	case AbortCodeValueRangeExceeded:
		name = "value range of parameter exceeded"
	case AbortCodeValueTooHigh:
		name = "value of parameter written too high"
	case AbortCodeValueTooLow:
		name = "value of parameter written too low"
	case AbortCodeGeneralError:
		name = "general error"
	case AbortCodeCannotStore:
		name = "data cannot be transferred or stored"
	case AbortCodeLocalControl:
		name = "data cannot be stored because of local control"
	case AbortCodeDeviceState:
		name = "data cannot be stored because of present device state"
	case AbortCodeWrongNMTState:
		name = "wrong NMT state"
	case AbortCodeIllegalCommand:
		name = "illegal command"
	case AbortCodePasswordIncorrect:
		name = "password incorrect"
	case AbortCodeNotInServiceMode:
		name = "device not in service mode"
	case AbortCodeWrongNodeID:
		name = "wrong node id"
	default:
		name = "unknown"
	}
	return fmt.Sprintf("epos: drive error 0x%08X (%s), opcode '0x%02X'", e.Code, name, e.OpCode)
}

// ProtocolDataUnit (PDU) is independent of underlying communication layers.
type ProtocolDataUnit struct {
	OpCode byte
	// Length is the payload length in 16-bit words as carried on the wire.
	Length byte
	Data   []byte
}

// Packager specifies the communication layer.
type Packager interface {
	SetNodeID(nodeID byte)
	Encode(pdu *ProtocolDataUnit) (frame []byte, err error)
	Decode(frame []byte) (pdu *ProtocolDataUnit, err error)
	Verify(frameRequest []byte, frameResponse []byte) (err error)
}

// Transporter specifies the transport layer.
type Transporter interface {
	Send(frameRequest []byte) (frameResponse []byte, err error)
}

// Connector exposes the underlying handler capability for open/connect and close the transport channel.
type Connector interface {
	Connect() error
	Close() error
}
