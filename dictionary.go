// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import "fmt"

// Encoding is the wire representation of an object dictionary value.
type Encoding int

const (
	// Uint8 is an unsigned 8-bit value.
	Uint8 Encoding = iota
	// Int8 is a signed 8-bit value.
	Int8
	// Uint16 is an unsigned little-endian 16-bit value.
	Uint16
	// Int16 is a signed little-endian 16-bit value.
	Int16
	// Uint32 is an unsigned little-endian 32-bit value.
	Uint32
	// Int32 is a signed little-endian 32-bit value.
	Int32
)

// width returns the number of wire bytes carrying the value.
func (e Encoding) width() int {
	switch e {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	default:
		return 4
	}
}

// signed reports whether decode must sign-extend.
func (e Encoding) signed() bool {
	return e == Int8 || e == Int16 || e == Int32
}

// decode extracts the value from the leading bytes of a little-endian data
// field. The drive sends a full 4-byte field for every read; narrower
// encodings only consume their own width and ignore the rest.
func (e Encoding) decode(data []byte) int64 {
	var u uint64
	for i := e.width() - 1; i >= 0; i-- {
		u = u<<8 | uint64(data[i])
	}
	if e.signed() {
		shift := uint(64 - 8*e.width())
		return int64(u<<shift) >> shift
	}
	return int64(u)
}

func (e Encoding) String() string {
	switch e {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// EncodingByName resolves the names printed by String, "uint8" through
// "int32". It serves raw command line access to objects outside the
// dictionary.
func EncodingByName(name string) (Encoding, error) {
	for _, e := range []Encoding{Uint8, Int8, Uint16, Int16, Uint32, Int32} {
		if e.String() == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("epos: unknown encoding '%v'", name)
}

// Object identifies one entry of the drive's object dictionary.
type Object int

// The dictionary covers the objects the driver works with, not the full
// firmware dictionary. Raw index/subindex access remains available through
// Client.ReadObject and Client.WriteObject.
const (
	// ObjectError is the error register.
	ObjectError Object = iota
	// ObjectActualVoltage is the supply voltage in decivolt.
	ObjectActualVoltage
	// ObjectCurrentLimit is the peak output current limit in mA.
	ObjectCurrentLimit
	// ObjectHomingCurrentLimit is the current threshold for homing in mA.
	ObjectHomingCurrentLimit
	// ObjectAverageCurrent is the filtered motor current in mA.
	ObjectAverageCurrent
	// ObjectActualCurrent is the instantaneous motor current in mA.
	ObjectActualCurrent
	// ObjectActualTemperature is the power stage temperature in 0.1 degC.
	ObjectActualTemperature
	// ObjectControl is the controlword.
	ObjectControl
	// ObjectStatus is the statusword.
	ObjectStatus
	// ObjectMode is the commanded operating mode.
	ObjectMode
	// ObjectModeDisplay is the operating mode the drive acknowledges.
	ObjectModeDisplay
	// ObjectActualPosition is the measured position in counts.
	ObjectActualPosition
	// ObjectVelocityDemand is the velocity setpoint of the ramp generator.
	ObjectVelocityDemand
	// ObjectActualVelocity is the measured velocity in rpm.
	ObjectActualVelocity
	// ObjectTargetPosition is the profile target position in counts.
	ObjectTargetPosition
	// ObjectProfileVelocity is the cruise velocity of a profile move.
	ObjectProfileVelocity
	// ObjectProfileAcceleration is the profile acceleration ramp.
	ObjectProfileAcceleration
	// ObjectProfileDeceleration is the profile deceleration ramp.
	ObjectProfileDeceleration
	// ObjectProfileType selects the motion profile shape.
	ObjectProfileType
	// ObjectHomingMethod selects the homing method.
	ObjectHomingMethod
	// ObjectHomingSpeedSwitch is the homing switch search speed.
	ObjectHomingSpeedSwitch
	// ObjectTargetVelocity is the velocity setpoint in rpm.
	ObjectTargetVelocity
)

type objectEntry struct {
	name     string
	index    uint16
	subindex byte
	encoding Encoding
}

var objectTable = [...]objectEntry{
	ObjectError:               {"error", 0x1001, 0x00, Uint8},
	ObjectActualVoltage:       {"actual_voltage", 0x2200, 0x01, Uint16},
	ObjectCurrentLimit:        {"current_limit", 0x3001, 0x02, Uint32},
	ObjectHomingCurrentLimit:  {"homing_current_limit", 0x30B2, 0x00, Uint16},
	ObjectAverageCurrent:      {"average_current", 0x30D1, 0x01, Int32},
	ObjectActualCurrent:       {"actual_current", 0x30D1, 0x02, Int32},
	ObjectActualTemperature:   {"actual_temperature", 0x3201, 0x01, Int16},
	ObjectControl:             {"control", 0x6040, 0x00, Uint16},
	ObjectStatus:              {"status", 0x6041, 0x00, Uint16},
	ObjectMode:                {"mode", 0x6060, 0x00, Int8},
	ObjectModeDisplay:         {"mode_display", 0x6061, 0x00, Int8},
	ObjectActualPosition:      {"actual_position", 0x6064, 0x00, Int32},
	ObjectVelocityDemand:      {"velocity_demand", 0x606B, 0x00, Int32},
	ObjectActualVelocity:      {"actual_velocity", 0x606C, 0x00, Int32},
	ObjectTargetPosition:      {"target_position", 0x607A, 0x00, Int32},
	ObjectProfileVelocity:     {"profile_velocity", 0x6081, 0x00, Uint32},
	ObjectProfileAcceleration: {"profile_acceleration", 0x6083, 0x00, Uint32},
	ObjectProfileDeceleration: {"profile_deceleration", 0x6084, 0x00, Uint32},
	ObjectProfileType:         {"profile_type", 0x6086, 0x00, Int16},
	ObjectHomingMethod:        {"homing_method", 0x6098, 0x00, Int8},
	ObjectHomingSpeedSwitch:   {"homing_speed_switch", 0x6099, 0x01, Uint32},
	ObjectTargetVelocity:      {"target_velocity", 0x60FF, 0x00, Int32},
}

func (o Object) valid() bool {
	return o >= 0 && int(o) < len(objectTable)
}

// Index returns the object dictionary index.
func (o Object) Index() uint16 {
	return objectTable[o].index
}

// Subindex returns the object dictionary subindex.
func (o Object) Subindex() byte {
	return objectTable[o].subindex
}

// Encoding returns the wire representation of the object's value.
func (o Object) Encoding() Encoding {
	return objectTable[o].encoding
}

func (o Object) String() string {
	if !o.valid() {
		return fmt.Sprintf("object(%d)", int(o))
	}
	return objectTable[o].name
}

// LookupObject resolves an object by its dictionary name, e.g. "status" or
// "actual_position".
func LookupObject(name string) (Object, error) {
	for o, entry := range objectTable {
		if entry.name == name {
			return Object(o), nil
		}
	}
	return 0, &UnknownNameError{Name: name}
}
