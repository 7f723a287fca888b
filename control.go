// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import "fmt"

// Mode is an operating mode of the drive as carried in the mode objects.
type Mode int8

const (
	// ModeProfilePosition moves to position setpoints along a velocity
	// and acceleration profile.
	ModeProfilePosition Mode = 1
	// ModeProfileVelocity tracks velocity setpoints along an
	// acceleration profile.
	ModeProfileVelocity Mode = 3
	// ModeHoming establishes the zero position.
	ModeHoming Mode = 6
	// ModeCyclicSyncPosition tracks cyclically streamed position
	// setpoints.
	ModeCyclicSyncPosition Mode = 8
	// ModeCyclicSyncVelocity tracks cyclically streamed velocity
	// setpoints.
	ModeCyclicSyncVelocity Mode = 9
	// ModeCyclicSyncTorque tracks cyclically streamed torque setpoints.
	ModeCyclicSyncTorque Mode = 10
)

// modeAny marks controlword commands that are defined in every mode.
const modeAny Mode = 0

func (m Mode) String() string {
	switch m {
	case ModeProfilePosition:
		return "PPM"
	case ModeProfileVelocity:
		return "PVM"
	case ModeHoming:
		return "HMM"
	case ModeCyclicSyncPosition:
		return "CSP"
	case ModeCyclicSyncVelocity:
		return "CSV"
	case ModeCyclicSyncTorque:
		return "CST"
	default:
		return fmt.Sprintf("mode(%d)", int8(m))
	}
}

// ModeByName resolves the short mode names used on the wire protocol
// documentation and the command line: PPM, PVM, HMM, CSP, CSV, CST.
func ModeByName(name string) (Mode, error) {
	for _, m := range []Mode{
		ModeProfilePosition,
		ModeProfileVelocity,
		ModeHoming,
		ModeCyclicSyncPosition,
		ModeCyclicSyncVelocity,
		ModeCyclicSyncTorque,
	} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, &UnknownCommandError{Name: name}
}

// Command is a named bit pattern applied to the controlword. A command only
// touches the bits of its mask and leaves the rest of the register alone.
type Command int

const (
	// CmdShutdown readies the power stage.
	CmdShutdown Command = iota
	// CmdSwitchOn closes the power stage.
	CmdSwitchOn
	// CmdSwitchOnAndEnable closes the power stage and enables operation
	// in one step.
	CmdSwitchOnAndEnable
	// CmdDisableVoltage removes power from the motor.
	CmdDisableVoltage
	// CmdQuickStop ramps down with the quick stop deceleration.
	CmdQuickStop
	// CmdDisableOperation stops tracking setpoints.
	CmdDisableOperation
	// CmdEnableOperation starts tracking setpoints.
	CmdEnableOperation
	// CmdStart clears the halt bit.
	CmdStart
	// CmdStop sets the halt bit.
	CmdStop
	// CmdHomingStart begins the homing motion.
	CmdHomingStart
	// CmdClearHomingStart rearms the homing start bit.
	CmdClearHomingStart
	// CmdAbsolute interprets the target position as absolute.
	CmdAbsolute
	// CmdRelative interprets the target position as relative.
	CmdRelative
	// CmdNewSetpoint latches the target position.
	CmdNewSetpoint
	// CmdClearNewSetpoint rearms the setpoint latch.
	CmdClearNewSetpoint
	// CmdMoveImmediate interrupts the running move with the new setpoint.
	CmdMoveImmediate
	// CmdMoveAfterCurrent queues the new setpoint behind the running move.
	CmdMoveAfterCurrent
	// CmdFaultLow lowers the fault reset bit.
	CmdFaultLow
	// CmdFaultHigh raises the fault reset bit, acknowledging a fault on
	// the low to high transition.
	CmdFaultHigh
)

type commandEntry struct {
	name string
	mask uint16
	bits uint16
	// mode the command is defined in, or modeAny
	mode Mode
}

var commandTable = [...]commandEntry{
	CmdShutdown:          {"shutdown", 0x0087, 0x0006, modeAny},
	CmdSwitchOn:          {"switch_on", 0x0087, 0x0007, modeAny},
	CmdSwitchOnAndEnable: {"switch_on_and_enable", 0x008F, 0x000F, modeAny},
	CmdDisableVoltage:    {"disable_voltage", 0x0082, 0x0000, modeAny},
	CmdQuickStop:         {"quick_stop", 0x0086, 0x0002, modeAny},
	CmdDisableOperation:  {"disable_operation", 0x008F, 0x0007, modeAny},
	CmdEnableOperation:   {"enable_operation", 0x008F, 0x000F, modeAny},
	CmdStart:             {"start", 0x0100, 0x0000, modeAny},
	CmdStop:              {"stop", 0x0100, 0x0100, modeAny},
	CmdHomingStart:       {"homing_start", 0x0010, 0x0010, ModeHoming},
	CmdClearHomingStart:  {"clear_homing_start", 0x0010, 0x0000, ModeHoming},
	CmdAbsolute:          {"absolute", 0x0040, 0x0000, ModeProfilePosition},
	CmdRelative:          {"relative", 0x0040, 0x0040, ModeProfilePosition},
	CmdNewSetpoint:       {"new_setpoint", 0x0010, 0x0010, ModeProfilePosition},
	CmdClearNewSetpoint:  {"clear_new_setpoint", 0x0010, 0x0000, ModeProfilePosition},
	CmdMoveImmediate:     {"move_immediate", 0x0020, 0x0020, ModeProfilePosition},
	CmdMoveAfterCurrent:  {"move_after_current", 0x0020, 0x0000, ModeProfilePosition},
	CmdFaultLow:          {"fault_low", 0x0080, 0x0000, modeAny},
	CmdFaultHigh:         {"fault_high", 0x0080, 0x0080, modeAny},
}

func (c Command) valid() bool {
	return c >= 0 && int(c) < len(commandTable)
}

func (c Command) String() string {
	if !c.valid() {
		return fmt.Sprintf("command(%d)", int(c))
	}
	return commandTable[c].name
}

// CommandByName resolves a command by its snake_case name, e.g. "shutdown"
// or "new_setpoint".
func CommandByName(name string) (Command, error) {
	for c, entry := range commandTable {
		if entry.name == name {
			return Command(c), nil
		}
	}
	return 0, &UnknownCommandError{Name: name}
}

// applyMask patches the masked bits of a register value and leaves the rest.
func applyMask(existing, mask, bits uint16) uint16 {
	return existing&^mask | bits&mask
}

// Drive operates one positioning controller through a Client. It layers the
// controlword state machine and the motion sequences over raw object access.
type Drive struct {
	client Client
}

// NewDrive creates a Drive over the given client.
func NewDrive(client Client) *Drive {
	return &Drive{client: client}
}

// Controlword reads the controlword register.
func (d *Drive) Controlword() (uint16, error) {
	v, err := d.client.Read(ObjectControl)
	return uint16(v), err
}

// Statusword reads the statusword register.
func (d *Drive) Statusword() (uint16, error) {
	v, err := d.client.Read(ObjectStatus)
	return uint16(v), err
}

// Mode reads the operating mode the drive acknowledges. The commanded mode
// object is write-side only; what the drive actually runs shows up here.
func (d *Drive) Mode() (Mode, error) {
	v, err := d.client.Read(ObjectModeDisplay)
	return Mode(v), err
}

// SetMode commands an operating mode and confirms it against the mode
// display object.
func (d *Drive) SetMode(m Mode) error {
	if err := d.client.Write(ObjectMode, int64(m)); err != nil {
		return err
	}
	got, err := d.Mode()
	if err != nil {
		return err
	}
	if got != m {
		return &ModeNotConfirmedError{Want: m, Got: got}
	}
	return nil
}

// SetControl applies one command to the controlword: it reads the register,
// patches the command's masked bits and writes the result back. Commands
// that are only defined in one operating mode are checked against the mode
// display first.
func (d *Drive) SetControl(cmd Command) error {
	if !cmd.valid() {
		return &UnknownCommandError{Name: cmd.String()}
	}
	entry := &commandTable[cmd]
	existing, err := d.Controlword()
	if err != nil {
		return err
	}
	mode, err := d.Mode()
	if err != nil {
		return err
	}
	if entry.mode != modeAny && mode != entry.mode {
		return &ModeMismatchError{Command: cmd, Want: entry.mode, Got: mode}
	}
	return d.client.Write(ObjectControl, int64(applyMask(existing, entry.mask, entry.bits)))
}
