// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when the drive does not answer within the
// configured response timeout. Transports wrap it with the elapsed time;
// test with errors.Is.
var ErrTimeout = errors.New("epos: response timeout")

// FramingError reports a byte sequence that does not parse as a frame:
// missing preamble, bad stuffing, or an impossible shape. It is detected
// before any checksum validation.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("epos: framing error: %s", e.Reason)
}

// ChecksumError reports a structurally valid frame whose CRC trailer does
// not match the recomputed checksum.
type ChecksumError struct {
	Got  uint16
	Want uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("epos: response crc 0x%04X does not match expected 0x%04X", e.Got, e.Want)
}

// UnknownNameError reports an object name that is not in the dictionary.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("epos: unknown object '%s'", e.Name)
}

// UnknownCommandError reports a controlword command or mode name that is
// not in the command set.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("epos: unknown command '%s'", e.Name)
}

// ModeMismatchError is returned when a controlword command is issued while
// the drive reports an operating mode the command is not defined for.
type ModeMismatchError struct {
	Command Command
	Want    Mode
	Got     Mode
}

func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("epos: command '%v' requires mode '%v', drive is in '%v'", e.Command, e.Want, e.Got)
}

// ModeNotConfirmedError is returned when the drive does not echo a newly
// written operating mode back through its mode display object.
type ModeNotConfirmedError struct {
	Want Mode
	Got  Mode
}

func (e *ModeNotConfirmedError) Error() string {
	return fmt.Sprintf("epos: mode '%v' not confirmed by drive, display reads '%v'", e.Want, e.Got)
}

// HomingNotAtZeroError is returned by an in-place homing when the drive
// does not report position zero afterwards.
type HomingNotAtZeroError struct {
	Position int64
}

func (e *HomingNotAtZeroError) Error() string {
	return fmt.Sprintf("epos: homed position '%v' is not zero", e.Position)
}

// SequenceError reports a failed step of a multi-write motion sequence.
// Steps already written stay in effect on the drive; Completed counts them.
type SequenceError struct {
	Op        string
	Completed int
	Err       error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("epos: %s failed after %d steps: %v", e.Op, e.Completed, e.Err)
}

// Unwrap returns the underlying step error.
func (e *SequenceError) Unwrap() error {
	return e.Err
}
