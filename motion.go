// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import "fmt"

// Homing methods used by the homing sequences (firmware table).
const (
	// homingMethodActualPosition declares the present position as zero.
	homingMethodActualPosition = 37
	// homingMethodCurrentThreshold drives into the mechanical stop at
	// negative speed until the homing current limit trips.
	homingMethodCurrentThreshold = -3

	// Current and speed bounds for the current threshold homing.
	homingCurrentLimitMilliamps = 1000
	homingSpeedSwitchRPM        = 300
)

// homingAttainedMask is the statusword bit the drive raises when a homing
// motion has completed.
const homingAttainedMask = 0x8000

// sequence runs steps in order and stops at the first failure. Writes that
// already reached the drive stay in effect; the returned SequenceError
// counts them so the caller knows how far the drive got.
func (d *Drive) sequence(op string, steps ...func() error) error {
	for i, step := range steps {
		if err := step(); err != nil {
			return &SequenceError{Op: op, Completed: i, Err: err}
		}
	}
	return nil
}

// Initialize brings the power stage from switch-on-disabled to switched-on.
func (d *Drive) Initialize() error {
	return d.sequence("initialize",
		func() error { return d.SetControl(CmdShutdown) },
		func() error { return d.SetControl(CmdSwitchOn) },
	)
}

// Enable starts tracking setpoints.
func (d *Drive) Enable() error {
	return d.SetControl(CmdEnableOperation)
}

// Disable stops tracking setpoints.
func (d *Drive) Disable() error {
	return d.SetControl(CmdDisableOperation)
}

// Stop halts the running motion by raising the halt bit.
func (d *Drive) Stop() error {
	return d.SetControl(CmdStop)
}

// MoveWithVelocity spins the axis at the given velocity in rpm until told
// otherwise.
func (d *Drive) MoveWithVelocity(rpm int64) error {
	return d.sequence("move with velocity",
		func() error { return d.SetMode(ModeProfileVelocity) },
		func() error { return d.client.Write(ObjectTargetVelocity, rpm) },
		func() error { return d.SetControl(CmdStart) },
	)
}

// MoveToPosition moves the axis to an absolute position in counts along a
// profile with the given cruise velocity in rpm and symmetric acceleration
// in rpm/s. With immediate the move interrupts a running one, otherwise it
// is queued behind it. The drive latches the setpoint on the new_setpoint
// edge, so the three controlword commands at the end stay in this order.
func (d *Drive) MoveToPosition(counts, velocity, accel int64, immediate bool) error {
	when := CmdMoveAfterCurrent
	if immediate {
		when = CmdMoveImmediate
	}
	return d.sequence("move to position",
		func() error { return d.SetMode(ModeProfilePosition) },
		func() error { return d.client.Write(ObjectProfileVelocity, velocity) },
		func() error { return d.client.Write(ObjectProfileAcceleration, accel) },
		func() error { return d.client.Write(ObjectProfileDeceleration, accel) },
		func() error { return d.client.Write(ObjectTargetPosition, counts) },
		func() error { return d.SetControl(CmdAbsolute) },
		func() error { return d.SetControl(when) },
		func() error { return d.SetControl(CmdStart) },
		func() error { return d.SetControl(CmdNewSetpoint) },
		func() error { return d.SetControl(CmdClearNewSetpoint) },
	)
}

// HomeInPlace declares the present position to be zero and confirms the
// drive reports position zero afterwards.
func (d *Drive) HomeInPlace() error {
	if err := d.sequence("home in place",
		func() error { return d.SetMode(ModeHoming) },
		func() error { return d.client.Write(ObjectHomingMethod, homingMethodActualPosition) },
		func() error { return d.SetControl(CmdHomingStart) },
		func() error { return d.SetControl(CmdClearHomingStart) },
	); err != nil {
		return err
	}
	pos, err := d.ActualPosition()
	if err != nil {
		return err
	}
	if pos != 0 {
		return &HomingNotAtZeroError{Position: pos}
	}
	return nil
}

// HomeToCurrentLimit starts a homing run that drives the axis into its
// mechanical stop until the homing current limit trips. The motion runs on
// after this returns; poll HomingAttained for completion.
func (d *Drive) HomeToCurrentLimit() error {
	return d.sequence("home to current limit",
		func() error { return d.SetMode(ModeHoming) },
		func() error { return d.client.Write(ObjectHomingMethod, homingMethodCurrentThreshold) },
		func() error { return d.client.Write(ObjectHomingCurrentLimit, homingCurrentLimitMilliamps) },
		func() error { return d.client.Write(ObjectHomingSpeedSwitch, homingSpeedSwitchRPM) },
		func() error { return d.SetControl(CmdStart) },
		func() error { return d.SetControl(CmdClearHomingStart) },
		func() error { return d.SetControl(CmdHomingStart) },
	)
}

// HomingAttained reports whether the drive has finished the homing motion.
func (d *Drive) HomingAttained() (bool, error) {
	status, err := d.Statusword()
	if err != nil {
		return false, err
	}
	return status&homingAttainedMask != 0, nil
}

// Faulted reports whether the error register holds a fault.
func (d *Drive) Faulted() (bool, error) {
	v, err := d.client.Read(ObjectError)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ResetFault acknowledges a fault through a low to high transition of the
// fault reset bit.
func (d *Drive) ResetFault() error {
	return d.sequence("reset fault",
		func() error { return d.SetControl(CmdFaultLow) },
		func() error { return d.SetControl(CmdFaultHigh) },
	)
}

// ActualPosition reads the measured position in counts.
func (d *Drive) ActualPosition() (int64, error) {
	return d.client.Read(ObjectActualPosition)
}

// ActualVelocity reads the measured velocity in rpm.
func (d *Drive) ActualVelocity() (int64, error) {
	return d.client.Read(ObjectActualVelocity)
}

// VelocityDemand reads the ramp generator's velocity setpoint in rpm.
func (d *Drive) VelocityDemand() (int64, error) {
	return d.client.Read(ObjectVelocityDemand)
}

// AverageCurrent reads the filtered motor current in mA.
func (d *Drive) AverageCurrent() (int64, error) {
	return d.client.Read(ObjectAverageCurrent)
}

// ActualCurrent reads the instantaneous motor current in mA.
func (d *Drive) ActualCurrent() (int64, error) {
	return d.client.Read(ObjectActualCurrent)
}

// Voltage reads the supply voltage in volt. The drive reports decivolt.
func (d *Drive) Voltage() (float64, error) {
	dv, err := d.client.Read(ObjectActualVoltage)
	if err != nil {
		return 0, err
	}
	return float64(dv) / 10, nil
}

// Temperature reads the power stage temperature in 0.1 degC steps, so 322
// stands for 32.2 degC.
func (d *Drive) Temperature() (int64, error) {
	return d.client.Read(ObjectActualTemperature)
}

// PeakCurrent reads the output current limit in mA.
func (d *Drive) PeakCurrent() (int64, error) {
	return d.client.Read(ObjectCurrentLimit)
}

// SetPeakCurrent sets the output current limit in mA and reads it back to
// confirm the drive accepted it.
func (d *Drive) SetPeakCurrent(milliamps int64) error {
	if err := d.client.Write(ObjectCurrentLimit, milliamps); err != nil {
		return err
	}
	got, err := d.PeakCurrent()
	if err != nil {
		return err
	}
	if got != milliamps {
		return fmt.Errorf("epos: current limit readback '%v' does not match request '%v'", got, milliamps)
	}
	return nil
}
