package epos

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type driveOp struct {
	kind  string // "read" or "write"
	obj   Object
	value int64 // written value, zero for reads
}

// fakeClient serves Read from a value map and records every access. Written
// values stay readable, and a write to the mode object is echoed into the
// mode display like a healthy drive does.
type fakeClient struct {
	values      map[Object]int64
	ops         []driveOp
	readErr     map[Object]error
	writeErr    map[Object]error
	writeClamp  map[Object]int64
	confirmMode bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		values:      make(map[Object]int64),
		confirmMode: true,
	}
}

func (f *fakeClient) ReadObject(index uint16, subindex byte, enc Encoding) (int64, error) {
	return 0, errors.New("not scripted")
}

func (f *fakeClient) WriteObject(index uint16, subindex byte, value int64) error {
	return errors.New("not scripted")
}

func (f *fakeClient) Read(obj Object) (int64, error) {
	if err := f.readErr[obj]; err != nil {
		return 0, err
	}
	f.ops = append(f.ops, driveOp{kind: "read", obj: obj})
	return f.values[obj], nil
}

func (f *fakeClient) Write(obj Object, value int64) error {
	if err := f.writeErr[obj]; err != nil {
		return err
	}
	f.ops = append(f.ops, driveOp{kind: "write", obj: obj, value: value})
	if clamped, ok := f.writeClamp[obj]; ok {
		f.values[obj] = clamped
	} else {
		f.values[obj] = value
	}
	if obj == ObjectMode && f.confirmMode {
		f.values[ObjectModeDisplay] = value
	}
	return nil
}

func (f *fakeClient) ReadName(name string) (int64, error) {
	obj, err := LookupObject(name)
	if err != nil {
		return 0, err
	}
	return f.Read(obj)
}

func (f *fakeClient) WriteName(name string, value int64) error {
	obj, err := LookupObject(name)
	if err != nil {
		return err
	}
	return f.Write(obj, value)
}

// writeOps filters the recorded operations down to writes.
func (f *fakeClient) writeOps() []driveOp {
	var writes []driveOp
	for _, op := range f.ops {
		if op.kind == "write" {
			writes = append(writes, op)
		}
	}
	return writes
}

func TestApplyMask(t *testing.T) {
	for _, tt := range []struct {
		existing, mask, bits, want uint16
	}{
		{0x0000, 0x0087, 0x0006, 0x0006},
		{0xFFFF, 0x0087, 0x0006, 0xFF7E},
		{0x0000, 0x0100, 0x0100, 0x0100},
		{0x010F, 0x0100, 0x0000, 0x000F},
		{0x0237, 0x008F, 0x000F, 0x023F},
	} {
		assert.Equal(t, tt.want, applyMask(tt.existing, tt.mask, tt.bits),
			"0x%04X mask 0x%04X bits 0x%04X", tt.existing, tt.mask, tt.bits)
	}
}

func TestApplyMaskProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		existing := rapid.Uint16().Draw(t, "existing")
		mask := rapid.Uint16().Draw(t, "mask")
		bits := rapid.Uint16().Draw(t, "bits")

		got := applyMask(existing, mask, bits)
		if got&mask != bits&mask {
			t.Errorf("masked bits 0x%04X do not follow the command bits 0x%04X", got&mask, bits&mask)
		}
		if got&^mask != existing&^mask {
			t.Errorf("unmasked bits 0x%04X changed from 0x%04X", got&^mask, existing&^mask)
		}
		if again := applyMask(got, mask, bits); again != got {
			t.Errorf("not idempotent: 0x%04X then 0x%04X", got, again)
		}
	})
}

func TestCommandTable(t *testing.T) {
	for c, entry := range commandTable {
		cmd := Command(c)
		assert.True(t, cmd.valid())
		assert.NotEmpty(t, entry.name)
		assert.Zero(t, entry.bits&^entry.mask, "%s sets bits outside its mask", entry.name)

		got, err := CommandByName(cmd.String())
		assert.NoError(t, err)
		assert.Equal(t, cmd, got)
	}
}

func TestCommandByNameUnknown(t *testing.T) {
	_, err := CommandByName("warp_drive")
	var unknownErr *UnknownCommandError
	if assert.ErrorAs(t, err, &unknownErr) {
		assert.Equal(t, "warp_drive", unknownErr.Name)
	}
}

func TestCommandStringOutOfRange(t *testing.T) {
	assert.Equal(t, "command(-1)", Command(-1).String())
	assert.Equal(t, "command(99)", Command(99).String())
}

func TestModeByName(t *testing.T) {
	for _, m := range []Mode{
		ModeProfilePosition,
		ModeProfileVelocity,
		ModeHoming,
		ModeCyclicSyncPosition,
		ModeCyclicSyncVelocity,
		ModeCyclicSyncTorque,
	} {
		got, err := ModeByName(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ModeByName("TheFastOne")
	var unknownErr *UnknownCommandError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "PPM", ModeProfilePosition.String())
	assert.Equal(t, "HMM", ModeHoming.String())
	assert.Equal(t, "mode(42)", Mode(42).String())
}

func TestSetControl(t *testing.T) {
	fake := newFakeClient()
	d := NewDrive(fake)

	require.NoError(t, d.SetControl(CmdShutdown))

	assert.Equal(t, []driveOp{
		{kind: "read", obj: ObjectControl},
		{kind: "read", obj: ObjectModeDisplay},
		{kind: "write", obj: ObjectControl, value: 0x0006},
	}, fake.ops)
}

func TestSetControlPreservesBits(t *testing.T) {
	fake := newFakeClient()
	fake.values[ObjectControl] = 0x0130
	d := NewDrive(fake)

	require.NoError(t, d.SetControl(CmdShutdown))

	// The halt bit 0x0100 and bit 0x0030 are outside the shutdown mask and
	// must survive.
	assert.Equal(t, []driveOp{{kind: "write", obj: ObjectControl, value: 0x0136}}, fake.writeOps())
}

func TestSetControlModeGate(t *testing.T) {
	fake := newFakeClient()
	fake.values[ObjectModeDisplay] = int64(ModeHoming)
	d := NewDrive(fake)

	err := d.SetControl(CmdNewSetpoint)
	var mismatchErr *ModeMismatchError
	require.ErrorAs(t, err, &mismatchErr)
	assert.Equal(t, CmdNewSetpoint, mismatchErr.Command)
	assert.Equal(t, ModeProfilePosition, mismatchErr.Want)
	assert.Equal(t, ModeHoming, mismatchErr.Got)
	assert.Empty(t, fake.writeOps(), "a gated command must not write")

	// The same command passes once the drive is in the profile position
	// mode, and homing commands pass in homing mode.
	fake.values[ObjectModeDisplay] = int64(ModeProfilePosition)
	assert.NoError(t, d.SetControl(CmdNewSetpoint))
	fake.values[ObjectModeDisplay] = int64(ModeHoming)
	assert.NoError(t, d.SetControl(CmdHomingStart))
}

func TestSetControlAnyMode(t *testing.T) {
	fake := newFakeClient()
	fake.values[ObjectModeDisplay] = int64(ModeCyclicSyncTorque)
	d := NewDrive(fake)

	assert.NoError(t, d.SetControl(CmdStop))
	assert.Equal(t, []driveOp{{kind: "write", obj: ObjectControl, value: 0x0100}}, fake.writeOps())
}

func TestSetControlInvalid(t *testing.T) {
	fake := newFakeClient()
	d := NewDrive(fake)

	err := d.SetControl(Command(99))
	var unknownErr *UnknownCommandError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Empty(t, fake.ops)
}

func TestSetControlReadErrors(t *testing.T) {
	bang := errors.New("bang")

	fake := newFakeClient()
	fake.readErr = map[Object]error{ObjectControl: bang}
	d := NewDrive(fake)
	assert.ErrorIs(t, d.SetControl(CmdShutdown), bang)
	assert.Empty(t, fake.writeOps())

	fake = newFakeClient()
	fake.readErr = map[Object]error{ObjectModeDisplay: bang}
	d = NewDrive(fake)
	assert.ErrorIs(t, d.SetControl(CmdShutdown), bang)
	assert.Empty(t, fake.writeOps())
}

func TestSetMode(t *testing.T) {
	fake := newFakeClient()
	d := NewDrive(fake)

	require.NoError(t, d.SetMode(ModeHoming))

	assert.Equal(t, []driveOp{
		{kind: "write", obj: ObjectMode, value: int64(ModeHoming)},
		{kind: "read", obj: ObjectModeDisplay},
	}, fake.ops)
}

func TestSetModeNotConfirmed(t *testing.T) {
	fake := newFakeClient()
	fake.confirmMode = false
	fake.values[ObjectModeDisplay] = int64(ModeProfileVelocity)
	d := NewDrive(fake)

	err := d.SetMode(ModeHoming)
	var notConfirmedErr *ModeNotConfirmedError
	require.ErrorAs(t, err, &notConfirmedErr)
	assert.Equal(t, ModeHoming, notConfirmedErr.Want)
	assert.Equal(t, ModeProfileVelocity, notConfirmedErr.Got)
	assert.EqualError(t, err, "epos: mode 'HMM' not confirmed by drive, display reads 'PVM'")
}

func TestControlwordStatusword(t *testing.T) {
	fake := newFakeClient()
	fake.values[ObjectControl] = 0x000F
	fake.values[ObjectStatus] = 0x0237
	d := NewDrive(fake)

	control, err := d.Controlword()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x000F), control)

	status, err := d.Statusword()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0237), status)
}

func TestModeReadsDisplay(t *testing.T) {
	fake := newFakeClient()
	fake.values[ObjectModeDisplay] = 8
	d := NewDrive(fake)

	mode, err := d.Mode()
	require.NoError(t, err)
	assert.Equal(t, ModeCyclicSyncPosition, mode)
}
