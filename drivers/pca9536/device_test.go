package pca9536

import (
	"errors"
	"testing"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*fakeI2C)(nil)

// fakeI2C models the chip's register file: a pointer write followed by a
// one-byte read, or a two-byte pointer+data write.
type fakeI2C struct {
	regs   [4]byte
	reads  int
	writes int
	// last write observed
	lastReg byte
	lastVal byte
	// injected fault
	err error
}

// Reference fixture: every register reads back 0xA5 (0b10100101).
func newFakeChip() *fakeI2C {
	return &fakeI2C{regs: [4]byte{0xA5, 0xA5, 0xA5, 0xA5}}
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	if addr != DefaultAddress {
		return errors.New("unexpected address")
	}
	switch {
	case len(w) == 1 && len(r) == 1:
		f.reads++
		r[0] = f.regs[w[0]]
		return nil
	case len(w) == 2 && len(r) == 0:
		f.writes++
		f.lastReg = w[0]
		f.lastVal = w[1]
		f.regs[w[0]] = w[1]
		return nil
	default:
		return errors.New("unexpected transaction shape")
	}
}

func (f *fakeI2C) expectWrite(t *testing.T, reg, val byte) {
	t.Helper()
	if f.writes != 1 {
		t.Fatalf("write count = %d, want 1", f.writes)
	}
	if f.lastReg != reg || f.lastVal != val {
		t.Fatalf("wrote %#02x to reg %#02x, want %#02x to reg %#02x",
			f.lastVal, f.lastReg, val, reg)
	}
}

func newTestDevice() (*Device, *fakeI2C) {
	f := newFakeChip()
	return New(f), f
}

func mode(m PinMode) *PinMode { return &m }
func level(b bool) *bool      { return &b }

// ---------------- Masked register primitives ----------------

func TestWriteBits_MergesWithUntouchedBits(t *testing.T) {
	d, f := newTestDevice()
	// pre = 0xA5; post must be (pre &^ mask) | (value & mask)
	cases := []struct{ value, mask, want byte }{
		{0x0F, 0x0F, 0xAF},
		{0x00, 0x0F, 0xA0},
		{0x01, 0x05, 0xA1},
		{0xFF, 0x00, 0xA5}, // empty mask: byte-identical rewrite
		{0x0A, 0x03, 0xA6},
	}
	for _, c := range cases {
		f.regs[regConfig] = 0xA5
		f.reads, f.writes = 0, 0
		if err := d.writeBits(regConfig, c.value, c.mask); err != nil {
			t.Fatalf("writeBits(%#02x, %#02x): %v", c.value, c.mask, err)
		}
		if f.regs[regConfig] != c.want {
			t.Fatalf("writeBits(%#02x, %#02x) left %#02x, want %#02x",
				c.value, c.mask, f.regs[regConfig], c.want)
		}
		if f.reads != 1 || f.writes != 1 {
			t.Fatalf("writeBits did %d reads, %d writes; want exactly 1+1",
				f.reads, f.writes)
		}
	}
}

func TestWriteBits_ReadFailureAbortsWrite(t *testing.T) {
	d, f := newTestDevice()
	boom := errors.New("bus stuck")
	f.err = boom
	if err := d.writeBits(regConfig, 0x0F, 0x0F); err != boom {
		t.Fatalf("err = %v, want transport error unchanged", err)
	}
	if f.writes != 0 {
		t.Fatalf("write issued after failed read")
	}
}

// ---------------- Whole-device accessors ----------------

func TestModes_Getter(t *testing.T) {
	d, _ := newTestDevice()
	got, err := d.Modes()
	if err != nil {
		t.Fatalf("Modes: %v", err)
	}
	want := [PinCount]PinMode{ModeInput, ModeOutput, ModeInput, ModeOutput}
	if got != want {
		t.Fatalf("Modes = %v, want %v", got, want)
	}
}

func TestSetAllModes_Broadcast(t *testing.T) {
	d, f := newTestDevice()
	if err := d.SetAllModes(ModeInput); err != nil {
		t.Fatalf("SetAllModes: %v", err)
	}
	f.expectWrite(t, regConfig, 0xAF)

	// Scalar form and full tuple form must produce the same write.
	f2 := newFakeChip()
	d2 := New(f2)
	err := d2.SetModes([PinCount]*PinMode{
		mode(ModeInput), mode(ModeInput), mode(ModeInput), mode(ModeInput),
	})
	if err != nil {
		t.Fatalf("SetModes: %v", err)
	}
	f2.expectWrite(t, regConfig, 0xAF)
}

func TestSetModes_ParsedNames(t *testing.T) {
	d, f := newTestDevice()
	var modes [PinCount]*PinMode
	for i, name := range [PinCount]string{"input", "output", "output", "input"} {
		m, err := ParseMode(name)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", name, err)
		}
		modes[i] = &m
	}
	if err := d.SetModes(modes); err != nil {
		t.Fatalf("SetModes: %v", err)
	}
	f.expectWrite(t, regConfig, 0xA9)
}

func TestSetModes_PartialUpdatePreservesUnspecified(t *testing.T) {
	d, f := newTestDevice()
	err := d.SetModes([PinCount]*PinMode{mode(ModeOutput), mode(ModeInput), nil, nil})
	if err != nil {
		t.Fatalf("SetModes: %v", err)
	}
	f.expectWrite(t, regConfig, 0xA6)
}

func TestSetModes_SingleClearKeepsReservedBits(t *testing.T) {
	d, f := newTestDevice()
	err := d.SetModes([PinCount]*PinMode{mode(ModeOutput), nil, nil, nil})
	if err != nil {
		t.Fatalf("SetModes: %v", err)
	}
	// 0xA5 with only bit 0 cleared; bits 7:4 untouched.
	f.expectWrite(t, regConfig, 0xA4)
}

func TestSetModes_AllNilIsNoOpRewrite(t *testing.T) {
	d, f := newTestDevice()
	if err := d.SetModes([PinCount]*PinMode{}); err != nil {
		t.Fatalf("SetModes: %v", err)
	}
	// Reference behaviour: the write still happens, byte-identical.
	f.expectWrite(t, regConfig, 0xA5)
}

func TestPolarityInversion_Getter(t *testing.T) {
	d, _ := newTestDevice()
	got, err := d.PolarityInversion()
	if err != nil {
		t.Fatalf("PolarityInversion: %v", err)
	}
	if got != ([PinCount]bool{true, false, true, false}) {
		t.Fatalf("PolarityInversion = %v", got)
	}
}

func TestSetPolarityInversion(t *testing.T) {
	d, f := newTestDevice()
	err := d.SetPolarityInversion([PinCount]*bool{level(false), level(true), nil, nil})
	if err != nil {
		t.Fatalf("SetPolarityInversion: %v", err)
	}
	f.expectWrite(t, regPolarity, 0xA6)
}

func TestSetAllPolarityInversion(t *testing.T) {
	d, f := newTestDevice()
	if err := d.SetAllPolarityInversion(true); err != nil {
		t.Fatalf("SetAllPolarityInversion: %v", err)
	}
	f.expectWrite(t, regPolarity, 0xAF)
}

func TestReadPins(t *testing.T) {
	d, f := newTestDevice()
	got, err := d.ReadPins()
	if err != nil {
		t.Fatalf("ReadPins: %v", err)
	}
	if got != ([PinCount]bool{true, false, true, false}) {
		t.Fatalf("ReadPins = %v", got)
	}
	if f.reads != 1 || f.writes != 0 {
		t.Fatalf("ReadPins did %d reads, %d writes", f.reads, f.writes)
	}
}

func TestWritePins_PartialUpdate(t *testing.T) {
	d, f := newTestDevice()
	err := d.WritePins([PinCount]*bool{level(true), nil, level(false), nil})
	if err != nil {
		t.Fatalf("WritePins: %v", err)
	}
	f.expectWrite(t, regOutputPort, 0xA1)
}

func TestWriteAllPins(t *testing.T) {
	d, f := newTestDevice()
	if err := d.WriteAllPins(false); err != nil {
		t.Fatalf("WriteAllPins: %v", err)
	}
	f.expectWrite(t, regOutputPort, 0xA0)
}

func TestGetters_PropagateTransportError(t *testing.T) {
	d, f := newTestDevice()
	boom := errors.New("nack")
	f.err = boom
	if _, err := d.Modes(); err != boom {
		t.Fatalf("Modes err = %v", err)
	}
	if _, err := d.ReadPins(); err != boom {
		t.Fatalf("ReadPins err = %v", err)
	}
	if _, err := d.PolarityInversion(); err != boom {
		t.Fatalf("PolarityInversion err = %v", err)
	}
}

func TestConfigure_Address(t *testing.T) {
	d, _ := newTestDevice()
	if d.Address() != DefaultAddress {
		t.Fatalf("default address = %#02x", d.Address())
	}
	d.Configure(Config{Address: 0x42})
	if d.Address() != 0x42 {
		t.Fatalf("configured address = %#02x", d.Address())
	}
	d.Configure()
	if d.Address() != 0x42 {
		t.Fatalf("empty Configure changed address to %#02x", d.Address())
	}
}
