// Package pca9536 is a driver for the PCA9536 4-bit I2C GPIO expander.
//
// Design notes (datasheet references):
// • I2C up to 400kHz, single-byte register read/write protocol.
// • Fixed 7-bit address 0x41, four registers: input, output, polarity
//   inversion, configuration. Only bits 3:0 are pin state; bits 7:4 are
//   reserved and are written back unchanged.
// • Partial updates use read-modify-write so untouched pins keep their
//   exact hardware state. The driver caches nothing; every getter
//   re-reads the chip.
//
// The driver is synchronous and performs at most one read plus one write
// per operation. Callers sharing the I2C handle across goroutines must
// serialise access themselves.
package pca9536

import (
	"tinygo.org/x/drivers"
)

// Device represents a PCA9536 instance on an I2C bus. The bus handle is
// shared and externally owned; the driver never closes it.
type Device struct {
	bus  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

// Config holds construction options. All fields are optional.
type Config struct {
	// Address defaults to DefaultAddress if zero. The chip itself is
	// fixed at 0x41; this exists for bus multiplexer setups.
	Address uint16
}

// New creates a Device on an already-configured I2C bus. It only builds
// the object; it does not touch the chip.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: DefaultAddress}
}

// Configure applies optional settings. May be called with no cfg.
func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) > 0 && cfgs[0].Address != 0 {
		d.addr = cfgs[0].Address
	}
}

// Address returns the device's 7-bit bus address.
func (d *Device) Address() uint16 { return d.addr }

// ---------------- Pin direction (configuration register) ----------------

// Modes reads the direction of all four pins, ordered pin 0..3.
func (d *Device) Modes() ([PinCount]PinMode, error) {
	v, err := d.readBits(regConfig, pinBitsMask)
	if err != nil {
		return [PinCount]PinMode{}, err
	}
	return unpackModes(v), nil
}

// SetAllModes sets every pin to the same direction.
func (d *Device) SetAllModes(m PinMode) error {
	return d.SetModes(broadcast(m))
}

// SetModes sets the direction of each pin for which a value is supplied;
// nil entries leave that pin's configuration bit byte-identical.
func (d *Device) SetModes(modes [PinCount]*PinMode) error {
	var specified, value [PinCount]bool
	for i, m := range modes {
		if m == nil {
			continue
		}
		specified[i] = true
		value[i] = *m == ModeInput
	}
	return d.writeBits(regConfig, packBits(value), packBits(specified))
}

// ---------------- Polarity inversion register ----------------

// PolarityInversion reads the per-pin input inversion flags.
func (d *Device) PolarityInversion() ([PinCount]bool, error) {
	v, err := d.readBits(regPolarity, pinBitsMask)
	if err != nil {
		return [PinCount]bool{}, err
	}
	return unpackBits(v), nil
}

// SetAllPolarityInversion sets the inversion flag of every pin.
func (d *Device) SetAllPolarityInversion(invert bool) error {
	return d.SetPolarityInversion(broadcast(invert))
}

// SetPolarityInversion sets the inversion flag of each pin for which a
// value is supplied; nil entries are left unchanged.
func (d *Device) SetPolarityInversion(inv [PinCount]*bool) error {
	return d.writeOptional(regPolarity, inv)
}

// ---------------- Input / output ports ----------------

// ReadPins reads the logic level of all four pins from the input port
// (after polarity inversion).
func (d *Device) ReadPins() ([PinCount]bool, error) {
	v, err := d.readBits(regInputPort, pinBitsMask)
	if err != nil {
		return [PinCount]bool{}, err
	}
	return unpackBits(v), nil
}

// WriteAllPins drives every pin to the same output level. Only pins in
// output mode are affected electrically.
func (d *Device) WriteAllPins(level bool) error {
	return d.WritePins(broadcast(level))
}

// WritePins drives each pin for which a level is supplied; nil entries
// keep their current output register bit.
func (d *Device) WritePins(levels [PinCount]*bool) error {
	return d.writeOptional(regOutputPort, levels)
}

// ---------------- Helpers ----------------

func (d *Device) writeOptional(reg byte, vals [PinCount]*bool) error {
	var specified, value [PinCount]bool
	for i, v := range vals {
		if v == nil {
			continue
		}
		specified[i] = true
		value[i] = *v
	}
	return d.writeBits(reg, packBits(value), packBits(specified))
}

// broadcast fills all four positions with the same value.
func broadcast[T any](v T) [PinCount]*T {
	var out [PinCount]*T
	for i := range out {
		out[i] = &v
	}
	return out
}
