package pca9536

// I2C register operations. The PCA9536 uses plain byte register access:
// write the register pointer, then read or write one data byte.

func (d *Device) readRegister(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeRegister(reg, value byte) error {
	d.w[0] = reg
	d.w[1] = value
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

// readBits reads a register and keeps only the bits selected by mask.
func (d *Device) readBits(reg, mask byte) (byte, error) {
	v, err := d.readRegister(reg)
	return v & mask, err
}

// writeBits replaces the masked bits of a register, leaving every other
// bit (including the reserved 7:4) byte-identical. Exactly one read and
// one write per call; a failed read aborts the write. The read-modify-write
// pair is not atomic against another bus master touching the same register.
// An empty mask still performs the read and a byte-identical rewrite.
func (d *Device) writeBits(reg, value, mask byte) error {
	untouched, err := d.readBits(reg, ^mask)
	if err != nil {
		return err
	}
	return d.writeRegister(reg, untouched|(value&mask))
}
