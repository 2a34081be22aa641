package pca9536

// Pin is a view over one of the device's four bit positions. It holds
// only the device pointer and an index, so it is cheap to copy and has
// no lifetime of its own.
type Pin struct {
	dev   *Device
	index uint8
}

// Pin returns a view of pin index, which must be in [0, PinCount).
func (d *Device) Pin(index int) (Pin, error) {
	if index < 0 || index >= PinCount {
		return Pin{}, ErrPinRange
	}
	return Pin{dev: d, index: uint8(index)}, nil
}

// Index returns the pin's position, 0..3.
func (p Pin) Index() int { return int(p.index) }

func (p Pin) bit() byte { return 1 << p.index }

// Mode reads this pin's direction.
func (p Pin) Mode() (PinMode, error) {
	v, err := p.dev.readBits(regConfig, p.bit())
	if err != nil {
		return ModeOutput, err
	}
	if v != 0 {
		return ModeInput, nil
	}
	return ModeOutput, nil
}

// SetMode sets this pin's direction without touching the other pins.
func (p Pin) SetMode(m PinMode) error {
	var value byte
	if m == ModeInput {
		value = p.bit()
	}
	return p.dev.writeBits(regConfig, value, p.bit())
}

// PolarityInversion reads this pin's input inversion flag.
func (p Pin) PolarityInversion() (bool, error) {
	v, err := p.dev.readBits(regPolarity, p.bit())
	return v != 0, err
}

// SetPolarityInversion sets this pin's input inversion flag.
func (p Pin) SetPolarityInversion(invert bool) error {
	var value byte
	if invert {
		value = p.bit()
	}
	return p.dev.writeBits(regPolarity, value, p.bit())
}

// Read returns this pin's input level (after polarity inversion).
func (p Pin) Read() (bool, error) {
	v, err := p.dev.readBits(regInputPort, p.bit())
	return v != 0, err
}

// Write drives this pin's output level without touching the other pins.
func (p Pin) Write(level bool) error {
	var value byte
	if level {
		value = p.bit()
	}
	return p.dev.writeBits(regOutputPort, value, p.bit())
}
