package pca9536

// Pure bit-field codec between 4-pin logical views and raw register bytes.
// Total over their domains; no I/O, no error paths.

// packBits sets bit i iff bits[i]. It builds both write masks (from
// "pin specified" flags) and value bytes (from per-pin logical values).
func packBits(bits [PinCount]bool) byte {
	var b byte
	for i, set := range bits {
		if set {
			b |= 1 << i
		}
	}
	return b
}

// unpackBits returns bit i of b for each pin, ignoring the reserved high
// bits.
func unpackBits(b byte) [PinCount]bool {
	var out [PinCount]bool
	b &= pinBitsMask
	for i := range out {
		out[i] = b&(1<<i) != 0
	}
	return out
}

// unpackModes decodes a configuration register byte (1 = input).
func unpackModes(b byte) [PinCount]PinMode {
	var out [PinCount]PinMode
	for i, set := range unpackBits(b) {
		if set {
			out[i] = ModeInput
		} else {
			out[i] = ModeOutput
		}
	}
	return out
}
