// Package pca9536 provides constants for the register map of the PCA9536
// 4-bit I2C GPIO expander.
package pca9536

const (
	// 7-bit I2C address (fixed by the chip, no address pins).
	DefaultAddress = 0x41

	// Number of GPIO pins.
	PinCount = 4

	// --- Register sub-addresses (8-bit registers) ---

	regInputPort  = 0x00 // R   post-polarity input levels
	regOutputPort = 0x01 // R/W output levels, effective in output mode only
	regPolarity   = 0x02 // R/W 1 = invert input port read for that pin
	regConfig     = 0x03 // R/W 1 = input, 0 = output

	// Bits 3:0 carry pin state; bits 7:4 are reserved and must be
	// written back unchanged.
	pinBitsMask = 0x0F
)
