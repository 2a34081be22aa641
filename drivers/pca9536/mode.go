package pca9536

import "errors"

// PinMode selects the direction of one expander pin. The numeric values
// match the configuration register encoding (bit set = input).
type PinMode uint8

const (
	ModeOutput PinMode = 0
	ModeInput  PinMode = 1
)

// Errors returned by the driver.
var (
	ErrInvalidMode = errors.New("pca9536: invalid mode")
	ErrPinRange    = errors.New("pca9536: pin index out of range")
)

func (m PinMode) String() string {
	if m == ModeInput {
		return "input"
	}
	return "output"
}

// ParseMode converts a mode name to a PinMode. Matching is exact and
// case-sensitive: "input" or "output" only. Callers decoding external
// payloads use this at the boundary so no bus traffic happens for a bad
// name.
func ParseMode(s string) (PinMode, error) {
	switch s {
	case "input":
		return ModeInput, nil
	case "output":
		return ModeOutput, nil
	default:
		return ModeOutput, ErrInvalidMode
	}
}
