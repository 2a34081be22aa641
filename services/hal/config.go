package hal

// Minimal JSON config structures.

type HALConfig struct {
	Version int      `json:"version"`
	Buses   []BusCfg `json:"buses"`
	Devices []DevCfg `json:"devices"`
}

type BusCfg struct {
	ID     string `json:"id"`   // "i2c0"
	Type   string `json:"type"` // "i2c"
	Params struct {
		FreqHz int `json:"freq_hz"`
	} `json:"params"`
}

type DevCfg struct {
	ID     string    `json:"id"`   // "expander-0"
	Type   string    `json:"type"` // "pca9536"
	BusRef DevBusRef `json:"bus_ref"`
	Params any       `json:"params,omitempty"` // device-specific shape; map or struct
}

type DevBusRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ExpanderPinCfg configures one expander pin. Nil fields leave the
// corresponding hardware bit untouched.
type ExpanderPinCfg struct {
	Pin     int     `json:"pin"`
	Mode    *string `json:"mode,omitempty"`    // "input" | "output"
	Invert  *bool   `json:"invert,omitempty"`  // input polarity inversion
	Initial *bool   `json:"initial,omitempty"` // initial output level
}

// ExpanderParams is the params shape for "pca9536" devices.
type ExpanderParams struct {
	Addr     int              `json:"addr,omitempty"` // default 0x41
	PeriodMS int              `json:"period_ms,omitempty"`
	Pins     []ExpanderPinCfg `json:"pins,omitempty"`
}
