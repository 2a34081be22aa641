// services/hal/adaptor_pca9536.go
package hal

import (
	"context"
	"time"

	"expandercode-go/drivers/pca9536"

	"tinygo.org/x/drivers"
)

type expanderAdaptor struct {
	id  string
	dev *pca9536.Device
}

// NewExpanderAdaptor wraps a PCA9536 on the given bus. addr 0 means the
// chip default (0x41).
func NewExpanderAdaptor(id string, bus drivers.I2C, addr uint16) Adaptor {
	dev := pca9536.New(bus)
	if addr != 0 {
		dev.Configure(pca9536.Config{Address: addr})
	}
	return &expanderAdaptor{id: id, dev: dev}
}

func (a *expanderAdaptor) ID() string { return a.id }

func (a *expanderAdaptor) Capabilities() []CapInfo {
	info := map[string]any{
		"driver":         "pca9536",
		"pins":           pca9536.PinCount,
		"addr":           int(a.dev.Address()),
		"schema_version": 1,
	}
	return []CapInfo{{Kind: "expander", Info: info}}
}

// The input port needs no conversion time; Collect can run immediately.
func (a *expanderAdaptor) Trigger(context.Context) (time.Duration, error) {
	return 0, nil
}

func (a *expanderAdaptor) Collect(context.Context) (Sample, error) {
	levels, err := a.dev.ReadPins()
	if err != nil {
		return nil, err
	}
	ts := time.Now().UnixMilli()
	return Sample{
		{Kind: "expander", Payload: map[string]any{"levels": levelsToInts(levels), "ts_ms": ts}, TsMs: ts},
	}, nil
}

func (a *expanderAdaptor) Control(kind, method string, payload any) (any, error) {
	if kind != "expander" {
		return nil, ErrUnsupported
	}
	switch method {
	case "configure":
		var p ExpanderParams
		if err := decodeJSON(payload, &p); err != nil {
			return nil, err
		}
		if err := a.applyPins(p.Pins); err != nil {
			return nil, err
		}
		return map[string]any{"pins": len(p.Pins)}, nil

	case "set_mode":
		pin, mode, err := a.pinAndMode(payload)
		if err != nil {
			return nil, err
		}
		if err := pin.SetMode(mode); err != nil {
			return nil, err
		}
		return map[string]any{"pin": pin.Index(), "mode": mode.String()}, nil

	case "set_invert":
		var req struct {
			Pin    int  `json:"pin"`
			Invert bool `json:"invert"`
		}
		if err := decodeJSON(payload, &req); err != nil {
			return nil, err
		}
		pin, err := a.dev.Pin(req.Pin)
		if err != nil {
			return nil, err
		}
		if err := pin.SetPolarityInversion(req.Invert); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true}, nil

	case "set":
		var req struct {
			Pin   int  `json:"pin"`
			Level bool `json:"level"`
		}
		if err := decodeJSON(payload, &req); err != nil {
			return nil, err
		}
		pin, err := a.dev.Pin(req.Pin)
		if err != nil {
			return nil, err
		}
		if err := pin.Write(req.Level); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true}, nil

	case "get":
		var req struct {
			Pin int `json:"pin"`
		}
		if err := decodeJSON(payload, &req); err != nil {
			return nil, err
		}
		pin, err := a.dev.Pin(req.Pin)
		if err != nil {
			return nil, err
		}
		lvl, err := pin.Read()
		if err != nil {
			return nil, err
		}
		return map[string]any{"level": boolToInt(lvl)}, nil

	case "write":
		var req struct {
			Levels []*bool `json:"levels"`
		}
		if err := decodeJSON(payload, &req); err != nil {
			return nil, err
		}
		if len(req.Levels) > pca9536.PinCount {
			return nil, pca9536.ErrPinRange
		}
		var levels [pca9536.PinCount]*bool
		copy(levels[:], req.Levels)
		if err := a.dev.WritePins(levels); err != nil {
			return nil, err
		}
		return map[string]any{"ok": true}, nil

	case "read":
		levels, err := a.dev.ReadPins()
		if err != nil {
			return nil, err
		}
		return map[string]any{"levels": levelsToInts(levels)}, nil

	case "modes":
		modes, err := a.dev.Modes()
		if err != nil {
			return nil, err
		}
		names := make([]string, pca9536.PinCount)
		for i, m := range modes {
			names[i] = m.String()
		}
		return map[string]any{"modes": names}, nil

	default:
		return nil, ErrUnsupported
	}
}

// applyPins validates the whole pin config before any bus access, then
// updates each register with one masked read-modify-write. Registers not
// mentioned by any pin entry are not touched at all.
func (a *expanderAdaptor) applyPins(pins []ExpanderPinCfg) error {
	var modes [pca9536.PinCount]*pca9536.PinMode
	var inverts, initials [pca9536.PinCount]*bool
	haveMode, haveInvert, haveInitial := false, false, false

	for i := range pins {
		pc := &pins[i]
		if pc.Pin < 0 || pc.Pin >= pca9536.PinCount {
			return pca9536.ErrPinRange
		}
		if pc.Mode != nil {
			m, err := pca9536.ParseMode(*pc.Mode)
			if err != nil {
				return err
			}
			modes[pc.Pin] = &m
			haveMode = true
		}
		if pc.Invert != nil {
			inverts[pc.Pin] = pc.Invert
			haveInvert = true
		}
		if pc.Initial != nil {
			initials[pc.Pin] = pc.Initial
			haveInitial = true
		}
	}

	// Drive initial output levels before switching pins to output mode.
	if haveInitial {
		if err := a.dev.WritePins(initials); err != nil {
			return err
		}
	}
	if haveInvert {
		if err := a.dev.SetPolarityInversion(inverts); err != nil {
			return err
		}
	}
	if haveMode {
		if err := a.dev.SetModes(modes); err != nil {
			return err
		}
	}
	return nil
}

func (a *expanderAdaptor) pinAndMode(payload any) (pca9536.Pin, pca9536.PinMode, error) {
	var req struct {
		Pin  int    `json:"pin"`
		Mode string `json:"mode"`
	}
	if err := decodeJSON(payload, &req); err != nil {
		return pca9536.Pin{}, pca9536.ModeOutput, err
	}
	mode, err := pca9536.ParseMode(req.Mode)
	if err != nil {
		return pca9536.Pin{}, pca9536.ModeOutput, err
	}
	pin, err := a.dev.Pin(req.Pin)
	if err != nil {
		return pca9536.Pin{}, pca9536.ModeOutput, err
	}
	return pin, mode, nil
}

func levelsToInts(levels [pca9536.PinCount]bool) []int {
	out := make([]int, pca9536.PinCount)
	for i, l := range levels {
		out[i] = boolToInt(l)
	}
	return out
}
