// cmd/expander-demo/main.go
//
// Host demo: drives a simulated PCA9536 through the driver directly,
// then through the HAL service over the message bus.
package main

import (
	"context"
	"time"

	"expandercode-go/bus"
	"expandercode-go/drivers/pca9536"
	"expandercode-go/services/hal"

	"tinygo.org/x/drivers"
)

// simChip is an in-memory PCA9536: four 8-bit registers behind the
// pointer-then-data I2C register protocol. Output bits written while a
// pin is in output mode are looped back into the input port so reads
// show something plausible.
type simChip struct {
	regs [4]byte
}

func newSimChip() *simChip {
	// Power-on defaults: all pins input, no inversion, outputs high.
	return &simChip{regs: [4]byte{0x00, 0x0F, 0x00, 0x0F}}
}

func (c *simChip) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(w) == 1 && len(r) == 1:
		c.refreshInput()
		r[0] = c.regs[w[0]&0x03]
	case len(w) == 2 && len(r) == 0:
		c.regs[w[0]&0x03] = w[1]
	}
	return nil
}

func (c *simChip) refreshInput() {
	cfg, out, pol := c.regs[0x03], c.regs[0x01], c.regs[0x02]
	// Output-mode pins read back their driven level; input-mode pins
	// float high in this simulation. Polarity inversion applies to the
	// input port read.
	raw := (out &^ cfg) | cfg
	c.regs[0x00] = (raw ^ pol) & 0x0F
}

type singleBusFactory struct {
	i2c drivers.I2C
}

func (f singleBusFactory) ByID(id string) (drivers.I2C, bool) {
	if id != "i2c0" {
		return nil, false
	}
	return f.i2c, true
}

func main() {
	println("[demo] driver walkthrough")
	driverDemo()

	println("[demo] hal service over the bus")
	halDemo()
}

func driverDemo() {
	dev := pca9536.New(newSimChip())

	// Pin 0 input, pin 1 output, leave pins 2 and 3 alone.
	in, out := pca9536.ModeInput, pca9536.ModeOutput
	if err := dev.SetModes([4]*pca9536.PinMode{&in, &out, nil, nil}); err != nil {
		println("[demo] set modes:", err.Error())
		return
	}

	pin1, _ := dev.Pin(1)
	if err := pin1.Write(true); err != nil {
		println("[demo] write pin 1:", err.Error())
		return
	}

	pin0, _ := dev.Pin(0)
	lvl, err := pin0.Read()
	if err != nil {
		println("[demo] read pin 0:", err.Error())
		return
	}
	println("[demo] pin 0 input:", lvl)

	// Whole-device read, all pins as input.
	if err := dev.SetAllModes(pca9536.ModeInput); err != nil {
		println("[demo] set all modes:", err.Error())
		return
	}
	levels, err := dev.ReadPins()
	if err != nil {
		println("[demo] read pins:", err.Error())
		return
	}
	println("[demo] pin inputs:", levels[0], levels[1], levels[2], levels[3])
}

func halDemo() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	halConn := b.NewConnection("hal")
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("hal", "#"))
	go func() {
		for m := range mon.Channel() {
			printTopic("[monitor] <-", m.Topic)
		}
	}()

	go hal.Run(ctx, halConn, singleBusFactory{i2c: newSimChip()})

	modeIn, modeOut := "input", "output"
	high := true
	cfg := hal.HALConfig{
		Version: 1,
		Buses:   []hal.BusCfg{{ID: "i2c0", Type: "i2c"}},
		Devices: []hal.DevCfg{{
			ID:     "expander-0",
			Type:   "pca9536",
			BusRef: hal.DevBusRef{ID: "i2c0", Type: "i2c"},
			Params: hal.ExpanderParams{
				PeriodMS: 1000,
				Pins: []hal.ExpanderPinCfg{
					{Pin: 0, Mode: &modeIn},
					{Pin: 1, Mode: &modeOut, Initial: &high},
				},
			},
		}},
	}
	println("[demo] publishing config/hal")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "hal"), cfg, true))

	time.Sleep(250 * time.Millisecond)

	set := bus.T("hal", "capability", "expander", 0, "control", "set")
	if _, err := uiConn.RequestWait(ctx, uiConn.NewMessage(set, map[string]any{"pin": 1, "level": true}, false)); err != nil {
		println("[demo] set error:", err.Error())
	}

	get := bus.T("hal", "capability", "expander", 0, "control", "get")
	if reply, err := uiConn.RequestWait(ctx, uiConn.NewMessage(get, map[string]any{"pin": 0}, false)); err != nil {
		println("[demo] get error:", err.Error())
	} else if m, ok := reply.Payload.(map[string]any); ok {
		if res, ok := m["result"].(map[string]any); ok {
			if lvl, ok := res["level"].(int); ok {
				println("[demo] pin 0 level:", lvl)
			}
		}
	}

	readNow := bus.T("hal", "capability", "expander", 0, "control", "read_now")
	if _, err := uiConn.RequestWait(ctx, uiConn.NewMessage(readNow, nil, false)); err != nil {
		println("[demo] read_now error:", err.Error())
	}

	time.Sleep(500 * time.Millisecond)
}

func printTopic(prefix string, t bus.Topic) {
	print(prefix)
	print(" ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
	println()
}
