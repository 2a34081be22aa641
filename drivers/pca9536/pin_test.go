package pca9536

import "testing"

func newTestPin(t *testing.T, index int) (Pin, *fakeI2C) {
	t.Helper()
	d, f := newTestDevice()
	p, err := d.Pin(index)
	if err != nil {
		t.Fatalf("Pin(%d): %v", index, err)
	}
	return p, f
}

func TestPin_IndexValidation(t *testing.T) {
	d, f := newTestDevice()
	for i := 0; i < PinCount; i++ {
		p, err := d.Pin(i)
		if err != nil {
			t.Fatalf("Pin(%d): %v", i, err)
		}
		if p.Index() != i {
			t.Fatalf("Pin(%d).Index() = %d", i, p.Index())
		}
	}
	for _, bad := range []int{-1, 4, 100} {
		if _, err := d.Pin(bad); err != ErrPinRange {
			t.Fatalf("Pin(%d) err = %v, want ErrPinRange", bad, err)
		}
	}
	if f.reads != 0 || f.writes != 0 {
		t.Fatalf("index validation touched the bus")
	}
}

func TestPin_Mode(t *testing.T) {
	p, _ := newTestPin(t, 2)
	m, err := p.Mode()
	if err != nil {
		t.Fatalf("Mode: %v", err)
	}
	if m != ModeInput {
		t.Fatalf("Mode = %v, want input", m)
	}
}

func TestPin_SetMode_DoesNotPerturbOthers(t *testing.T) {
	p, f := newTestPin(t, 2)
	if err := p.SetMode(ModeOutput); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	f.expectWrite(t, regConfig, 0xA1)
}

func TestPin_Polarity(t *testing.T) {
	p, f := newTestPin(t, 2)
	inv, err := p.PolarityInversion()
	if err != nil {
		t.Fatalf("PolarityInversion: %v", err)
	}
	if !inv {
		t.Fatalf("PolarityInversion = false, want true")
	}
	if err := p.SetPolarityInversion(false); err != nil {
		t.Fatalf("SetPolarityInversion: %v", err)
	}
	f.expectWrite(t, regPolarity, 0xA1)
}

func TestPin_Read(t *testing.T) {
	p, _ := newTestPin(t, 2)
	lvl, err := p.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !lvl {
		t.Fatalf("Read = false, want true")
	}
}

func TestPin_Write(t *testing.T) {
	p, f := newTestPin(t, 2)
	// Bit 2 is already set in the fixture: byte-identical write.
	if err := p.Write(true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.expectWrite(t, regOutputPort, 0xA5)
}

// Round-trips through the fake register file, independent of the other
// pins' prior state.
func TestPin_RoundTrips(t *testing.T) {
	d, _ := newTestDevice()
	for i := 0; i < PinCount; i++ {
		p, _ := d.Pin(i)
		for _, m := range []PinMode{ModeInput, ModeOutput} {
			if err := p.SetMode(m); err != nil {
				t.Fatalf("pin %d SetMode(%v): %v", i, m, err)
			}
			got, err := p.Mode()
			if err != nil || got != m {
				t.Fatalf("pin %d mode round-trip: got %v, %v", i, got, err)
			}
		}
		for _, inv := range []bool{true, false} {
			if err := p.SetPolarityInversion(inv); err != nil {
				t.Fatalf("pin %d SetPolarityInversion(%v): %v", i, inv, err)
			}
			got, err := p.PolarityInversion()
			if err != nil || got != inv {
				t.Fatalf("pin %d polarity round-trip: got %v, %v", i, got, err)
			}
		}
	}
}
