// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bcm283x

import "testing"

func TestPWMMap_ConfigureChannel1(t *testing.T) {
	p := PWMMap{}
	p.ConfigureChannel1(32)
	if p.Range1 != 32 {
		t.Fatalf("got range %d, want 32", p.Range1)
	}
	if pwmControl(p.Ctl)&(usef1|mode1|pwen1) != usef1|mode1|pwen1 {
		t.Fatalf("channel 1 should be enabled in FIFO-fed serial mode, got 0x%x", p.Ctl)
	}
}

func TestPWMMap_ConfigureFIFOPaced(t *testing.T) {
	p := PWMMap{}
	p.ConfigureFIFOPaced(10)
	if p.Range1 != 10 {
		t.Fatalf("got range %d, want 10", p.Range1)
	}
	if p.DMACfg != uint32(enab)|15<<8|15 {
		t.Fatalf("got dmac 0x%x, want ENAB with thresholds 15/15", p.DMACfg)
	}
	if pwmControl(p.Ctl)&(usef1|pwen1) != usef1|pwen1 {
		t.Fatalf("channel 1 should be FIFO-fed and enabled, got 0x%x", p.Ctl)
	}
}
