// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bcm283x

import "testing"

func TestPCMMap_Configure(t *testing.T) {
	p := PCMMap{}
	p.Configure()
	if pcmCS(p.CS)&(pcmTXEnable|pcmDMAEnable) != pcmTXEnable|pcmDMAEnable {
		t.Fatalf("PCM TX and its DMA request should both be enabled, got 0x%x", p.CS)
	}
}

func TestPCMMap_ConfigureFIFOPaced(t *testing.T) {
	p := PCMMap{}
	p.ConfigureFIFOPaced(10)
	if p.Mode != 9 {
		t.Fatalf("got mode divider %d, want 9", p.Mode)
	}
	if pcmCS(p.CS)&pcmTXEnable != 0 {
		t.Fatal("Tx should not be enabled before the DMA engine has started")
	}
	if pcmCS(p.CS)&pcmDMAEnable == 0 {
		t.Fatal("DMA request should be enabled")
	}
	p.EnableTx()
	if pcmCS(p.CS)&pcmTXEnable == 0 {
		t.Fatal("Tx should be enabled after EnableTx")
	}
}
