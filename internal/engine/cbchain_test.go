// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"testing"

	"periph.io/x/blaster/internal/bcm283x"
	"periph.io/x/blaster/internal/videocore"
)

// newTestArenaForChain returns an arena with real (non-mmap'd) backing
// slices, sized exactly like newArena would for numSamples samples and
// every one of MaxServos turn-on slots, plus enough control blocks to
// cover the worst case (every servo mapped).
func newTestArenaForChain(numSamples int) *arena {
	numCBs := 2*numSamples + MaxServos
	return &arena{
		mem:         &videocore.Mem{},
		numSamples:  numSamples,
		numCBs:      numCBs,
		turnoffMask: make([]uint32, numSamples),
		turnonMask:  make([]uint32, MaxServos),
		cbs:         make([]bcm283x.ControlBlock, numCBs),
	}
}

func TestBuildControlBlocks_StaggersServos(t *testing.T) {
	e := newTestEngine(100, 4, 5, 6, 7)
	e.arena = newTestArenaForChain(100)

	if err := e.buildControlBlocks(); err != nil {
		t.Fatal(err)
	}

	wantStride := 100 / 4
	for k, s := range e.mapped {
		if want := k * wantStride; e.servoStart[s] != want {
			t.Errorf("servoStart[%d] = %d, want %d", s, e.servoStart[s], want)
		}
	}
}

func TestBuildControlBlocks_ChainClosesOnItself(t *testing.T) {
	e := newTestEngine(50, 4)
	e.arena = newTestArenaForChain(50)

	if err := e.buildControlBlocks(); err != nil {
		t.Fatal(err)
	}
	if e.numCBsUsed == 0 {
		t.Fatal("expected at least one control block to be emitted")
	}
	last := &e.arena.cbs[e.numCBsUsed-1]
	if last.NextCB != e.arena.cbBusAddr(0) {
		t.Fatalf("chain does not close back onto cbs[0]: got 0x%x, want 0x%x", last.NextCB, e.arena.cbBusAddr(0))
	}
}

func TestBuildControlBlocks_SeedsTurnoffMaskToAllMappedPins(t *testing.T) {
	e := newTestEngine(50, 4, 5)
	e.arena = newTestArenaForChain(50)

	if err := e.buildControlBlocks(); err != nil {
		t.Fatal(err)
	}
	want := uint32(1<<4 | 1<<5)
	for i, v := range e.arena.turnoffMask {
		if v != want {
			t.Fatalf("turnoffMask[%d] = %#x, want %#x", i, v, want)
		}
	}
}

func TestBuildControlBlocks_UsesPCMFIFOWhenConfigured(t *testing.T) {
	e := newTestEngine(50, 4)
	e.cfg.UsePCM = true
	e.arena = newTestArenaForChain(50)

	if err := e.buildControlBlocks(); err != nil {
		t.Fatal(err)
	}
	// Every delay block's destination is the PCM FIFO, not the PWM one;
	// spot check the first one.
	foundPCM := false
	for i := 0; i < e.numCBsUsed; i++ {
		if e.arena.cbs[i].DstAddr == 0x7E000000+uint32(bcm283x.OffsetPCM)+uint32(bcm283x.PCMFifoOffset) {
			foundPCM = true
			break
		}
	}
	if !foundPCM {
		t.Fatal("expected at least one control block pacing off the PCM FIFO")
	}
}
