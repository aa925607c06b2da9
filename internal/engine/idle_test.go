// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"testing"
	"time"
)

func TestNextIdleTimeout_DisabledReturnsBackstop(t *testing.T) {
	e := newTestEngine(100, 4)
	if got := e.NextIdleTimeout(); got != maxIdlePoll {
		t.Fatalf("got %v, want %v", got, maxIdlePoll)
	}
}

func TestUpdateIdleDeadline_SchedulesFutureShutoff(t *testing.T) {
	e := newTestEngine(100, 4)
	e.cfg.IdleTimeout = 50 * time.Millisecond
	e.updateIdleDeadline(0)
	d := e.NextIdleTimeout()
	if d <= 0 || d > 50*time.Millisecond {
		t.Fatalf("got %v, want something in (0, 50ms]", d)
	}
	// Width-zero for the mapped servo; nothing should have fired yet.
	if e.arena.turnonMask[0] != 0 {
		t.Fatal("turnonMask should not have changed before the deadline")
	}
}

func TestNextIdleTimeout_FiresPastDeadline(t *testing.T) {
	e := newTestEngine(100, 4)
	e.cfg.IdleTimeout = time.Millisecond
	e.arena.turnonMask[0] = 1 << 4
	e.servoKillTime[0] = time.Now().Add(-time.Second)

	e.NextIdleTimeout()

	if e.arena.turnonMask[0] != 0 {
		t.Fatal("expected setIdle to clear turnonMask")
	}
	if !e.servoKillTime[0].IsZero() {
		t.Fatal("expected the fired deadline to be cleared")
	}
}

func TestSetIdle_Force100PercentPulseLow(t *testing.T) {
	e := newTestEngine(100, 4)
	e.servoWidth[0] = e.arena.numSamples // full duty cycle, no turn-off block

	e.setIdle(0)

	if e.gpio.OutputClear[0]&(1<<4) == 0 {
		t.Fatal("expected GPIO 4 to be force-cleared")
	}
}

func TestSetIdle_InvertForcesHigh(t *testing.T) {
	e := newTestEngine(100, 4)
	e.cfg.Invert = true
	e.servoWidth[0] = e.arena.numSamples

	e.setIdle(0)

	if e.gpio.OutputSet[0]&(1<<4) == 0 {
		t.Fatal("expected GPIO 4 to be force-set when inverted")
	}
}

func TestSetIdle_PartialWidthLeavesGPIOAlone(t *testing.T) {
	e := newTestEngine(100, 4)
	e.servoWidth[0] = 10

	e.setIdle(0)

	if e.gpio.OutputSet[0] != 0 || e.gpio.OutputClear[0] != 0 {
		t.Fatal("a partial-width pulse must not be forced off directly; the turn-off block handles it")
	}
}
