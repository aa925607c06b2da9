// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"testing"
	"time"

	"periph.io/x/blaster/internal/engine"
	"periph.io/x/blaster/internal/headers"
)

// fakeEngine is a minimal servoEngine double: enough state to exercise
// command dispatch without any DMA hardware.
type fakeEngine struct {
	gpio2servo map[int]int
	servo2gpio map[int]int
	width      map[int]int
	alive      bool
	lastErr    error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		gpio2servo: map[int]int{4: 0, 17: 1},
		servo2gpio: map[int]int{0: 4, 1: 17},
		width:      map[int]int{},
		alive:      true,
	}
}

func (f *fakeEngine) MappedServos() []int {
	return []int{0, 1}
}
func (f *fakeEngine) GPIO(s int) (int, bool) {
	g, ok := f.servo2gpio[s]
	return g, ok
}
func (f *fakeEngine) ServoForGPIO(gpio int) (int, bool) {
	s, ok := f.gpio2servo[gpio]
	return s, ok
}
func (f *fakeEngine) Width(s int) int { return f.width[s] }
func (f *fakeEngine) SetWidth(s, width int) error {
	f.width[s] = width
	return nil
}
func (f *fakeEngine) NumSamples() int           { return 2000 }
func (f *fakeEngine) StepTimeUs() int           { return 10 }
func (f *fakeEngine) CycleTimeUs() int          { return 20000 }
func (f *fakeEngine) ServoMinTicks() int        { return 50 }
func (f *fakeEngine) ServoMaxTicks() int        { return 250 }
func (f *fakeEngine) NextIdleTimeout() time.Duration {
	return 60 * time.Second
}
func (f *fakeEngine) IsAlive() bool { return f.alive }
func (f *fakeEngine) Snapshot() engine.Debug {
	return engine.Debug{}
}

func newTestLoop(e *fakeEngine) *Loop {
	return &Loop{
		eng:  e,
		hdrs: []headers.Header{headers.P1Rev2(), headers.P5Rev1()},
	}
}

func TestDispatchServo_SetsWidth(t *testing.T) {
	e := newFakeEngine()
	l := newTestLoop(e)

	l.dispatch("0=150")

	if e.width[0] != 150 {
		t.Fatalf("width[0] = %d, want 150", e.width[0])
	}
}

func TestDispatchServo_RejectsUnmappedIndex(t *testing.T) {
	e := newFakeEngine()
	l := newTestLoop(e)

	l.dispatch("7=150")

	if _, ok := e.width[7]; ok {
		t.Fatal("expected servo 7 (unmapped) to not receive a width")
	}
}

func TestDispatchHeaderPin_ResolvesToServo(t *testing.T) {
	e := newFakeEngine()
	l := newTestLoop(e)

	// P1 pin 7 is GPIO4 (headers.P1Rev2), which maps to servo 0.
	l.dispatch("P1-7=100")

	if e.width[0] != 100 {
		t.Fatalf("width[0] = %d, want 100", e.width[0])
	}
}

func TestDispatchHeaderPin_RejectsNonGPIOPin(t *testing.T) {
	e := newFakeEngine()
	l := newTestLoop(e)

	// P1 pin 1 is 3V3, not a GPIO.
	l.dispatch("P1-1=100")

	if len(e.width) != 0 {
		t.Fatalf("expected no width set, got %v", e.width)
	}
}

func TestDispatchServo_RejectsOutOfRangeWidth(t *testing.T) {
	e := newFakeEngine()
	l := newTestLoop(e)

	l.dispatch("0=9999")

	if _, ok := e.width[0]; ok {
		t.Fatal("expected an out-of-range width to be rejected, not applied")
	}
}

func TestDispatchServo_AcceptsZero(t *testing.T) {
	e := newFakeEngine()
	l := newTestLoop(e)

	l.dispatch("0=150")
	l.dispatch("0=0")

	if e.width[0] != 0 {
		t.Fatalf("width[0] = %d, want 0", e.width[0])
	}
}
