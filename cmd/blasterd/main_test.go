// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"testing"

	"periph.io/x/blaster/internal/engine"
	"periph.io/x/blaster/internal/headers"
)

func TestParseMinMaxArg_Ticks(t *testing.T) {
	got, err := parseMinMaxArg("50", "min", 20000, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestParseMinMaxArg_Microseconds(t *testing.T) {
	got, err := parseMinMaxArg("500us", "min", 20000, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestParseMinMaxArg_Percent(t *testing.T) {
	got, err := parseMinMaxArg("12.5%", "max", 20000, 10)
	if err != nil {
		t.Fatal(err)
	}
	// 12.5% of 20000us / 10us per tick = 250 ticks.
	if got != 250 {
		t.Fatalf("got %d, want 250", got)
	}
}

func TestParseMinMaxArg_RejectsNonMultipleOfStepTime(t *testing.T) {
	if _, err := parseMinMaxArg("505us", "min", 20000, 10); err == nil {
		t.Fatal("expected an error for a non-multiple-of-step-time microsecond value")
	}
}

func TestParseMinMaxArg_RejectsOver100Percent(t *testing.T) {
	if _, err := parseMinMaxArg("150%", "max", 20000, 10); err == nil {
		t.Fatal("expected an error for a percentage over 100")
	}
}

func TestAssignPinList_SkipsZero(t *testing.T) {
	h := headers.P1Rev2()
	var servo2gpio [engine.MaxServos]uint8
	for i := range servo2gpio {
		servo2gpio[i] = engine.DMY
	}
	s := 0

	if err := assignPinList(h, "7,0,11", &s, &servo2gpio); err != nil {
		t.Fatal(err)
	}
	if servo2gpio[0] != 4 { // P1-7 is GPIO4
		t.Fatalf("servo2gpio[0] = %d, want 4", servo2gpio[0])
	}
	if servo2gpio[1] != engine.DMY {
		t.Fatalf("servo2gpio[1] = %d, want DMY (the \"0\" slot)", servo2gpio[1])
	}
	if servo2gpio[2] != 17 { // P1-11 is GPIO17
		t.Fatalf("servo2gpio[2] = %d, want 17", servo2gpio[2])
	}
	if s != 3 {
		t.Fatalf("servo cursor = %d, want 3", s)
	}
}

func TestAssignPinList_RejectsNonServoPin(t *testing.T) {
	h := headers.P1Rev2()
	var servo2gpio [engine.MaxServos]uint8
	s := 0

	// Pin 1 is 3V3, not a GPIO.
	if err := assignPinList(h, "1", &s, &servo2gpio); err == nil {
		t.Fatal("expected an error for a non-GPIO pin")
	}
}

func TestAssignPinList_RejectsOutOfRangePin(t *testing.T) {
	h := headers.P1Rev2()
	var servo2gpio [engine.MaxServos]uint8
	s := 0

	if err := assignPinList(h, "99", &s, &servo2gpio); err == nil {
		t.Fatal("expected an error for an out-of-range pin number")
	}
}
