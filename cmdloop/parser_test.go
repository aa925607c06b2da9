// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import "testing"

func TestParseWidth_Ticks(t *testing.T) {
	got, err := parseWidth("150", 0, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 150 {
		t.Fatalf("got %d, want 150", got)
	}
}

func TestParseWidth_Microseconds(t *testing.T) {
	got, err := parseWidth("1500us", 0, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 150 {
		t.Fatalf("got %d, want 150 (1500/10)", got)
	}
}

func TestParseWidth_Percent(t *testing.T) {
	got, err := parseWidth("50%", 0, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	// 50% of (250-50) + 50 = 150
	if got != 150 {
		t.Fatalf("got %d, want 150", got)
	}
}

func TestParseWidth_RelativePlusClampsToMax(t *testing.T) {
	got, err := parseWidth("+30", 240, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 250 {
		t.Fatalf("got %d, want clamp to 250", got)
	}
}

func TestParseWidth_RelativeMinusClampsToMin(t *testing.T) {
	got, err := parseWidth("-100", 80, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Fatalf("got %d, want clamp to 50", got)
	}
}

func TestParseWidth_RelativePlusOrdinary(t *testing.T) {
	got, err := parseWidth("+30", 100, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 130 {
		t.Fatalf("got %d, want 130", got)
	}
}

func TestParseWidth_ZeroAlwaysAccepted(t *testing.T) {
	got, err := parseWidth("0", 150, 50, 250, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestParseWidth_OutOfRangeRejected(t *testing.T) {
	if _, err := parseWidth("9999", 130, 50, 250, 10); err == nil {
		t.Fatal("expected an error for an out-of-range absolute width")
	}
}

func TestParseWidth_MalformedRejected(t *testing.T) {
	cases := []string{"", "abc", "-", "+", "us", "%"}
	for _, c := range cases {
		if _, err := parseWidth(c, 0, 50, 250, 10); err == nil {
			t.Errorf("parseWidth(%q): expected error, got none", c)
		}
	}
}
