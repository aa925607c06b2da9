// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package board

import (
	"testing"

	"periph.io/x/blaster/internal/bcm283x"
	"periph.io/x/blaster/internal/videocore"
)

func TestParseRevision_oldStyle(t *testing.T) {
	cases := []struct {
		rev  string
		want Model
	}{
		{"0002", Rev1},
		{"0003", Rev1},
		{"0004", Rev2Plus},
		{"000f", Rev2Plus},
		{"0010", BPlus40Pin},
		{"1000003", Rev1}, // overvolt bit set, same as "0003"
	}
	for _, c := range cases {
		got, err := parseRevision(c.rev)
		if err != nil {
			t.Fatalf("%s: %v", c.rev, err)
		}
		if got != c.want {
			t.Errorf("%s: got %s, want %s", c.rev, got, c.want)
		}
	}
}

func TestParseRevision_newStyle(t *testing.T) {
	// a02082: new-style, processor field 2 (BCM2837, Pi3B).
	got, err := parseRevision("a02082")
	if err != nil {
		t.Fatal(err)
	}
	if got != BPlus40Pin {
		t.Fatalf("got %s, want BPlus40Pin", got)
	}
	if got.PLLDFreqMHz() != 500 {
		t.Fatalf("got %d MHz, want 500", got.PLLDFreqMHz())
	}
}

func TestParseRevision_pi4Is750MHz(t *testing.T) {
	// c03111: new-style, processor field 3 (BCM2711, Pi4B).
	got, err := parseRevision("c03111")
	if err != nil {
		t.Fatal(err)
	}
	if got.PLLDFreqMHz() != 750 {
		t.Fatalf("got %d MHz, want 750", got.PLLDFreqMHz())
	}
}

func TestParseRevision_invalid(t *testing.T) {
	if _, err := parseRevision("not-hex"); err == nil {
		t.Fatal("expected error")
	}
}

func TestModel_MemFlags(t *testing.T) {
	if Rev1.MemFlags()&videocore.FlagCoherent == 0 {
		t.Fatal("Rev1 must request coherent memory")
	}
	if Rev2Plus.MemFlags()&videocore.FlagCoherent != 0 {
		t.Fatal("Rev2Plus must not request coherent memory")
	}
	if BPlus40Pin.MemFlags()&videocore.FlagCoherent != 0 {
		t.Fatal("BPlus40Pin must not request coherent memory")
	}
}

func TestModel_PeripheralBase(t *testing.T) {
	if Rev1.PeripheralBase() != bcm283x.Base2835 {
		t.Fatal("Rev1 is always BCM2835")
	}
	if Rev2Plus.PeripheralBase() != bcm283x.Base2835 {
		t.Fatal("Rev2Plus is always BCM2835")
	}
	if BPlus40Pin.PeripheralBase() != bcm283x.Base2836 {
		t.Fatal("40 pin boards use the BCM2836+ base")
	}
}

func TestModel_Headers(t *testing.T) {
	if len(Rev1.Headers()) != 1 {
		t.Fatal("Rev1 has only P1")
	}
	if len(Rev2Plus.Headers()) != 2 {
		t.Fatal("Rev2Plus has P1 and P5")
	}
	if len(BPlus40Pin.Headers()) != 1 || len(BPlus40Pin.Headers()[0].Pins) != 40 {
		t.Fatal("BPlus40Pin has a single 40 pin header")
	}
}
