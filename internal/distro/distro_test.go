// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package distro

import "testing"

func TestSplitSemiColon(t *testing.T) {
	content := "Hardware\t: BCM2835\nRevision\t: a02082\nSerial\t\t: 0000000012345678\n"
	got := splitSemiColon(content)
	if got["Hardware"] != "BCM2835" {
		t.Fatalf("got %q", got["Hardware"])
	}
	if got["Revision"] != "a02082" {
		t.Fatalf("got %q", got["Revision"])
	}
}

func TestSplitSemiColon_ignoresDuplicateKeys(t *testing.T) {
	got := splitSemiColon("A\t: 1\nA\t: 2\n")
	if got["A"] != "1" {
		t.Fatalf("first occurrence should win, got %q", got["A"])
	}
}

func TestCPUInfo(t *testing.T) {
	cpuInfo = nil
	readFile = func(string) ([]byte, error) {
		return []byte("Hardware\t: BCM2709\nRevision\t: a21041\n"), nil
	}
	defer func() { cpuInfo = nil }()
	got := CPUInfo()
	if got["Revision"] != "a21041" {
		t.Fatalf("got %q", got["Revision"])
	}
}
