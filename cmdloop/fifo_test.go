// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"periph.io/x/blaster/internal/headers"
)

func TestWriteConfigFile_ListsHeadersAndMappedServos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg")
	var servo2gpio [32]uint8
	for i := range servo2gpio {
		servo2gpio[i] = 255
	}
	servo2gpio[0] = 4
	servo2gpio[1] = 17

	hdrs := []headers.Header{headers.P1Rev2(), headers.P5Rev1()}
	if err := writeConfigFile(path, hdrs, servo2gpio, 255); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "P1pins=") {
		t.Errorf("missing P1pins line, got:\n%s", out)
	}
	if !strings.Contains(out, "P5pins=") {
		t.Errorf("missing P5pins line, got:\n%s", out)
	}
	if !strings.Contains(out, "0\tP1\t7\t4") {
		t.Errorf("missing servo 0 row (P1 pin 7, GPIO4), got:\n%s", out)
	}
	if !strings.Contains(out, "1\tP1\t11\t17") {
		t.Errorf("missing servo 1 row (P1 pin 11, GPIO17), got:\n%s", out)
	}
}

func TestOpenFIFO_RecreatesNamedPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifo")

	f, err := openFIFO(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	fi, err := os.Lstat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Fatalf("expected %s to be a named pipe, mode=%v", path, fi.Mode())
	}

	// Recreating over the existing pipe must succeed, not fail on an
	// already-exists error.
	f2, err := openFIFO(path)
	if err != nil {
		t.Fatal(err)
	}
	f2.Close()
}
