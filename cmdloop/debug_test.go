// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"bytes"
	"strings"
	"testing"

	"periph.io/x/blaster/internal/engine"
)

type debugFakeEngine struct {
	fakeEngine
	snap engine.Debug
}

func (f *debugFakeEngine) Snapshot() engine.Debug { return f.snap }

func TestDebug_PrintsServoSummaryAndRuns(t *testing.T) {
	e := &debugFakeEngine{fakeEngine: *newFakeEngine()}
	e.snap = engine.Debug{
		CBAddrBefore: 0x1000,
		CBAddrAfter:  0x1010,
		Servos: []engine.ServoDebug{
			{Servo: 0, Start: 0, Width: 150, TurnOn: true},
			{Servo: 1, Start: 500, Width: 0, TurnOn: false},
		},
		Samples: []engine.SampleRun{
			{FirstSample: 0, Mask: 1 << 4},
			{FirstSample: 150, Mask: 0},
		},
	}
	var buf bytes.Buffer
	l := newTestLoop(&e.fakeEngine)
	l.eng = e
	l.out = &buf

	l.debug()

	out := buf.String()
	if !strings.Contains(out, "00001000 00001010") {
		t.Errorf("missing CB-addr header line, got:\n%s", out)
	}
	if !strings.Contains(out, "servo=0 gpio=4 start=0 width=150 on=1") {
		t.Errorf("missing servo 0 summary, got:\n%s", out)
	}
	if !strings.Contains(out, "servo=1 gpio=17 start=500 width=0 on=0") {
		t.Errorf("missing servo 1 summary, got:\n%s", out)
	}
	if !strings.Contains(out, "150S") {
		t.Errorf("expected a 150-sample set run for GPIO4, got:\n%s", out)
	}
}

func TestRasterGPIO_MergesAdjacentRunsOfSameSense(t *testing.T) {
	samples := []engine.SampleRun{
		{FirstSample: 0, Mask: 1 << 4},
		{FirstSample: 50, Mask: 1<<4 | 1<<17}, // GPIO4 still set, GPIO17 changed
		{FirstSample: 150, Mask: 0},
	}
	got := rasterGPIO(samples, 1<<4, 200)
	if got != "150S50C" {
		t.Fatalf("got %q, want \"150S50C\"", got)
	}
}

func TestRasterGPIO_EmptyWhenNoSamples(t *testing.T) {
	if got := rasterGPIO(nil, 1<<4, 200); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
