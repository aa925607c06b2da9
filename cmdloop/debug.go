// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cmdloop

import (
	"bufio"
	"fmt"

	"periph.io/x/blaster/internal/engine"
)

// debug writes the "debug" command's dump: one summary line per mapped
// servo followed by a run-length-encoded trace of that servo's pin
// across the cycle, adapted from the bit-rastering helpers periph's
// streaming GPIO package uses to turn a sample buffer into compact runs
// (there: encoding a stream into set/clear masks; here: diffing a mask
// buffer's bit back into runs).
func (l *Loop) debug() {
	w := bufio.NewWriter(l.out)
	defer w.Flush()

	snap := l.eng.Snapshot()
	fmt.Fprintf(w, "%08x %08x\n", snap.CBAddrBefore, snap.CBAddrAfter)

	numSamples := l.eng.NumSamples()
	for _, sd := range snap.Servos {
		gpio, _ := l.eng.GPIO(sd.Servo)
		on := 0
		if sd.TurnOn {
			on = 1
		}
		fmt.Fprintf(w, "servo=%d gpio=%d start=%d width=%d on=%d\n", sd.Servo, gpio, sd.Start, sd.Width, on)
		fmt.Fprintln(w, rasterGPIO(snap.Samples, uint32(1)<<uint(gpio), numSamples))
	}
}

// rasterGPIO walks the combined sample-run list snap.Samples already
// computed (one entry per point where *any* mapped GPIO's bit changes)
// and re-derives run lengths for a single GPIO's bit, RLE-encoding them
// as "<runlen><C|S>" tokens: C means the pin was clear (pulse high) for
// that run, S means set (pulse low).
func rasterGPIO(samples []engine.SampleRun, bit uint32, numSamples int) string {
	if len(samples) == 0 || numSamples == 0 {
		return ""
	}
	out := ""
	runLen, runSet := 0, false
	flush := func() {
		if runLen == 0 {
			return
		}
		token := "C"
		if runSet {
			token = "S"
		}
		out += fmt.Sprintf("%d%s", runLen, token)
	}
	for i, run := range samples {
		end := numSamples
		if i+1 < len(samples) {
			end = samples[i+1].FirstSample
		}
		length := end - run.FirstSample
		if length <= 0 {
			continue
		}
		set := run.Mask&bit != 0
		if runLen > 0 && set != runSet {
			flush()
			runLen = 0
		}
		runSet = set
		runLen += length
	}
	flush()
	return out
}
