// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

// IsAlive samples the DMA channel's current control block address twice,
// 2*StepTimeUs apart, and reports whether it moved. A dead chain means
// the DMA engine stopped advancing — most likely an AXI bus error — and
// every mapped servo has silently frozen at its last pulse width (§4.6).
// The short window keeps the probe fast; a chain that advances less than
// once per 2*StepTimeUs would also be reported as dead.
func (e *Engine) IsAlive() bool {
	last := e.dma.CBAddr
	e.busyWaitMicros(uint64(2 * e.cfg.StepTimeUs))
	return e.dma.CBAddr != last
}

// Err reports a non-nil error if the DMA channel's debug register has
// latched a condition serious enough that the caller should tear down
// and restart rather than keep polling.
func (e *Engine) Err() error {
	return e.dma.Err()
}

// ServoDebug is one servo's stagger/width/turn-on snapshot, as rendered
// by the command loop's debug command (§4.6).
type ServoDebug struct {
	Servo  int
	Start  int
	Width  int
	TurnOn bool
}

// SampleRun is one run of identical turnoff-mask values across a
// contiguous range of sample slots, the same run-length compression the
// original debug dump used to keep its output readable.
type SampleRun struct {
	FirstSample int
	Mask        uint32
}

// Debug is a full snapshot of the engine's internal state for
// diagnostics: whether the DMA chain is still alive, every mapped
// servo's bookkeeping, and the turn-off mask's value at each point it
// changes across one cycle.
type Debug struct {
	CBAddrBefore uint32
	CBAddrAfter  uint32
	Servos       []ServoDebug
	Samples      []SampleRun
}

// Snapshot gathers a Debug report. It busy-waits 2*StepTimeUs the same
// way IsAlive does, so a caller only needs one or the other, not both.
func (e *Engine) Snapshot() Debug {
	d := Debug{CBAddrBefore: e.dma.CBAddr}
	e.busyWaitMicros(uint64(2 * e.cfg.StepTimeUs))
	d.CBAddrAfter = e.dma.CBAddr

	var mask uint32
	for _, s := range e.mapped {
		gpio, _ := e.GPIO(s)
		d.Servos = append(d.Servos, ServoDebug{
			Servo:  s,
			Start:  e.servoStart[s],
			Width:  e.servoWidth[s],
			TurnOn: e.arena.turnonMask[s] != 0,
		})
		mask |= 1 << uint(gpio)
	}

	last := ^uint32(0)
	for i, v := range e.arena.turnoffMask {
		curr := v & mask
		if curr != last {
			d.Samples = append(d.Samples, SampleRun{FirstSample: i, Mask: curr})
		}
		last = curr
	}
	return d
}
