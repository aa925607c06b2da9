// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

// initHardware brings the clock generator, pacing peripheral and DMA
// channel up in the order the datasheet requires (§4.2): disable the
// pacing peripheral, disable the clock, reprogram its divider, re-enable
// it, letting each step settle, configure the FIFO, then start the DMA
// channel against the control-block chain built by buildControlBlocks.
// It assumes every peripheral register view is already mapped and the
// chain is already built.
func (e *Engine) initHardware() {
	clock := e.pwmClock
	if e.cfg.UsePCM {
		clock = e.pcmClock
	}

	if e.cfg.UsePCM {
		e.pcm.Disable()
	} else {
		e.pwm.Disable()
	}
	e.busyWaitMicros(10)

	clock.DisablePLLD()
	e.busyWaitMicros(10)
	clock.SetPLLDDivider(e.cfg.Model.PLLDFreqMHz())
	e.busyWaitMicros(10)
	clock.EnablePLLD()
	e.busyWaitMicros(10)

	if e.cfg.UsePCM {
		e.pwm.Disable()
		e.pcm.ConfigureFIFOPaced(uint32(e.cfg.StepTimeUs))
	} else {
		e.pcm.Disable()
		e.pwm.ConfigureFIFOPaced(uint32(e.cfg.StepTimeUs))
	}

	e.dma.StartPaced(e.arena.cbBusAddr(0))
	e.busyWaitMicros(10)

	if e.cfg.UsePCM {
		e.pcm.EnableTx()
	}
}

// busyWaitMicros spins on the free-running system timer for at least us
// microseconds. The bring-up delays it guards are too short (10-20us) for
// a syscall-based sleep to be reliable, and §4.2's ordering depends on
// each step actually having settled before the next one runs.
func (e *Engine) busyWaitMicros(us uint64) {
	start := e.timer.Micros()
	for e.timer.Micros()-start < us {
	}
}
