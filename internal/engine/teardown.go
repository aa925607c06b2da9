// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import "go.uber.org/multierr"

// restoreGPIO puts every mapped pin back into the function it had before
// this process took it over. It is also used on New's own failure paths,
// where only a prefix of e.pins has been captured.
func (e *Engine) restoreGPIO() {
	for _, s := range e.mapped {
		if p := e.pins[s]; p != nil {
			p.Restore(e.gpio)
		}
	}
}

// Close tears the engine down in the order §4.7 requires: drain every
// mapped servo to zero width and let the last in-flight pulse finish,
// stop the DMA channel, disable the pacing peripheral and its clock,
// restore every mapped GPIO pin, then release the VideoCore arena and
// unmap the peripheral register views. Every step runs even if an
// earlier one fails, and all failures are reported together so the
// caller sees the whole picture rather than just the first one.
func (e *Engine) Close() error {
	for _, s := range e.mapped {
		_ = e.SetWidth(s, 0)
	}
	e.busyWaitMicros(uint64(e.cfg.CycleTimeUs))

	e.dma.Stop()

	if e.cfg.UsePCM {
		e.pcm.Disable()
	} else {
		e.pwm.Disable()
	}

	clock := e.pwmClock
	if e.cfg.UsePCM {
		clock = e.pcmClock
	}
	clock.DisablePLLD()

	e.restoreGPIO()

	var err error
	err = multierr.Combine(err, e.arena.close())
	err = multierr.Combine(err, e.gpioView.Close())
	err = multierr.Combine(err, e.pwmView.Close())
	err = multierr.Combine(err, e.pcmView.Close())
	err = multierr.Combine(err, e.clockView.Close())
	err = multierr.Combine(err, e.dmaView.Close())
	err = multierr.Combine(err, e.timerView.Close())
	return err
}
