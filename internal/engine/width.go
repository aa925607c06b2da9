// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import "github.com/pkg/errors"

// SetWidth updates servo s's pulse width to width ticks of StepTimeUs,
// or to 0 to idle it. It carefully adds or removes bits from the
// turnoff mask so that, regardless of where the DMA controller
// currently is in its cycle, the pulse the hardware generates this
// cycle is either the old width or the new one, never something in
// between (§4.3, §8 I1). Any non-zero width reasserts the servo's
// turn-on mask bit, which re-arms a servo the idle supervisor had
// suppressed; a width of 0 clears it. Every call restarts the servo's
// idle deadline.
func (e *Engine) SetWidth(s int, width int) error {
	gpio, ok := e.GPIO(s)
	if !ok {
		return errors.Errorf("engine: servo %d is not mapped to a GPIO", s)
	}
	if width != 0 && (width < e.cfg.ServoMinTicks || width > e.cfg.ServoMaxTicks) {
		return errors.Errorf("engine: width %d out of range [%d, %d]", width, e.cfg.ServoMinTicks, e.cfg.ServoMaxTicks)
	}

	mask := uint32(1) << uint(gpio)
	numSamples := e.arena.numSamples
	turnoff := e.arena.turnoffMask
	old := e.servoWidth[s]
	start := e.servoStart[s]

	if width > old {
		idx := start + width
		if idx >= numSamples {
			idx -= numSamples
		}
		for i := width; i > old; i-- {
			idx--
			if idx < 0 {
				idx = numSamples - 1
			}
			turnoff[idx] &^= mask
		}
	} else if width < old {
		idx := start + width
		if idx >= numSamples {
			idx -= numSamples
		}
		for i := width; i < old; i++ {
			turnoff[idx] |= mask
			idx++
			if idx >= numSamples {
				idx = 0
			}
		}
	}

	e.servoWidth[s] = width
	if width == 0 {
		e.arena.turnonMask[s] = 0
	} else {
		e.arena.turnonMask[s] = mask
	}
	e.updateIdleDeadline(s)
	return nil
}
