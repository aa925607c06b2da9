// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

// ServoForGPIO returns the servo slot mapped to the given BCM GPIO
// number, if any. The command loop uses it to resolve the "PH-P=width"
// header/pin form down to a servo index once it has turned the pin
// position into a GPIO number.
func (e *Engine) ServoForGPIO(gpio int) (int, bool) {
	for s := 0; s < MaxServos; s++ {
		if int(e.cfg.Servo2GPIO[s]) == gpio {
			return s, true
		}
	}
	return 0, false
}

// StepTimeUs, CycleTimeUs, ServoMinTicks and ServoMaxTicks expose the
// timing lattice the command parser needs to convert a width given in
// microseconds or percent into ticks.
func (e *Engine) StepTimeUs() int    { return e.cfg.StepTimeUs }
func (e *Engine) CycleTimeUs() int   { return e.cfg.CycleTimeUs }
func (e *Engine) ServoMinTicks() int { return e.cfg.ServoMinTicks }
func (e *Engine) ServoMaxTicks() int { return e.cfg.ServoMaxTicks }
