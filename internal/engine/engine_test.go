// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import "periph.io/x/blaster/internal/bcm283x"

// newTestEngine builds an Engine with plain, non-mmap'd backing memory
// for the servo slots and peripheral registers listed in gpios, indexed
// 0..len(gpios)-1. It exercises exactly the logic in width.go, idle.go,
// status.go and cbchain.go without touching /dev/mem or VideoCore, the
// same way bcm283x's own tests drive its register structs directly.
func newTestEngine(numSamples int, gpios ...uint8) *Engine {
	cfg := Config{
		CycleTimeUs:   numSamples * 10,
		StepTimeUs:    10,
		ServoMinTicks: 1,
		ServoMaxTicks: numSamples - 1,
	}
	for s := range cfg.Servo2GPIO {
		cfg.Servo2GPIO[s] = DMY
	}
	for s, g := range gpios {
		cfg.Servo2GPIO[s] = g
	}

	e := &Engine{
		cfg:    cfg,
		mapped: cfg.mappedServos(),
		gpio:   &bcm283x.GPIOMap{},
		dma:    &bcm283x.DMAChannelMap{},
		timer:  &bcm283x.SystemTimerMap{},
	}
	e.arena = &arena{
		numSamples:  numSamples,
		turnoffMask: make([]uint32, numSamples),
		turnonMask:  make([]uint32, MaxServos),
	}
	return e
}
