// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package engine is the DMA-paced multi-servo pulse generator: it lays
// out the shared memory arena, builds the circular control-block chain,
// brings up the pacing peripheral and DMA channel, and exposes the
// glitch-free width-update and idle-supervisor operations the command
// loop drives at runtime.
package engine

import (
	"time"

	"github.com/pkg/errors"

	"periph.io/x/blaster/internal/bcm283x"
	"periph.io/x/blaster/internal/board"
)

// MaxServos is the number of servo slots the engine tracks, indexed
// 0..31 regardless of how many are actually mapped to a GPIO.
const MaxServos = 32

// DMY marks a servo slot in Config.Servo2GPIO as unmapped.
const DMY uint8 = 255

// Config bundles everything the engine needs to bring the DMA chain up
// for one run; it is built once at startup and never mutated afterward.
type Config struct {
	// Model is the detected board, used to pick the PLLD frequency, the
	// VideoCore memory flags and the peripheral physical base address.
	Model board.Model
	// CycleTimeUs is the pulse repetition period; NumSamples = CycleTimeUs
	// / StepTimeUs must be an integer >= 100.
	CycleTimeUs int
	// StepTimeUs is the pulse width granularity: one DMA-paced FIFO write
	// per StepTimeUs microseconds.
	StepTimeUs int
	// ServoMinTicks and ServoMaxTicks bound a non-zero pulse width, in
	// ticks of StepTimeUs. Zero is always a legal width (idle).
	ServoMinTicks int
	ServoMaxTicks int
	// IdleTimeout is how long a servo may go without a width update
	// before the idle supervisor suppresses its pulse. Zero disables the
	// supervisor entirely.
	IdleTimeout time.Duration
	// Invert swaps the sense of the turn-on/turn-off control blocks, so
	// pulses idle high instead of low.
	Invert bool
	// UsePCM selects the PCM peripheral as the pacing source instead of
	// PWM.
	UsePCM bool
	// DMAChannel is which DMA channel to claim. Validate does not check
	// its range; blasterd defaults it to 14.
	DMAChannel int
	// Servo2GPIO maps each servo slot to a BCM GPIO number, or DMY if the
	// slot carries no servo.
	Servo2GPIO [MaxServos]uint8
}

// Validate checks the timing lattice and servo mapping invariants (§3,
// §8 I4) that must hold before the engine can build its control-block
// chain; everything else (resource acquisition) can only fail later.
func (c *Config) Validate() error {
	if c.StepTimeUs <= 0 || c.CycleTimeUs <= 0 {
		return errors.New("engine: cycle-time and step-time must be positive")
	}
	if c.CycleTimeUs%c.StepTimeUs != 0 {
		return errors.New("engine: cycle-time is not a multiple of step-time")
	}
	numSamples := c.CycleTimeUs / c.StepTimeUs
	if numSamples < 100 {
		return errors.New("engine: cycle-time must be at least 100 * step-time")
	}
	if c.ServoMaxTicks > numSamples {
		return errors.New("engine: max value is larger than the cycle time")
	}
	if c.ServoMinTicks >= c.ServoMaxTicks {
		return errors.New("engine: min value is >= max value")
	}
	seen := map[uint8]int{}
	numServos := 0
	for s := 0; s < MaxServos; s++ {
		g := c.Servo2GPIO[s]
		if g == DMY {
			continue
		}
		if int(g) > bcm283x.MaxGPIO {
			return errors.Errorf("engine: servo %d maps to invalid GPIO %d", s, g)
		}
		if prev, ok := seen[g]; ok {
			return errors.Errorf("engine: servo %d and %d both map to GPIO %d", prev, s, g)
		}
		seen[g] = s
		numServos++
	}
	if numServos == 0 {
		return errors.New("engine: no servo is mapped to a GPIO")
	}
	return nil
}

// numSamples returns CycleTimeUs/StepTimeUs; callers must have already
// validated the config.
func (c *Config) numSamples() int {
	return c.CycleTimeUs / c.StepTimeUs
}

// mappedServos returns the indices of every mapped servo slot, in
// ascending order — the order §4.1 stagger assignment and the
// control-block builder both rely on.
func (c *Config) mappedServos() []int {
	var out []int
	for s := 0; s < MaxServos; s++ {
		if c.Servo2GPIO[s] != DMY {
			out = append(out, s)
		}
	}
	return out
}
