// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"github.com/pkg/errors"

	"periph.io/x/blaster/internal/bcm283x"
)

// buildControlBlocks constructs the circular DMA chain once, before the
// DMA engine starts (§4.1). For every sample slot it emits a clear
// block, an optional set block for the servo whose pulse starts there,
// and a delay block paced by the PWM or PCM FIFO; the last emitted block
// is then closed back onto cbs[0].
//
// It also seeds turnoff_mask to "all mapped pins cleared" and assigns
// each mapped servo's stagger offset (servostart), since both are
// prerequisites for the addresses baked into the chain.
func (e *Engine) buildControlBlocks() error {
	a := e.arena
	mapped := e.mapped
	numServos := len(mapped)

	var maskAll uint32
	for _, s := range mapped {
		maskAll |= 1 << e.cfg.Servo2GPIO[s]
	}
	for i := range a.turnoffMask {
		a.turnoffMask[i] = maskAll
	}
	for i := range a.turnonMask {
		a.turnonMask[i] = 0
	}

	stride := a.numSamples / numServos
	for k, s := range mapped {
		e.servoStart[s] = k * stride
	}

	gpioClrOffset, gpioSetOffset := bcm283x.GPIOClr0Offset, bcm283x.GPIOSet0Offset
	if e.cfg.Invert {
		gpioClrOffset, gpioSetOffset = gpioSetOffset, gpioClrOffset
	}
	gpioClrAddr := uint32(bcm283x.OffsetGPIO) + uint32(gpioClrOffset)
	gpioSetAddr := uint32(bcm283x.OffsetGPIO) + uint32(gpioSetOffset)

	var fifoAddr uint32
	pacingDreq := bcm283x.PWM
	if e.cfg.UsePCM {
		fifoAddr = uint32(bcm283x.OffsetPCM) + uint32(bcm283x.PCMFifoOffset)
		pacingDreq = bcm283x.PCMTX
	} else {
		fifoAddr = uint32(bcm283x.OffsetPWM) + uint32(bcm283x.PWMFifoOffset)
	}

	// mappedAtStart maps a sample-slot index to the servo starting there,
	// for the O(numSamples) single pass below.
	mappedAtStart := make(map[int]int, numServos)
	for _, s := range mapped {
		mappedAtStart[e.servoStart[s]] = s
	}

	idx := 0
	appendCB := func() (*bcm283x.ControlBlock, error) {
		if idx >= len(a.cbs) {
			return nil, errors.New("engine: control block chain overflowed its allocation")
		}
		cb := &a.cbs[idx]
		idx++
		return cb, nil
	}

	for i := 0; i < a.numSamples; i++ {
		clear, err := appendCB()
		if err != nil {
			return err
		}
		if err := clear.Init(a.busAddr(i*4), gpioClrAddr, 4, false, true, bcm283x.Fire, 0); err != nil {
			return errors.Wrap(err, "engine: building clear block")
		}
		clear.SetNext(a.cbBusAddr(idx))

		if s, ok := mappedAtStart[i]; ok {
			set, err := appendCB()
			if err != nil {
				return err
			}
			turnonOffset := a.numSamples*4 + s*4
			if err := set.Init(a.busAddr(turnonOffset), gpioSetAddr, 4, false, true, bcm283x.Fire, 0); err != nil {
				return errors.Wrap(err, "engine: building set block")
			}
			set.SetNext(a.cbBusAddr(idx))
		}

		delay, err := appendCB()
		if err != nil {
			return err
		}
		if err := delay.Init(a.busAddr(0), fifoAddr, 4, false, true, pacingDreq, 0); err != nil {
			return errors.Wrap(err, "engine: building delay block")
		}
		delay.SetNext(a.cbBusAddr(idx))
	}
	a.cbs[idx-1].SetNext(a.cbBusAddr(0))
	e.numCBsUsed = idx
	return nil
}
