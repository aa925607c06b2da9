// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bcm283x

import "fmt"

// Function specifies the active functionality of a GPIO pin. Alt functions
// are pin dependent; In, Out, Alt0, Alt1, Alt4 and Alt5 are named here,
// Alt2 and Alt3 are not.
type Function uint8

const (
	In   Function = 0
	Out  Function = 1
	Alt0 Function = 4
	Alt1 Function = 5
	Alt4 Function = 3
	Alt5 Function = 2
)

func (f Function) String() string {
	switch f {
	case In:
		return "In"
	case Out:
		return "Out"
	case Alt0:
		return "Alt0"
	case Alt1:
		return "Alt1"
	case Alt4:
		return "Alt4"
	case Alt5:
		return "Alt5"
	default:
		return fmt.Sprintf("Function(%d)", uint8(f))
	}
}

// GPIOMap is the GPIO peripheral register block as laid out starting at
// PeripheralBase+OffsetGPIO.
//
// Mapping as per the BCM2835 ARM Peripherals datasheet, pages 90-91.
type GPIOMap struct {
	// 0x00-0x14 GPFSEL0-5: 3 bits per pin, 10 pins per register.
	FunctionSelect [6]uint32
	dummy0         uint32
	// 0x1C-0x20 GPSET0-1: write 1 to set a pin, per-bit, two 32 bit banks.
	OutputSet [2]uint32
	dummy1    uint32
	// 0x28-0x2C GPCLR0-1: write 1 to clear a pin.
	OutputClear [2]uint32
	dummy2      uint32
	// 0x34-0x38 GPLEV0-1: read pin level.
	Level [2]uint32
}

// pinFunction returns the 3 bit function code currently programmed for
// GPIO number n.
func (g *GPIOMap) pinFunction(n int) Function {
	shift := uint(n%10) * 3
	return Function((g.FunctionSelect[n/10] >> shift) & 7)
}

// setPinFunction programs the function select bits for GPIO number n.
func (g *GPIOMap) setPinFunction(n int, f Function) {
	shift := uint(n%10) * 3
	mask := uint32(7) << shift
	g.FunctionSelect[n/10] = (g.FunctionSelect[n/10] &^ mask) | (uint32(f) << shift)
}

// Set drives GPIO number n high.
func (g *GPIOMap) Set(n int) {
	g.OutputSet[n/32] = 1 << uint(n%32)
}

// Clear drives GPIO number n low.
func (g *GPIOMap) Clear(n int) {
	g.OutputClear[n/32] = 1 << uint(n%32)
}

// Read returns the current level of GPIO number n.
func (g *GPIOMap) Read(n int) bool {
	return g.Level[n/32]&(1<<uint(n%32)) != 0
}

// Pin represents one BCM GPIO line as used by the servo timing engine: its
// number and the function it was in before this process took it over, so
// teardown can put it back.
type Pin struct {
	Number   int
	savedFn  Function
	captured bool
}

// Capture records the pin's current function so Restore can undo whatever
// this process does to it. It must be called once, before SetOutput.
func (p *Pin) Capture(g *GPIOMap) {
	p.savedFn = g.pinFunction(p.Number)
	p.captured = true
}

// SetOutput switches the pin to output mode and drives the given level.
func (p *Pin) SetOutput(g *GPIOMap, high bool) {
	g.setPinFunction(p.Number, Out)
	if high {
		g.Set(p.Number)
	} else {
		g.Clear(p.Number)
	}
}

// Restore returns the pin to the function it had before Capture, or to
// input if Capture was never called.
func (p *Pin) Restore(g *GPIOMap) {
	f := In
	if p.captured {
		f = p.savedFn
	}
	g.Clear(p.Number)
	g.setPinFunction(p.Number, f)
}

// MaxGPIO is the highest addressable GPIO number on bcm283x; pins 47-53
// are wired to the SD card. engine.Config.Validate refuses GPIO numbers
// above MaxGPIO only.
const MaxGPIO = 53
