// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bcm283x

const (
	// 31:24 password
	passwdCtl clockCtl = 0x5A << 24 // PASSWD
	// 23:11 reserved
	mashMask clockCtl = 3 << 9 // MASH
	mash0    clockCtl = 0 << 9 // src_freq / divI  (ignores divF)
	mash1    clockCtl = 1 << 9
	mash2    clockCtl = 2 << 9
	mash3    clockCtl = 3 << 9 // will cause higher spread
	flip     clockCtl = 1 << 8 // FLIP
	busy     clockCtl = 1 << 7 // BUSY
	// 6 reserved
	kill          clockCtl = 1 << 5   // KILL
	enabClk       clockCtl = 1 << 4   // ENAB
	srcMask       clockCtl = 0xF << 0 //SRC
	srcGND        clockCtl = 0        // 0Hz
	srcOscillator clockCtl = 1        // 19.2MHz
	srcTestDebug0 clockCtl = 2        // 0Hz
	srcTestDebug1 clockCtl = 3        // 0Hz
	srcPLLA       clockCtl = 4        // 0Hz
	srcPLLC       clockCtl = 5        // 1000MHz (changes with overclock settings)
	srcPLLD       clockCtl = 6        // 500MHz
	srcHDMI       clockCtl = 7        // 216MHz
	// 8-15 == GND.
)

// clockCtl controls the clock properties.
//
// It must not be changed while busy is set or a glitch may occur.
//
// Page 107
type clockCtl uint32

const (
	// 31:24 password
	passwdDiv clockDiv = 0x5A << 24 // PASSWD
	// Integer part of the divisor
	diviShift          = 12
	diviMax   clockDiv = (1 << 12) - 1
	diviMask  clockDiv = diviMax << diviShift // DIVI
	// Fractional part of the divisor
	divfMask clockDiv = (1 << 12) - 1 // DIVF
)

// clockDiv is a 12.12 fixed point value.
//
// Page 108
type clockDiv uint32

// Offsets of the PWM and PCM clock generators within the CPRMAN register
// block at PeripheralBase+OffsetClock. Page 107.
const (
	ClockPWMCtlOffset = 0xA0
	ClockPWMDivOffset = 0xA4
	ClockPCMCtlOffset = 0x98
	ClockPCMDivOffset = 0x9C
)

// Exported clock source and MASH selectors for callers configuring the
// PWM/PCM clock generators. PLLD is used because, unlike the oscillator,
// its frequency is fixed regardless of ARM frequency scaling.
const (
	ClockSrcPLLD = srcPLLD
	Mash0        = mash0
	Mash1        = mash1
)

// ClockMap is one clock generator's control/divisor register pair.
type ClockMap struct {
	Ctl uint32
	Div uint32
}

// Configure stops the clock, waits for it to be idle, programs the divisor
// for the requested source, then re-enables it. All writes carry the 0x5A
// password in bits 31:24 as required by the datasheet; the sequence must
// not be reordered or the clock generator can glitch or hang.
func (c *ClockMap) Configure(src clockCtl, divi uint32, mash clockCtl) {
	c.Ctl = uint32(passwdCtl | kill)
	for clockCtl(c.Ctl)&busy != 0 {
	}
	c.Div = uint32(passwdDiv | clockDiv(divi<<diviShift)&diviMask)
	c.Ctl = uint32(passwdCtl | mash | src)
	c.Ctl = uint32(passwdCtl | mash | src | enabClk)
}

// DisablePLLD stops the clock generator with its source set to PLLD but
// the enable bit clear. This is the first step of the servo engine's PWM
// or PCM clock bring-up; the caller is expected to busy-wait afterward to
// let the generator settle before programming the divider.
func (c *ClockMap) DisablePLLD() {
	c.Ctl = uint32(passwdCtl | srcPLLD)
}

// SetPLLDDivider programs the integer divider that turns the PLLD source
// frequency into a 1MHz tick, with no fractional part. plldFreqMHz is the
// board's fixed PLLD frequency (see internal/board.Model.PLLDFreqMHz).
func (c *ClockMap) SetPLLDDivider(plldFreqMHz uint32) {
	c.Div = uint32(passwdDiv) | plldFreqMHz<<diviShift
}

// EnablePLLD re-enables the clock generator after SetPLLDDivider; the
// caller must busy-wait afterward before relying on the clock output.
func (c *ClockMap) EnablePLLD() {
	c.Ctl = uint32(passwdCtl | srcPLLD | enabClk)
}
