// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package board selects the handful of board-specific facts the engine
// needs from a Raspberry Pi's /proc/cpuinfo revision code: which header
// pin table applies, what the PLLD frequency is, and which VideoCore
// memory flags an allocation needs.
package board

import (
	"strconv"

	"github.com/pkg/errors"

	"periph.io/x/blaster/internal/bcm283x"
	"periph.io/x/blaster/internal/distro"
	"periph.io/x/blaster/internal/headers"
	"periph.io/x/blaster/internal/videocore"
)

// Model is a closed set of header/clock/memory configurations; every
// bcm283x board in the field maps onto exactly one of these three or onto
// the unexported plld750 below.
type Model int

const (
	// Rev1 is the original Model B, 26 pin P1 header only, no P5.
	Rev1 Model = iota
	// Rev2Plus is the Model B rev2 and the Model A/B: 26 pin P1 plus the
	// 8 pin P5 auxiliary header.
	Rev2Plus
	// BPlus40Pin is every board with the 40 pin P1/J8 header: B+, A+, the
	// Pi2, Pi3, Pi4, Zero and Compute Module family.
	BPlus40Pin
)

func (m Model) String() string {
	switch m {
	case Rev1:
		return "Rev1"
	case Rev2Plus:
		return "Rev2Plus"
	case BPlus40Pin:
		return "BPlus40Pin"
	default:
		return "Model(?)"
	}
}

// PLLDFreqMHz is the fixed frequency of the PLLD clock source this board's
// SoC feeds into the PWM/PCM clock generator. It does not change with ARM
// frequency scaling, which is why the engine uses PLLD rather than the
// oscillator to derive its pulse timing.
func (m Model) PLLDFreqMHz() uint32 {
	if m == plld750 {
		return 750
	}
	return 500
}

// MemFlags is the VideoCore allocation flag set this board's DMA
// controller requires to see a coherent view of memory written by the
// CPU without an explicit cache flush.
func (m Model) MemFlags() videocore.MemFlag {
	if m == Rev1 {
		return videocore.FlagDirect | videocore.FlagCoherent
	}
	return videocore.FlagDirect
}

// PeripheralBase returns the physical base address of the peripheral
// register block this board's SoC exposes. Rev1 and Rev2Plus are always
// the original BCM2835; every 40 pin board covers the BCM2836/2837/2711
// family, which all share the BCM2836 base in 32 bit physical address
// space (the BCM2711 additionally exposes a low alias used here; a
// low-memory alias is all this process needs since /dev/mem access is
// itself 32 bit).
func (m Model) PeripheralBase() bcm283x.PeripheralBase {
	if m == Rev1 || m == Rev2Plus {
		return bcm283x.Base2835
	}
	return bcm283x.Base2836
}

// Headers returns the header(s) physically present on this board.
func (m Model) Headers() []headers.Header {
	switch m {
	case Rev1:
		return []headers.Header{headers.P1Rev2()}
	case Rev2Plus:
		return []headers.Header{headers.P1Rev2(), headers.P5Rev1()}
	default:
		return []headers.Header{headers.P1Rev3()}
	}
}

// plld750 is an unexported fourth Model value for the BCM2711 found on the
// Pi4. Its headers, memory flags and peripheral base are BPlus40Pin's; it
// only changes PLLDFreqMHz's answer.
const plld750 Model = 100 + iota

// Detect identifies the running board from /proc/cpuinfo's Revision
// field. It never fails outright: an unrecognized or absent revision
// falls back to BPlus40Pin at 500MHz, the configuration of every board
// shipped after 2014.
func Detect() (Model, error) {
	rev, ok := distro.CPUInfo()["Revision"]
	if !ok {
		return BPlus40Pin, errors.New("board: /proc/cpuinfo has no Revision field")
	}
	return parseRevision(rev)
}

func parseRevision(rev string) (Model, error) {
	v, err := strconv.ParseUint(rev, 16, 32)
	if err != nil {
		return BPlus40Pin, errors.Wrapf(err, "board: invalid revision %q", rev)
	}
	if v&0x800000 != 0 {
		// New-style encoded revision, page "Revision codes" of the Raspberry
		// Pi hardware documentation. Bits 12:15 are the processor, 3 and up
		// being BCM2711 (Pi4).
		if (v>>12)&0xF >= 3 {
			return plld750, nil
		}
		return BPlus40Pin, nil
	}
	// Old-style revision: a small integer, optionally with a high overvolt
	// bit set that must be masked off first.
	code := v &^ 0x1000000
	switch code {
	case 0x2, 0x3:
		return Rev1, nil
	case 0x4, 0x5, 0x6, 0x8, 0x9, 0xd, 0xe, 0xf:
		return Rev2Plus, nil
	default:
		return BPlus40Pin, nil
	}
}
