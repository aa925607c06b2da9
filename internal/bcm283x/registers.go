// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bcm283x exposes the peripheral registers used to drive
// jitter-free PWM pulses via the BCM283x DMA engine: GPIO function
// select/set/clear, the PLLD-derived clock generator, the PWM and PCM
// FIFOs, and the DMA control-block machinery that paces writes to them.
//
// Register layouts follow the BCM2835 ARM Peripherals datasheet.
package bcm283x

// PeripheralBase is the physical base address of the peripheral register
// block. It differs between the BCM2835 (Pi1, Pi Zero) and the
// BCM2836/2837/2711 (Pi2 and later).
type PeripheralBase uint64

const (
	// Base2835 is the peripheral base on the original Pi1/Zero SoC.
	Base2835 PeripheralBase = 0x20000000
	// Base2836 is the peripheral base on the Pi2/Pi3 SoC family.
	Base2836 PeripheralBase = 0x3F000000
)

// Peripheral register block offsets, relative to PeripheralBase.
const (
	OffsetDMA   = 0x007000
	OffsetClock = 0x101000
	OffsetGPIO  = 0x200000
	OffsetPCM   = 0x203000
	OffsetPWM   = 0x20C000
	// OffsetDMA15 is channel 15's register block; it lives outside the
	// normal DMA0-14 window and is reserved for the GPU on most boards.
	OffsetDMA15 = 0xE05000
)

// dmaChannelStride is the byte distance between two consecutive DMA
// channel register blocks.
const dmaChannelStride = 0x100

// busAddrPeripheral converts a peripheral register offset (relative to
// PeripheralBase) into the 0x7Exxxxxx bus address the DMA engine must use
// to reach it directly, bypassing the L1/L2 cache, per the "Software
// accessing RAM using the DMA engines must use bus addresses" note in the
// datasheet.
func busAddrPeripheral(offset uint32) uint32 {
	return 0x7E000000 + offset
}

// Byte offsets, relative to OffsetGPIO/OffsetPWM/OffsetPCM, of the
// individual registers the DMA control-block chain writes to directly.
// These mirror GPIOMap/PWMMap/PCMMap's field layout; they're named here
// because ControlBlock.Init takes a peripheral-relative address, not a
// struct field.
const (
	GPIOSet0Offset = 0x1C
	GPIOClr0Offset = 0x28
	PWMFifoOffset  = 0x18
	PCMFifoOffset  = 0x04
)
