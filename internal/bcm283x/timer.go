// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bcm283x

const (
	// 31:4 reserved
	timerM3 = 1 << 3 // M3
	timerM2 = 1 << 2 // M2
	timerM1 = 1 << 1 // M1
	timerM0 = 1 << 0 // M0
)

// Page 173
type timerCtl uint32

// SystemTimerMap is the free-running 1MHz system timer at
// PeripheralBase+0x003000. It is read-only from this process and is used
// by the status probe to time observation windows without relying on the
// Go scheduler's timer resolution.
type SystemTimerMap struct {
	ControlStatus uint32
	CounterLow    uint32
	CounterHigh   uint32
}

// OffsetSystemTimer is the system timer's peripheral register offset.
const OffsetSystemTimer = 0x003000

// Micros returns the current free-running microsecond counter value.
func (s *SystemTimerMap) Micros() uint64 {
	return uint64(s.CounterHigh)<<32 | uint64(s.CounterLow)
}

// sleep150cycles busy-waits roughly 150 CPU cycles. It is used for the
// handful of spots where a register write must settle before the next
// read is trustworthy and a full syscall-based sleep would be overkill.
//
//go:noinline
func sleep150cycles() uint32 {
	// This is a tight empty loop; the noinline pragma and the return value
	// keep the compiler from eliding it entirely.
	var out uint32
	for i := 0; i < 150; i++ {
		out += uint32(i)
	}
	return out
}
