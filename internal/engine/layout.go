// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package engine

import (
	"unsafe"

	"github.com/pkg/errors"

	"periph.io/x/blaster/internal/bcm283x"
	"periph.io/x/blaster/internal/pmem"
	"periph.io/x/blaster/internal/videocore"
)

// maxMemoryBytes is the hard cap on the arena size (§3): a pathological
// cycle-time/step-time combination must fail fast at startup rather than
// quietly eat tens of megabytes of locked, uncached VideoCore memory.
const maxMemoryBytes = 16 * 1024 * 1024

const pageSize = 4096

// controlBlockWords is sizeof(bcm283x.ControlBlock) in 32 bit words: 8,
// per the BCM283x datasheet's 32 byte control block layout.
const controlBlockWords = 8

// arena is the single VideoCore-allocated buffer backing the pulse
// engine: turnoff_mask, turnon_mask and the control-block chain, laid
// out contiguously in that order (§3).
type arena struct {
	mem *videocore.Mem

	numSamples int
	numCBs     int // allocated capacity; buildControlBlocks may use fewer
	numPages   int

	turnoffMask []uint32
	turnonMask  []uint32
	cbs         []bcm283x.ControlBlock

	cbByteOffset int // byte offset of cbs[0] within mem, for BusAddr math
}

// roundUp8Words rounds n up to the next multiple of 8, matching the
// original's ROUNDUP(num_samples+MAX_SERVOS, 8): the control-block chain
// always starts on an 8-word boundary.
func roundUp8Words(n int) int {
	return (n + 7) &^ 7
}

// newArena computes the memory layout for the given timing lattice and
// allocates it from VideoCore, uncached per flags (see
// internal/board.Model.MemFlags).
func newArena(cycleTimeUs, stepTimeUs int, flags videocore.MemFlag) (*arena, error) {
	numSamples := cycleTimeUs / stepTimeUs
	numCBs := 2*numSamples + MaxServos

	cbWordOffset := roundUp8Words(numSamples + MaxServos)
	cbByteOffset := cbWordOffset * 4
	totalBytes := cbByteOffset + numCBs*controlBlockWords*4

	numPages := (totalBytes + pageSize - 1) / pageSize
	if numPages*pageSize > maxMemoryBytes {
		return nil, errors.New("engine: using too much memory; reduce cycle-time or increase step-time")
	}

	mem, err := videocore.Alloc(numPages*pageSize, flags)
	if err != nil {
		return nil, errors.Wrap(err, "engine: allocating DMA arena")
	}

	turnoff := mem.Slice[:numSamples*4]
	turnon := mem.Slice[numSamples*4 : numSamples*4+MaxServos*4]
	cbBytes := mem.Slice[cbByteOffset : cbByteOffset+numCBs*controlBlockWords*4]

	a := &arena{
		mem:          mem,
		numSamples:   numSamples,
		numCBs:       numCBs,
		numPages:     numPages,
		turnoffMask:  turnoff.Uint32(),
		turnonMask:   turnon.Uint32(),
		cbs:          controlBlockSlice(cbBytes, numCBs),
		cbByteOffset: cbByteOffset,
	}
	return a, nil
}

// controlBlockSlice reinterprets a byte range of DMA-visible memory as a
// slice of control blocks with no copy, the same no-copy-overlay idiom
// pmem.Slice.Struct uses for a single struct.
func controlBlockSlice(b pmem.Slice, n int) []bcm283x.ControlBlock {
	return unsafe.Slice((*bcm283x.ControlBlock)(unsafe.Pointer(&b[0])), n)
}

// busAddr returns the DMA bus address of the byte at the given offset
// within the arena.
func (a *arena) busAddr(byteOffset int) uint32 {
	return a.mem.BusAddr() + uint32(byteOffset)
}

// cbBusAddr returns the bus address of control block index i.
func (a *arena) cbBusAddr(i int) uint32 {
	return a.busAddr(a.cbByteOffset + i*controlBlockWords*4)
}

// close releases the arena's VideoCore allocation. It must only be
// called after the DMA engine reading it has been stopped (§4.7).
func (a *arena) close() error {
	return a.mem.Close()
}
