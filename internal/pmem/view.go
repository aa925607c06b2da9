// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pmem maps physical memory ranges, CPU peripheral registers and
// VideoCore-allocated DMA buffers alike, into this process's address
// space.
package pmem

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"unsafe"
)

// Slice can be transparently viewed as []byte, []uint32 or overlaid onto a
// plain struct describing a peripheral's register layout.
type Slice []byte

// Uint32 reinterprets the backing bytes as a slice of little-endian
// 32 bit words, which is how every bcm283x peripheral register is sized.
func (s *Slice) Uint32() []uint32 {
	header := *(*reflect.SliceHeader)(unsafe.Pointer(s))
	header.Len /= 4
	header.Cap /= 4
	return *(*[]uint32)(unsafe.Pointer(&header))
}

// Struct initializes a pointer to a struct to point directly at the memory
// mapped region, so that reads and writes through the struct's fields are
// reads and writes to the underlying peripheral registers (or DMA-visible
// memory) with no copy in between.
//
// pp must be a pointer to a pointer to a struct and the pointer to struct
// must be nil. Returns an error otherwise.
func (s *Slice) Struct(pp reflect.Value) error {
	if k := pp.Kind(); k != reflect.Ptr {
		return fmt.Errorf("pmem: require Ptr, got %s", k)
	}
	if pp.IsNil() {
		return errors.New("pmem: require Ptr to be valid")
	}
	p := pp.Elem()
	if k := p.Kind(); k != reflect.Ptr {
		return fmt.Errorf("pmem: require Ptr to Ptr, got %s", k)
	}
	if !p.IsNil() {
		return errors.New("pmem: require Ptr to Ptr to be nil")
	}
	t := p.Type().Elem()
	if k := t.Kind(); k != reflect.Struct {
		return fmt.Errorf("pmem: require Ptr to Ptr to a struct, got Ptr to Ptr to %s", k)
	}
	if size := int(t.Size()); size > len(*s) {
		return fmt.Errorf("pmem: can't map struct %s (size %d) on [%d]byte", t, size, len(*s))
	}
	dest := unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(s))).Data)
	p.Set(reflect.NewAt(t, dest))
	return nil
}

// View represents a view of physical memory mapped into user space.
//
// It is usually used to map CPU registers into user space, i.e. I/O
// registers and the like.
//
// It is not required to call Close(); the kernel cleans up on process
// exit. This daemon still calls it during teardown so that the exact
// same code path runs whether shutdown was requested or forced by a
// signal.
type View struct {
	Slice
	orig []byte // Reference rounded to the lowest 4Kb page containing Slice.
}

// Close unmaps the memory from the user address space.
func (v *View) Close() error {
	return munmap(v.orig)
}

// MapGPIO returns a CPU specific memory mapping of the GPIO I/O registers
// using /dev/gpiomem, which does not require CAP_SYS_RAWIO the way
// /dev/mem does.
func MapGPIO() (*View, error) {
	if isLinux {
		return mapGPIOLinux()
	}
	return nil, errors.New("pmem: /dev/gpiomem is not supported on this platform")
}

// Map returns a memory mapped view of an arbitrary physical memory range,
// rounded up to a 4Kb window. This requires root and, on Linux, leverages
// /dev/mem; it is how the clock, PWM, PCM and DMA register blocks (none of
// which /dev/gpiomem exposes) are reached.
func Map(base uint64, size int) (*View, error) {
	if isLinux {
		return mapLinux(base, size)
	}
	return nil, errors.New("pmem: /dev/mem is not supported on this platform")
}

//

var (
	mu          sync.Mutex
	gpioMemErr  error
	gpioMemView *View
	devMem      *os.File
	devMemErr   error
)

func mapGPIOLinux() (*View, error) {
	mu.Lock()
	defer mu.Unlock()
	if gpioMemView == nil && gpioMemErr == nil {
		if f, err := os.OpenFile("/dev/gpiomem", os.O_RDWR|os.O_SYNC, 0); err == nil {
			defer f.Close()
			if i, err := mmap(f.Fd(), 0, 4096); err == nil {
				gpioMemView = &View{Slice: i, orig: i}
			} else {
				gpioMemErr = err
			}
		} else {
			gpioMemErr = err
		}
	}
	return gpioMemView, gpioMemErr
}

func mapLinux(base uint64, size int) (*View, error) {
	f, err := openDevMemLinux()
	if err != nil {
		return nil, err
	}
	offset := int(base & 0xFFF)
	i, err := mmap(f.Fd(), int64(base&^0xFFF), (size+offset+0xFFF)&^0xFFF)
	if err != nil {
		return nil, fmt.Errorf("pmem: mapping at 0x%x failed: %v", base, err)
	}
	return &View{Slice: i[offset : offset+size], orig: i}, nil
}

func openDevMemLinux() (*os.File, error) {
	mu.Lock()
	defer mu.Unlock()
	if devMem == nil && devMemErr == nil {
		devMem, devMemErr = os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	}
	return devMem, devMemErr
}
