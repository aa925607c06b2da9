// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package videocore interacts with the VideoCore GPU found on bcm283x to
// allocate physically contiguous, bus-addressable, DMA-visible memory:
// the buffer backing the circular control-block chain and the turn-on/
// turn-off mask words it references.
//
// This package shouldn't be used directly outside of the engine that
// drives the DMA chain.
//
// Datasheet
//
// While not an actual datasheet, this is the closest to actual formal
// documentation:
// https://github.com/raspberrypi/firmware/wiki/Mailbox-property-interface
package videocore

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"periph.io/x/blaster/internal/pmem"
)

// MemFlag selects the caching/coherency behavior of an allocation. Rev1
// boards need both Direct and Coherent; later boards work with Direct
// alone (see internal/board).
type MemFlag uint32

const (
	FlagDirect   MemFlag = 1 << 2 // 0xCxxxxxxx uncached
	FlagCoherent MemFlag = 2 << 2 // 0x8xxxxxxx non-allocating in L2 but coherent
)

// Mem represents contiguous physically locked memory that was allocated by
// VideoCore and is mapped in user space.
type Mem struct {
	*pmem.View
	handle  uint32
	busAddr uint32
}

// BusAddr is the 0xC0000000-based address the DMA engine must use to
// reference this memory directly, bypassing the L1 cache.
func (m *Mem) BusAddr() uint32 {
	return m.busAddr
}

// Close unmaps the physical memory allocation.
//
// It is important to call this function otherwise the memory stays locked
// until the host reboots.
func (m *Mem) Close() error {
	if err := m.View.Close(); err != nil {
		return err
	}
	if _, err := mailboxTx32(mbUnlockMemory, m.handle); err != nil {
		return err
	}
	_, err := mailboxTx32(mbReleaseMemory, m.handle)
	return err
}

// Alloc allocates a continuous chunk of physical memory for use with the
// DMA controller.
//
// Size must be rounded to 4Kb.
func Alloc(size int, flags MemFlag) (*Mem, error) {
	if size <= 0 {
		return nil, errors.New("videocore: memory size must be > 0")
	}
	if size&0xFFF != 0 {
		return nil, errors.New("videocore: memory size must be rounded to 4096 pages")
	}
	if err := openMailbox(); err != nil {
		return nil, errors.Wrap(err, "videocore")
	}
	// Size, Alignment, Flags; returns an opaque handle to be used to release
	// the memory.
	handle, err := mailboxTx32(mbAllocateMemory, uint32(size), 4096, uint32(flags))
	if err != nil {
		return nil, err
	}
	if handle == 0 {
		return nil, fmt.Errorf("videocore: failed to allocate %d bytes", size)
	}
	// Lock the memory to retrieve a bus memory address.
	busAddr, err := mailboxTx32(mbLockMemory, handle)
	if err != nil {
		return nil, err
	}
	if busAddr == 0 {
		return nil, errors.New("videocore: failed to lock memory")
	}
	b, err := pmem.Map(uint64(busAddr&^0xC0000000), size)
	if err != nil {
		return nil, err
	}
	return &Mem{View: b, handle: handle, busAddr: busAddr}, nil
}

//

var (
	mu         sync.Mutex
	mailbox    *os.File
	mailboxErr error
)

const (
	mbIoctl = 0xc0046400 // _IOWR(0x100, 0, char *)
	// These work:
	mbAllocateMemory  = 0x3000C    // 12, 4
	mbLockMemory      = 0x3000D    // 4, 4
	mbUnlockMemory    = 0x3000E    // 4, 4
	mbReleaseMemory   = 0x3000F    // 4, 4
	mbFirmwareVersion = 0x1        // 0, 4
	mbReply           = 0x80000000 // High bit means a reply
)

func openMailbox() error {
	mu.Lock()
	defer mu.Unlock()
	if mailbox != nil && mailboxErr != nil {
		return mailboxErr
	}
	mailbox, mailboxErr = os.OpenFile("/dev/vcio", os.O_RDWR|os.O_SYNC, 0)
	if mailboxErr == nil {
		mailboxErr = smokeTest()
	}
	return mailboxErr
}

// genPacket creates a message to be sent to the GPU via the "mailbox".
//
// The message must be 16-byte aligned because only the upper 28 bits are
// passed; the lower bits are used to select the channel.
func genPacket(cmd uint32, replyLen uint32, args ...uint32) []uint32 {
	p := make([]uint32, 48)
	offset := uintptr(unsafe.Pointer(&p[0])) & 15
	b := p[16-offset : 32+16-offset]
	max := uint32(len(args) * 4)
	if replyLen > max {
		max = replyLen
	}
	max = ((max + 3) / 4) * 4
	// size + zero + cmd + in + out + <max> + zero
	b[0] = uint32(6*4) + max     // message total length in bytes, including trailing zero
	b[2] = cmd                   //
	b[3] = uint32(len(args)) * 4 // inputs length in bytes
	b[4] = replyLen              // outputs length in bytes
	copy(b[5:], args)
	return b[:6+max/4]
}

func sendPacket(b []uint32) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, mailbox.Fd(), mbIoctl, uintptr(unsafe.Pointer(&b[0])))
	if errno != 0 {
		return errors.Wrapf(errno, "videocore: ioctl")
	}
	if b[1] != mbReply {
		// 0x80000001 means partial response.
		return fmt.Errorf("videocore: got unexpected reply bit 0x%08x", b[1])
	}
	return nil
}

func mailboxTx32(cmd uint32, args ...uint32) (uint32, error) {
	b := genPacket(cmd, 4, args...)
	if err := sendPacket(b); err != nil {
		return 0, err
	}
	if b[4] != mbReply|4 {
		return 0, fmt.Errorf("videocore: got unexpected reply size 0x%08x", b[4])
	}
	return b[5], nil
}

func smokeTest() error {
	// It returns 0 on a RPi3 but don't assert this in case the VC firmware
	// gets updated.
	_, err := mailboxTx32(mbFirmwareVersion)
	return err
}
