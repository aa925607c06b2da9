// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// The DMA controller is used here to implement zero-CPU continuous PWM.
//
// The way it works under the hood is that the bcm283x has two registers, one
// to set a bit and one to clear a bit.
//
// A single DMA channel walks one circular control block chain that writes
// mask words to both the "clear bit" and the "set bit" register, each
// sample slot paced by a peripheral FIFO.
//
// References
//
// Page 7:
// " Software accessing RAM directly must use physical addresses (based at
// 0x00000000). Software accessing RAM using the DMA engines must use bus
// addresses (based at 0xC0000000) " ... to skip the L1 cache.
//
// " The BCM2835 DMA Controller provides a total of 16 DMA channels. Each
// channel operates independently from the others and is internally arbitrated
// onto one of the 3 system buses. This means that the amount of bandwidth that
// a DMA channel may consume can be controlled by the arbiter settings. "
//
// The CPU has 16 DMA channels but only the first 7 (#0 to #6) can do strides.
// 7~15 have half the bandwidth.

package bcm283x

import "fmt"

// Pages 47-50
type dmaStatus uint32

var dmaTransferInfoNames = []struct {
	bit  dmaTransferInfo
	name string
}{
	{noWideBursts, "NoWideBursts"},
	{srcIgnore, "SrcIgnore"},
	{srcDReq, "SrcDReq"},
	{srcInc, "SrcInc"},
	{dstIgnore, "DstIgnore"},
	{dstDReq, "DstDReq"},
	{dstInc, "DstInc"},
	{waitResp, "WaitResp"},
	{transfer2DMode, "Transfer2DMode"},
	{interruptEnable, "InterruptEnable"},
}

// String renders the set flags and the PERMAP source of a transfer info
// word for logging and test failures.
func (d dmaTransferInfo) String() string {
	s := ""
	rest := d
	for _, f := range dmaTransferInfoNames {
		if rest&f.bit != 0 {
			s += f.name + "|"
			rest &^= f.bit
		}
	}
	permap := (rest >> 16) & 0x1F
	rest &^= 0x1F << 16
	names := []string{"Fire", "DSI", "PCMTX", "PCMRX", "SMI", "PWM", "SPITX", "SPIRX"}
	if int(permap) < len(names) {
		s += names[permap]
	} else {
		s += fmt.Sprintf("PERMAP(%d)", permap)
	}
	if rest != 0 {
		s += fmt.Sprintf("|dmaTransferInfo(0x%x)", uint32(rest))
	}
	return s
}

const (
	reset                    dmaStatus = 1 << 31 // RESET
	abort                    dmaStatus = 1 << 30 // ABORT
	disDebug                 dmaStatus = 1 << 29 // DISDEBUG
	waitForOutstandingWrites dmaStatus = 1 << 28 // WAIT_FOR_OUTSTANDING_WRITES
	// 27:24 reserved
	// 23:20 Lowest has higher priority on AXI.
	panicPriorityShift = 20 // PANIC_PRIORITY
	// 19:16 Lowest has higher priority on AXI.
	priorityShift = 16 // PRIORITY
	// 15:9 reserved
	errorStatus dmaStatus = 1 << 8 // ERROR DMA error was detected; must be cleared manually.
	// 7 reserved
	waitingForOutstandingWrites dmaStatus = 1 << 6 // WAITING_FOR_OUTSTANDING_WRITES
	dreqStopsDMA                dmaStatus = 1 << 5 // DREQ_STOPS_DMA
	paused                      dmaStatus = 1 << 4 // PAUSED
	dreq                        dmaStatus = 1 << 3 // DREQ
	interrupt                   dmaStatus = 1 << 2 // INT
	end                         dmaStatus = 1 << 1 // END
	active                      dmaStatus = 1 << 0 // ACTIVE
)

// String renders the set status flags for logging and test failures.
func (d dmaStatus) String() string {
	flags := []struct {
		bit  dmaStatus
		name string
	}{
		{reset, "Reset"}, {abort, "Abort"}, {disDebug, "DisDebug"},
		{waitForOutstandingWrites, "WaitForOutstandingWrites"},
		{errorStatus, "Error"}, {waitingForOutstandingWrites, "WaitingForOutstandingWrites"},
		{dreqStopsDMA, "DreqStopsDMA"}, {paused, "Paused"}, {dreq, "Dreq"},
		{interrupt, "Interrupt"}, {end, "End"}, {active, "Active"},
	}
	s := ""
	for _, f := range flags {
		if d&f.bit != 0 {
			s += f.name + "|"
		}
	}
	if s == "" {
		return "0"
	}
	return s[:len(s)-1]
}

// Pages 50-52
type dmaTransferInfo uint32

const (
	// 31:27 reserved
	// Don't do wide writes as 2 beat burst; only for channels 0 to 6
	noWideBursts dmaTransferInfo = 1 << 26 // NO_WIDE_BURSTS
	// 25:21 Slows down the DMA throughput by setting the numbre of dummy cycles
	// burnt after each DMA read or write is completed.
	waitCyclesShift = 21 // WAITS
	// 20:16 Peripheral mapping (1-31) whose ready signal shall be used to
	// control the rate of the transfers. 0 means continuous un-paced transfer.
	//
	// It is the source used to pace the data reads and writes operations, each
	// pace being a DReq (Data Request).
	//
	// Page 61
	fire          dmaTransferInfo = iota << 16 // PERMAP; Continuous trigger
	dsi                                        //
	pcmTX                                      //
	pcmRX                                      //
	smi                                        //
	pwm                                        //
	spiTX                                      //
	spiRX                                      //
	bscSPIslaveTX                              //
	bscSPIslaveRX                              //
	unused                                     //
	eMMC                                       //
	uartTX                                     //
	sdHost                                     //
	uartRX                                     //
	dsi2                                       // Same as dsi
	slimBusMCTX                                //
	hdmi                                       //
	slimBusMCRX                                //
	slimBusDC0                                 //
	slimBusDC1                                 //
	slimBusDC2                                 //
	slimBusDC3                                 //
	slimBusDC4                                 //
	scalerFifo0                                // Also on SMI; SMI can be disabled with smiDisable
	scalerFifo1                                //
	scalerFifo2                                //
	slimBusDC5                                 //
	slimBusDC6                                 //
	slimBusDC7                                 //
	slimBusDC8                                 //
	slimBusDC9                                 //

	burstLengthShift                 = 12      // BURST_LENGTH 15:12 0 means a single transfer.
	srcIgnore        dmaTransferInfo = 1 << 11 // SRC_IGNORE Source won't be read, output will be zeros.
	srcDReq          dmaTransferInfo = 1 << 10 // SRC_DREQ
	srcWidth128      dmaTransferInfo = 1 << 9  // SRC_WIDTH 128 bits reads if set, 32 bits otherwise.
	srcInc           dmaTransferInfo = 1 << 8  // SRC_INC Increment read pointer by 32/128bits at each read if set.
	dstIgnore        dmaTransferInfo = 1 << 7  // DEST_IGNORE Do not write.
	dstDReq          dmaTransferInfo = 1 << 6  // DEST_DREQ
	dstWidth         dmaTransferInfo = 1 << 5  // DEST_WIDTH 128 bits writes if set, 32 bits otherwise.
	dstInc           dmaTransferInfo = 1 << 4  // DEST_INC Increment write pointer by 32/128bits at each read if set.
	waitResp         dmaTransferInfo = 1 << 3  // WAIT_RESP DMA waits for AXI write response.
	// 2 reserved
	// 2D mode interpret of txLen; linear if unset; only for channels 0 to 6.
	transfer2DMode  dmaTransferInfo = 1 << 1 // TDMODE
	interruptEnable dmaTransferInfo = 1 << 0 // INTEN Generate an interrupt upon completion.
)

// Page 55
type dmaDebug uint32

const (
	// 31:29 reserved
	lite dmaDebug = 1 << 28 // LITE RO set for lite DMA controllers
	// 27:25 version
	version dmaDebug = 7 << 25 // VERSION
	// 24:16 dmaState
	stateShift = 16 // DMA_STATE
	// 15:8  dmaID
	idShift = 8 // DMA_ID
	// 7:4   outstandingWrites
	outstandingWritesShift = 4 // OUTSTANDING_WRITES
	// 3     reserved
	readError           dmaDebug = 1 << 2 // READ_ERROR slave read error; clear by writing a 1
	fifoError           dmaDebug = 1 << 1 // FIF_ERROR fifo error; clear by writing a 1
	readLastNotSetError dmaDebug = 1 << 0 // READ_LAST_NOT_SET_ERROR last AXI read signal was not set when expected
)

// 31:30 0
// 29:16 yLength (only for channels #0 to #6)
// 15:0  xLength
type dmaTransferLen uint32

// 31:16 dstStride byte increment to apply at the end of each row in 2D mode
// 15:0  srcStride byte increment to apply at the end of each row in 2D mode
type dmaStride uint32

// PERMAP stream selectors usable as the dreq argument to ControlBlock.Init.
// These pace DMA transfers off a peripheral's DREQ signal; Fire means
// continuous, unpaced transfer.
const (
	Fire  = fire
	PWM   = pwm
	PCMTX = pcmTX
	PCMRX = pcmRX
)

const permapMask = 0x1F << 16

// errDMA wraps the handful of validation failures ControlBlock.Init can
// return; kept as a distinct type so callers can tell a programming error
// in this package from a hardware failure surfaced elsewhere.
type errDMA string

func (e errDMA) Error() string { return string(e) }

// ControlBlock is one node of the circular chain of descriptors the DMA
// engine walks. Its in-memory layout must match the hardware's 32 byte
// control block exactly since the engine reads it directly; the struct is
// always addressed through a pmem view of DMA-visible memory, never
// copied.
//
// Page 43-46.
type ControlBlock struct {
	TransferInfo dmaTransferInfo
	SrcAddr      uint32
	DstAddr      uint32
	TxLen        dmaTransferLen
	Stride       dmaStride
	NextCB       uint32
	reserved     [2]uint32
}

// Init fills in one control block in place.
//
// srcAddr/dstAddr are bus addresses for a memory side and
// peripheral-relative offsets for a peripheral side, which Init converts
// with busAddrPeripheral; a zero value means "unused" (read as zero /
// discard writes). srcIO/dstIO mark which side, if any, is a peripheral
// register rather than plain memory: it may not increment and must not be
// both. dreq selects the PERMAP pacing source; Fire means run flat out, in
// which case waits must be zero. waits adds 0-31 idle cycles after each
// transfer of a paced (non-Fire) block.
func (c *ControlBlock) Init(srcAddr, dstAddr uint32, length dmaTransferLen, srcIO, dstIO bool, dreq dmaTransferInfo, waits int) error {
	if srcIO && dstIO {
		return errDMA("bcm283x: control block can't set both srcIO and dstIO")
	}
	if srcAddr == 0 && dstAddr == 0 {
		return errDMA("bcm283x: control block needs at least one address")
	}
	if srcIO && srcAddr == 0 {
		return errDMA("bcm283x: srcIO requires srcAddr")
	}
	if dstIO && dstAddr == 0 {
		return errDMA("bcm283x: dstIO requires dstAddr")
	}
	if uint32(dreq)&^uint32(permapMask) != 0 {
		return errDMA("bcm283x: dreq must not specify anything other than a PERMAP source")
	}
	if waits < 0 || waits > 31 {
		return errDMA("bcm283x: waits must fit in 5 bits")
	}
	if dreq == fire && waits != 0 {
		return errDMA("bcm283x: dmaFire can't use waits")
	}

	ti := noWideBursts | waitResp | dreq | dmaTransferInfo(waits)<<waitCyclesShift
	switch {
	case srcAddr == 0:
		ti |= srcIgnore
	case srcIO:
		ti |= srcDReq
	default:
		ti |= srcInc
	}
	switch {
	case dstAddr == 0:
		ti |= dstIgnore
	case dstIO:
		if dreq != fire {
			ti |= dstDReq
		}
	default:
		ti |= dstInc
	}

	c.TransferInfo = ti
	if srcIO {
		c.SrcAddr = busAddrPeripheral(srcAddr)
	} else {
		c.SrcAddr = srcAddr
	}
	if dstIO {
		c.DstAddr = busAddrPeripheral(dstAddr)
	} else {
		c.DstAddr = dstAddr
	}
	c.TxLen = length
	c.Stride = 0
	return nil
}

// SetNext links this control block to the next one in the chain, using
// the bus address of the next block's memory.
func (c *ControlBlock) SetNext(busAddr uint32) {
	c.NextCB = busAddr
}

// DMAChannelMap is one DMA channel's register block, repeated every
// dmaChannelStride bytes starting at PeripheralBase+OffsetDMA.
//
// Page 41-42.
type DMAChannelMap struct {
	CS           dmaStatus
	CBAddr       uint32
	TransferInfo dmaTransferInfo
	SrcAddr      uint32
	DstAddr      uint32
	TxLen        dmaTransferLen
	Stride       dmaStride
	NextCB       uint32
	Debug        dmaDebug
}

// IsAvailable returns true if this channel is not currently running a
// transfer and can be claimed.
func (d *DMAChannelMap) IsAvailable() bool {
	return d.CS&active == 0 && d.CBAddr == 0
}

// Start points the channel at a control block chain and fires it.
func (d *DMAChannelMap) Start(cbBusAddr uint32) {
	d.CS = reset
	d.CBAddr = cbBusAddr
	d.CS = waitForOutstandingWrites | active
}

// priority8 is both the PANIC_PRIORITY and PRIORITY fields set to 8, the
// value the servo engine uses so its paced writes aren't starved behind
// other AXI masters without dominating the bus either.
const priority8 dmaStatus = 8<<panicPriorityShift | 8<<priorityShift

// StartPaced resets the channel, clears its sticky interrupt/end flags,
// points it at the control block chain, clears the debug error latch,
// then fires it at priority 8 with WAIT_FOR_OUTSTANDING_WRITES set. The
// reset and the writes that follow it are issued back to back; there is
// no settling delay between them.
func (d *DMAChannelMap) StartPaced(cbBusAddr uint32) {
	d.CS = reset
	d.CS = interrupt | end
	d.CBAddr = cbBusAddr
	d.Debug = 7
	d.CS = waitForOutstandingWrites | active | priority8
}

// Stop aborts any in-flight transfer and resets the channel, needed
// during teardown so the DMA engine releases its bus master hold before
// the backing memory is unmapped and freed.
func (d *DMAChannelMap) Stop() {
	d.CS = active
	d.CS = abort
	sleep150cycles()
	d.CS = reset
}

// Err returns a non-nil error if the channel's debug register reports a
// condition that should abort the engine rather than be silently retried.
func (d *DMAChannelMap) Err() error {
	if d.Debug&readError != 0 {
		return errDMA("bcm283x: DMA read error")
	}
	if d.Debug&fifoError != 0 {
		return errDMA("bcm283x: DMA FIFO error")
	}
	if d.Debug&readLastNotSetError != 0 {
		return errDMA("bcm283x: DMA read-last-not-set error")
	}
	return nil
}

// NumDMAChannels is the count of full-featured (stride-capable) DMA
// channels, 0-6; channels 7-14 have half the AXI bandwidth and channel 15
// is normally reserved for the GPU. Nothing in this package restricts a
// caller to channels 0-6.
const NumDMAChannels = 7

// DMAChannelOffset returns the byte offset of channel n's register block
// relative to PeripheralBase+OffsetDMA.
func DMAChannelOffset(n int) uint32 {
	return uint32(n) * dmaChannelStride
}
